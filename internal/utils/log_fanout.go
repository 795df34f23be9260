package utils

import (
	"context"
	"errors"
	"log/slog"
)

// FanoutHandler duplicates every record to a set of slog handlers. The
// daemon uses it to log to the console and the log file at once, each with
// its own level and formatting.
type FanoutHandler struct {
	targets []slog.Handler
}

var _ slog.Handler = (*FanoutHandler)(nil)

func NewFanoutHandler(targets ...slog.Handler) *FanoutHandler {
	return &FanoutHandler{targets: targets}
}

// Enabled reports true when any target accepts the level.
func (h *FanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, target := range h.targets {
		if target.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle forwards the record to every target that accepts its level. One
// failing target does not stop delivery to the others.
func (h *FanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var errs []error
	for _, target := range h.targets {
		if !target.Enabled(ctx, record.Level) {
			continue
		}
		// a Record may only be handled once, each target gets a clone
		if err := target.Handle(ctx, record.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *FanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithAttrs(attrs)
	}
	return NewFanoutHandler(targets...)
}

func (h *FanoutHandler) WithGroup(name string) slog.Handler {
	targets := make([]slog.Handler, len(h.targets))
	for i, target := range h.targets {
		targets[i] = target.WithGroup(name)
	}
	return NewFanoutHandler(targets...)
}
