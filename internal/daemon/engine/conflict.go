package engine

import (
	"context"
	"time"
)

// Decision is the user's answer for one conflicting file.
type Decision int

const (
	DecisionSkip Decision = iota
	DecisionOverwrite
)

// Decider resolves per-file conflicts in ask mode. Implementations forward
// the question to the user and block until an answer or ctx expiry.
type Decider interface {
	Decide(ctx context.Context, project, relPath string) (Decision, error)
}

// DeciderFunc adapts a function to the Decider interface.
type DeciderFunc func(ctx context.Context, project, relPath string) (Decision, error)

func (f DeciderFunc) Decide(ctx context.Context, project, relPath string) (Decision, error) {
	return f(ctx, project, relPath)
}

// DefaultAskTimeout bounds how long a run waits for an answer before
// treating the conflict as skip.
const DefaultAskTimeout = 30 * time.Second

// ask resolves one conflict. A nil decider, an error, or a timeout all fall
// back to skip so a run never blocks indefinitely.
func ask(ctx context.Context, decider Decider, timeout time.Duration, project, relPath string) Decision {
	if decider == nil {
		return DecisionSkip
	}

	askCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	decision, err := decider.Decide(askCtx, project, relPath)
	if err != nil {
		return DecisionSkip
	}
	return decision
}
