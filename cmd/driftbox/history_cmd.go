package main

import (
	"fmt"
	"time"

	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/driftbox/driftbox/internal/daemon/registry"
	"github.com/driftbox/driftbox/internal/daemon/workspace"
	"github.com/driftbox/driftbox/internal/db"
	"github.com/driftbox/driftbox/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newHistoryCmd())
}

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent sync runs and aggregate statistics",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			windowFlag, _ := cmd.Flags().GetString("window")
			window, err := history.ParseWindow(windowFlag)
			if err != nil {
				return err
			}
			projectFilter, _ := cmd.Flags().GetString("project")

			// read-only access, no workspace lock needed
			ws, err := workspace.NewWorkspace(cfg.DataDir)
			if err != nil {
				return err
			}
			if !utils.FileExists(ws.DBPath) {
				fmt.Fprintln(cmd.OutOrStdout(), "no sync history yet")
				return nil
			}
			database, err := db.NewSqliteDB(db.WithPath(ws.DBPath))
			if err != nil {
				return fmt.Errorf("open database: %w", err)
			}
			defer database.Close()

			recorder, err := history.NewRecorder(database)
			if err != nil {
				return err
			}

			entries, err := recorder.Query(window)
			if err != nil {
				return err
			}
			if projectFilter != "" {
				entries = filterByProject(entries, projectFilter)
			}

			out := cmd.OutOrStdout()
			for _, e := range entries {
				status := green(string(e.Status))
				if e.Status != history.StatusSuccess {
					status = red(string(e.Status))
				}
				fmt.Fprintf(out, "%s  %s  %s  %d files  %s  %s\n",
					e.Timestamp.Local().Format("2006-01-02 15:04:05"),
					status,
					e.ProjectName,
					e.Stats.TotalFiles,
					humanize.Bytes(uint64(e.Stats.TotalBytes)),
					e.Stats.Duration.Round(time.Millisecond),
				)
			}

			agg := aggregate(entries)
			fmt.Fprintf(out, "\n%d syncs, %d files, %s, avg %s\n",
				agg.TotalSyncs,
				agg.TotalFiles,
				humanize.Bytes(uint64(agg.TotalBytes)),
				agg.AverageDuration.Round(time.Millisecond),
			)
			return nil
		},
	}

	cmd.Flags().StringP("window", "w", string(history.WindowDay), "History window (24h, 7d, 30d, all)")
	cmd.Flags().String("project", "", "Only show runs for this project")
	return cmd
}

func filterByProject(entries []history.Entry, name string) []history.Entry {
	want := registry.NormalizeName(name)
	filtered := entries[:0]
	for _, e := range entries {
		if registry.NormalizeName(e.ProjectName) == want {
			filtered = append(filtered, e)
		}
	}
	return filtered
}

// aggregate mirrors Recorder.Aggregate but respects the project filter.
func aggregate(entries []history.Entry) history.Aggregate {
	agg := history.Aggregate{TotalSyncs: len(entries)}
	var total int64
	for _, e := range entries {
		agg.TotalFiles += e.Stats.TotalFiles
		agg.TotalBytes += e.Stats.TotalBytes
		total += int64(e.Stats.Duration)
	}
	if len(entries) > 0 {
		agg.AverageDuration = time.Duration(total) / time.Duration(len(entries))
	}
	return agg
}
