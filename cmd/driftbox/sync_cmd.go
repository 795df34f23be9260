package main

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/driftbox/driftbox/internal/daemon"
	"github.com/driftbox/driftbox/internal/daemon/history"
	"github.com/driftbox/driftbox/internal/daemon/project"
	"github.com/driftbox/driftbox/internal/utils"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(newSyncCmd())
}

func newSyncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync [path]",
		Short: "Run one sync pass for a project folder, or for every project",
		Args:  cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return loadConfig(cmd)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := configFromViper()
			if err := cfg.Validate(); err != nil {
				return err
			}
			cmd.SilenceUsage = true

			d, err := daemon.New(cfg)
			if err != nil {
				return err
			}
			defer d.Close()

			trees, err := resolveTrees(d, args)
			if err != nil {
				return err
			}

			var failed bool
			for _, tree := range trees {
				entry, err := d.Engine.Sync(cmd.Context(), tree)
				if err != nil {
					return err
				}
				printOutcome(cmd, entry)
				if entry.Status == history.StatusFailed {
					failed = true
				}
			}
			if failed {
				return fmt.Errorf("sync finished with failures")
			}
			return nil
		},
	}
}

// resolveTrees maps the optional path argument to project trees. Without an
// argument every project under the projects dir is synced once.
func resolveTrees(d *daemon.Daemon, args []string) ([]project.Tree, error) {
	if len(args) == 0 {
		names, err := d.Source.Projects()
		if err != nil {
			return nil, err
		}
		trees := make([]project.Tree, 0, len(names))
		for _, name := range names {
			tree, err := d.Source.Tree(name)
			if err != nil {
				return nil, err
			}
			trees = append(trees, tree)
		}
		return trees, nil
	}

	path, err := utils.ResolvePath(args[0])
	if err != nil {
		return nil, err
	}
	source, err := project.NewDirSource(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	tree, err := source.Tree(filepath.Base(path))
	if err != nil {
		return nil, err
	}
	return []project.Tree{tree}, nil
}

func printOutcome(cmd *cobra.Command, entry *history.Entry) {
	status := green(string(entry.Status))
	if entry.Status != history.StatusSuccess {
		status = red(string(entry.Status))
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s  %s  %d files  %s  %s\n",
		status,
		entry.ProjectName,
		entry.Stats.TotalFiles,
		humanize.Bytes(uint64(entry.Stats.TotalBytes)),
		entry.Stats.Duration.Round(time.Millisecond),
	)
}
