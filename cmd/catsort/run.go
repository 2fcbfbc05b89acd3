package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"catsort/internal/analysis"
	"catsort/internal/errors"
	"catsort/internal/log"
	"catsort/internal/metrics"
	"catsort/internal/organize"
	"catsort/internal/watch"
	"catsort/pkg/types"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func (a *app) organizeCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "organize [dir...]",
		Short: "Sort the root of managed directories into their categories",
		Long: `Organize runs the full pipeline over each directory: guards, category and
extension folders, reset, hidden files, classification and cleanup. Running
it twice leaves the directory unchanged.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var configs []*types.Config
			switch {
			case all:
				configs = a.store.List()
			case len(args) == 0:
				return errors.New("name at least one directory or pass --all")
			default:
				for _, arg := range args {
					cfg, err := a.lookup(arg)
					if err != nil {
						return err
					}
					configs = append(configs, cfg)
				}
			}
			return printResults(cmd, a.engine.ProcessAll(configs))
		},
	}

	cmd.Flags().BoolVarP(&all, "all", "a", false, "organize every managed directory")
	return cmd
}

func (a *app) resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset <dir>",
		Short: "Move files out of category folders back to the root",
		Long: `Reset undoes organizing. For a managed directory only its category folders,
.hidden and Uncategorized are emptied back into the root. An unmanaged
directory has every immediate subdirectory flattened into the root; the
subdirectories themselves are kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := dirArg(args[0])
			if err != nil {
				return err
			}
			var res types.OrganizeResult
			if cfg, err := a.store.Get(dir); err == nil {
				res = a.engine.Reset(cfg)
			} else {
				res = a.engine.ResetDirectory(dir)
			}
			return printResults(cmd, []types.OrganizeResult{res})
		},
	}
}

func (a *app) pendingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pending <dir>",
		Short: "List root entries the next run would move",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !cfg.Active {
				fmt.Fprintln(out, warningText(cfg.Directory+" is inactive"))
				return nil
			}
			names, err := a.engine.Pending(cfg)
			if err != nil {
				return err
			}
			for _, name := range names {
				fmt.Fprintln(out, name)
			}
			fmt.Fprintln(out, mutedText(plural(len(names), "entry")+" pending"))
			return nil
		},
	}
}

func (a *app) inspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <dir>",
		Short: "Show where each pending file would go and what its content looks like",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.lookup(args[0])
			if err != nil {
				return err
			}
			names, err := a.engine.Pending(cfg)
			if err != nil {
				return err
			}
			entries, err := analysis.New(a.logger).Inspect(cfg, names)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintf(out, "%-32s %8s  %-28s -> %s", e.Name, humanize.Bytes(uint64(e.Size)), mutedText(e.ContentType), e.Destination)
				if e.Suggested != "" {
					fmt.Fprint(out, "  "+warningText("content looks like "+e.Suggested))
				}
				for _, key := range []string{"taken", "camera"} {
					if v, ok := e.Metadata[key]; ok {
						fmt.Fprintf(out, "  %s=%s", key, v)
					}
				}
				fmt.Fprintln(out)
			}
			fmt.Fprintln(out, mutedText(plural(len(entries), "entry")+" pending"))
			return nil
		},
	}
}

func (a *app) historyCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history [dir]",
		Short: "Show recent runs, newest first",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.history == nil {
				return errors.New("history is disabled in the config")
			}
			var dir string
			if len(args) == 1 {
				var err error
				if dir, err = dirArg(args[0]); err != nil {
					return err
				}
			}
			runs, err := a.history.Recent(dir, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(runs) == 0 {
				fmt.Fprintln(out, mutedText("No runs recorded yet."))
				return nil
			}
			for _, r := range runs {
				line := fmt.Sprintf("%s  %-8s %-8s %s  %s, %s",
					r.Started.Local().Format("2006-01-02 15:04:05"),
					r.Operation, r.Status, r.Directory,
					plural(r.FilesMoved, "file"), humanize.Bytes(uint64(r.BytesMoved)))
				switch r.Status {
				case types.StatusFailure:
					fmt.Fprintln(out, errorText(fmt.Sprintf("%s  [%s] %s", line, r.Filter, r.Error)))
				case types.StatusSkipped:
					fmt.Fprintln(out, mutedText(line))
				default:
					fmt.Fprintln(out, line)
				}
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "number of runs to show")
	return cmd
}

func (a *app) pipelineCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pipeline",
		Short: "Show the filters an organize run goes through",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fmt.Fprint(cmd.OutOrStdout(), a.engine.Describe())
			return nil
		},
	}
}

func (a *app) daemonCmd() *cobra.Command {
	var watchFS bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run scheduled organizing in the foreground",
		Long: `Run the scheduler until interrupted. With --watch (or watch.enabled in the
config) directories are also organized shortly after files land in them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if watchFS {
				a.settings.Watch.Enabled = true
			}

			recorder := metrics.NewRecorder()
			engine := organize.New(a.engineOptions(organize.WithRecorder(recorder))...)
			daemon := watch.NewDaemon(a.settings, a.store, engine, a.logger, watch.WithRecorder(recorder))

			out := cmd.OutOrStdout()
			daemon.SetCallback(func(res types.OrganizeResult) {
				if res.FilesMoved > 0 || !res.OK() {
					fmt.Fprintln(out, renderResult(res))
				}
			})

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a.logger.With(log.F("configs", len(a.store.List()))).Info("Starting daemon")
			if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			status := daemon.Status()
			fmt.Fprintln(out, mutedText(fmt.Sprintf("Stopped after %s, %s moved", plural(status.Runs, "run"), plural(status.FilesProcessed, "file"))))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watchFS, "watch", "w", false, "also organize on filesystem events")
	return cmd
}

// printResults prints one line per run and fails when any run failed.
func printResults(cmd *cobra.Command, results []types.OrganizeResult) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, res := range results {
		fmt.Fprintln(out, renderResult(res))
		if !res.OK() {
			failed++
		}
	}
	if failed > 0 {
		return errors.Newf("%d of %d runs failed", failed, len(results))
	}
	return nil
}
