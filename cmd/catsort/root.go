package main

import (
	"fmt"
	"path/filepath"
	"time"

	"catsort/internal/config"
	"catsort/internal/errors"
	"catsort/internal/history"
	"catsort/internal/log"
	"catsort/internal/organize"
	"catsort/internal/store"
	"catsort/pkg/types"

	"github.com/spf13/cobra"
)

// app carries the state every subcommand shares. It is filled in by the
// root command's PersistentPreRunE.
type app struct {
	cfgFile  string
	debug    bool
	jsonLogs bool

	settings *config.Config
	logger   *log.Logger
	store    *store.FileStore
	history  *history.DB
	engine   *organize.Engine
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return (&app{}).rootCmd()
}

// Execute runs the root command. Cobra skips PersistentPostRun when a
// command fails, so the history db and log file are released here.
func Execute() error {
	a := &app{}
	return a.run(a.rootCmd())
}

func (a *app) run(cmd *cobra.Command) error {
	defer a.close()
	return cmd.Execute()
}

func (a *app) rootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "catsort",
		Short: "Sort directories into category folders by file extension",
		Long: `catsort keeps directories tidy. Each managed directory has a set of
categories, each owning a list of extensions; organizing moves every file in
the directory root into its category folder. Dot-files go to .hidden and
anything unmatched to Uncategorized.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return a.setup(cmd) },
		PersistentPostRun: func(cmd *cobra.Command, args []string) { a.close() },
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "config file (default is $HOME/.config/catsort/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&a.debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&a.jsonLogs, "json-logs", false, "log one JSON object per line")

	// Directory configs
	rootCmd.AddCommand(a.listCmd())
	rootCmd.AddCommand(a.showCmd())
	rootCmd.AddCommand(a.createCmd())
	rootCmd.AddCommand(a.deleteCmd())
	rootCmd.AddCommand(a.activeCmd("enable", true))
	rootCmd.AddCommand(a.activeCmd("disable", false))
	rootCmd.AddCommand(a.moveCmd())
	rootCmd.AddCommand(a.ignoreCmd())
	rootCmd.AddCommand(a.templatesCmd())
	rootCmd.AddCommand(a.categoryCmd())
	rootCmd.AddCommand(a.scheduleCmd())

	// Runs
	rootCmd.AddCommand(a.organizeCmd())
	rootCmd.AddCommand(a.resetCmd())
	rootCmd.AddCommand(a.pendingCmd())
	rootCmd.AddCommand(a.inspectCmd())
	rootCmd.AddCommand(a.historyCmd())
	rootCmd.AddCommand(a.pipelineCmd())
	rootCmd.AddCommand(a.daemonCmd())

	return rootCmd
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.cfgFile != "" {
		a.settings, err = config.LoadConfigFile(a.cfgFile)
	} else {
		a.settings, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	opts := []log.Option{log.WithOutput(cmd.ErrOrStderr()), log.WithLevel(a.settings.Logging.Level)}
	log.SetDebug(a.debug)
	if a.jsonLogs || a.settings.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	if a.settings.Logging.File != "" {
		opts = append(opts, log.WithFile(a.settings.Logging.File))
	}
	a.logger = log.NewLogger(opts...)

	a.store, err = store.Open(a.settings.Store.Directory, a.logger)
	if err != nil {
		return err
	}
	a.history, err = openHistory(a.settings, a.logger)
	if err != nil {
		return err
	}
	a.engine = organize.New(a.engineOptions()...)
	return nil
}

// engineOptions are the options every engine built by the CLI shares.
func (a *app) engineOptions(extra ...organize.Option) []organize.Option {
	opts := []organize.Option{organize.WithLogger(a.logger)}
	if a.history != nil {
		opts = append(opts, organize.WithRecorder(a.history))
	}
	return append(opts, extra...)
}

// close may run twice: once from PersistentPostRun and once from run.
func (a *app) close() {
	if a.history != nil {
		a.history.Close()
		a.history = nil
	}
	if a.logger != nil {
		a.logger.Close()
		a.logger = nil
	}
}

// openHistory opens the run log and prunes runs past retention. It returns
// nil when history is disabled.
func openHistory(settings *config.Config, logger log.Logging) (*history.DB, error) {
	if settings.History.Disabled {
		return nil, nil
	}
	h, err := history.Open(settings.History.Path, logger)
	if err != nil {
		return nil, err
	}
	if days := settings.History.RetentionDays; days > 0 {
		if n, err := h.Prune(time.Now().AddDate(0, 0, -days)); err != nil {
			logger.With(log.ErrorFields(err)...).Warn("Failed to prune history")
		} else if n > 0 {
			logger.Debugf("Pruned %d runs older than %d days", n, days)
		}
	}
	return h, nil
}

// dirArg turns a command-line directory into the absolute path configs are
// keyed by.
func dirArg(arg string) (string, error) {
	dir, err := types.ExpandPath(arg)
	if err != nil {
		return "", err
	}
	return filepath.Clean(dir), nil
}

// lookup resolves a directory argument and fetches its config.
func (a *app) lookup(arg string) (*types.Config, error) {
	dir, err := dirArg(arg)
	if err != nil {
		return nil, err
	}
	cfg, err := a.store.Get(dir)
	if errors.IsNotFound(err) {
		return nil, fmt.Errorf("%s is not managed, run 'catsort create %s' first: %w", dir, dir, err)
	}
	return cfg, err
}
