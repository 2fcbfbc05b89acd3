package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"catsort/internal/config"
	"catsort/internal/errors"
	"catsort/internal/history"
	"catsort/internal/log"
	"catsort/internal/metrics"
	"catsort/internal/organize"
	"catsort/internal/store"
	"catsort/internal/watch"
	"catsort/pkg/types"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "catsort daemon: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := os.Getenv("CATSORT_CONFIG")
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadConfigFile(path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return err
	}

	opts := []log.Option{log.WithLevel(cfg.Logging.Level)}
	if cfg.Logging.JSON {
		opts = append(opts, log.WithJSON())
	}
	if cfg.Logging.File != "" {
		opts = append(opts, log.WithFile(cfg.Logging.File))
	}
	logger := log.NewLogger(opts...)
	defer logger.Close()

	st, err := store.Open(cfg.Store.Directory, logger)
	if err != nil {
		return err
	}
	if len(st.List()) == 0 {
		logger.Warn("No directories configured yet, waiting for 'catsort create'")
	}

	recorder := metrics.NewRecorder()
	engineOpts := []organize.Option{organize.WithLogger(logger), organize.WithRecorder(recorder)}
	if !cfg.History.Disabled {
		h, err := history.Open(cfg.History.Path, logger)
		if err != nil {
			return err
		}
		defer h.Close()
		if days := cfg.History.RetentionDays; days > 0 {
			if _, err := h.Prune(time.Now().AddDate(0, 0, -days)); err != nil {
				logger.With(log.ErrorFields(err)...).Warn("Failed to prune history")
			}
		}
		engineOpts = append(engineOpts, organize.WithRecorder(h))
	}
	engine := organize.New(engineOpts...)
	daemon := watch.NewDaemon(cfg, st, engine, logger, watch.WithRecorder(recorder))
	daemon.SetCallback(func(res types.OrganizeResult) {
		if !res.OK() {
			logger.With(log.F("directory", res.Directory), log.F("filter", res.Filter)).Error("Scheduled run failed")
		}
	})

	// Setup signal catching for clean shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := daemon.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	status := daemon.Status()
	logger.With(log.F("runs", status.Runs), log.F("failures", status.Failures), log.F("files", status.FilesProcessed)).Info("Daemon exited")
	return nil
}
