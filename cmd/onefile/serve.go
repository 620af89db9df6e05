package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/zots0127/onefile/pkg/config"
	"github.com/zots0127/onefile/pkg/logger"
	"github.com/zots0127/onefile/pkg/storage"
	"github.com/zots0127/onefile/pkg/web"
	"go.uber.org/zap"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.logger.Sync()
			return serve(cmd.Context(), env)
		},
	}
}

func serve(ctx context.Context, env *environment) error {
	log := env.logger
	cfg := env.config

	env.manager.Watch(func(next *config.Config) {
		if err := logger.SetLevel(env.level, next.Logging.Level); err != nil {
			log.Warn("log level not changed", zap.Error(err))
			return
		}
		log.Info("log level updated", zap.String("level", env.level.String()))
	})
	if env.manager.ConfigPath() != "" {
		watcher, err := config.NewConfigWatcher(env.manager, log)
		if err == nil {
			err = watcher.Start()
		}
		if err != nil {
			log.Warn("configuration changes will not be reloaded", zap.Error(err))
		} else {
			defer watcher.Stop()
		}
	}

	disks, err := storage.NewManagerFromConfig(cfg.Storage.Default, cfg.Storage.Disks)
	if err != nil {
		return err
	}

	db, err := env.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	server, err := web.NewServer(ctx, web.Options{
		Config:        cfg,
		ConfigManager: env.manager,
		DB:            db,
		Disks:         disks,
		Logger:        log,
		Version:       version,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Run() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}
