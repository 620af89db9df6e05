package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zots0127/onefile/internal/infrastructure/repository"
	"github.com/zots0127/onefile/pkg/config"
	"github.com/zots0127/onefile/pkg/logger"
	"go.uber.org/zap"
)

type rootOptions struct {
	configPath string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "onefile",
		Short:         "Documents with a single attached file",
		Long:          "onefile stores one file per document on a configurable local, S3 or in-memory disk.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "configuration file (YAML)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMigrateCommand(opts),
		newVersionCommand(),
	)
	return cmd
}

// environment is what every command starts from: the loaded configuration
// and a logger whose level follows configuration reloads.
type environment struct {
	manager *config.ConfigManager
	config  *config.Config
	logger  *zap.Logger
	level   zap.AtomicLevel
}

func loadEnvironment(opts *rootOptions) (*environment, error) {
	manager := config.NewConfigManager()
	cfg, err := manager.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, level, err := logger.NewWithLevel(cfg.Logging.Logger())
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	manager.SetLogger(log)

	return &environment{
		manager: manager,
		config:  cfg,
		logger:  log,
		level:   level,
	}, nil
}

func (e *environment) openDatabase(ctx context.Context) (*sql.DB, error) {
	db, err := repository.OpenSQLite(ctx, repository.SQLiteConfig{
		Path:            e.config.Database.Path,
		MaxOpenConns:    e.config.Database.MaxOpenConns,
		MaxIdleConns:    e.config.Database.MaxIdleConns,
		ConnMaxLifetime: e.config.Database.ConnMaxLifetime,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}
