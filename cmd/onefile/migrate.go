package main

import (
	"github.com/spf13/cobra"
	"github.com/zots0127/onefile/internal/domain/entities"
	"github.com/zots0127/onefile/internal/infrastructure/repository"
	"go.uber.org/zap"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the database tables",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := loadEnvironment(opts)
			if err != nil {
				return err
			}
			defer env.logger.Sync()

			db, err := env.openDatabase(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			column := env.config.Attachment(entities.DocumentCollection).FileColumn
			docs, err := repository.NewDocumentRepository(db, column, env.logger)
			if err != nil {
				return err
			}
			if err := docs.Migrate(cmd.Context()); err != nil {
				return err
			}

			env.logger.Info("database migrated",
				zap.String("database", env.config.Database.Path),
				zap.String("table", docs.Table()))
			return nil
		},
	}
}
