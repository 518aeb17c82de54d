package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fadilmartias/job-matcher/internal/config"
	"github.com/fadilmartias/job-matcher/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Install extensions, create tables and build the vector indexes",
	RunE: func(cmd *cobra.Command, _ []string) error {
		log, err := newLogger()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.Connect(config.LoadDBConfig(), config.LoadAppConfig(), log)
		if err != nil {
			return err
		}
		if sqlDB, err := db.DB(); err == nil {
			defer sqlDB.Close()
		}

		if err := database.Migrate(cmd.Context(), db, log); err != nil {
			log.Error("migration failed", zap.Error(err))
			return err
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
