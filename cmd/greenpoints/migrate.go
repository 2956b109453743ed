package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dukerupert/greenpoints/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending schema migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, err := openDB()
		if err != nil {
			return err
		}
		defer db.Close()

		version, err := database.Version(db)
		if err != nil {
			return err
		}
		logger.Info("migrations applied", "db", cfg.DBPath, "version", version)
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
