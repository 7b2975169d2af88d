package main

import (
	"errors"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(migrateCmd)
}

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema",
	Long: `Run AutoMigrate for users, refresh tokens, device tokens and items.

Examples:
  # Migrate the database named by DATABASE_URL
  lifeos migrate`,
	Args: cobra.NoArgs,
	RunE: runMigrate,
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if memoryStore {
		return errors.New("migrate needs a database; drop --memory")
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// newApp migrates on open
	a, err := newApp(cfg, false)
	if err != nil {
		return err
	}
	defer a.close()

	log.Info().Msg("[Migrate] Schema is up to date")
	return nil
}
