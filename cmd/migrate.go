package cmd

import (
	"context"
	"log"
	"time"

	"github.com/jjenkins/husbandry/internal/config"
	"github.com/jjenkins/husbandry/internal/store"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the portal tables",
	Long: `Migrate creates the schemes, livestock_prices, veterinary_services,
training_workshops, workshop_enrollments, users and sessions tables.
It is safe to run more than once.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}
		if cfg.DataSource != config.SourceSQL {
			log.Fatal("migrate requires DATA_SOURCE=sql")
		}

		db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer db.Close()

		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()

		if err := store.Migrate(ctx, db); err != nil {
			log.Fatalf("Migration failed: %v", err)
		}
		log.Println("Schema is up to date")
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
