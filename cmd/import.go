package cmd

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/jjenkins/husbandry/internal/config"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/store"
	"github.com/spf13/cobra"
)

var importFile string

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Import portal content from a JSON bundle",
	Long: `Import loads schemes, livestock prices, training workshops and
veterinary services from a JSON bundle into the SQL database.

The bundle is an object keyed by table name, each holding an array of
records. Records are upserted by id, so importing the same bundle twice
leaves the database unchanged. Invalid records are reported and skipped.

Examples:
  # Import a bundle
  ./husbandry import --file seed.json

  # Import into a local SQLite database
  DB_DRIVER=sqlite DATABASE_URL=portal.db ./husbandry import -f seed.json`,
	Run: runImport,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVarP(&importFile, "file", "f", "", "Path to the JSON bundle")
	_ = importCmd.MarkFlagRequired("file")
}

func runImport(cmd *cobra.Command, args []string) {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	if cfg.DataSource != config.SourceSQL {
		log.Fatal("import requires DATA_SOURCE=sql")
	}

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle interrupt signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		log.Println("\nReceived interrupt signal, shutting down...")
		cancel()
	}()

	log.Println("Connecting to database...")
	db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	importer := service.NewImporter(service.NewParser(), store.NewSQLSource(db))

	stats, err := importer.ImportFile(ctx, importFile)
	if err != nil {
		if ctx.Err() != nil {
			log.Println("Import cancelled")
			importer.PrintSummary(stats)
			os.Exit(1)
		}
		log.Fatalf("Import failed: %v", err)
	}
	importer.PrintSummary(stats)

	if stats.Failed() > 0 {
		os.Exit(1)
	}
}
