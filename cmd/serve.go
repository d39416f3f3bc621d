package cmd

import (
	"context"
	"log"
	"time"

	"github.com/jjenkins/husbandry/internal/auth"
	"github.com/jjenkins/husbandry/internal/config"
	"github.com/jjenkins/husbandry/internal/handlers"
	"github.com/jjenkins/husbandry/internal/service"
	"github.com/jjenkins/husbandry/internal/store"
	"github.com/jjenkins/husbandry/internal/supabase"
	"github.com/spf13/cobra"
)

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the animal husbandry portal web server",
	Long: `Start the web server for the portal. Content and sessions come from
the SQL database (DATA_SOURCE=sql) or a hosted Supabase project
(DATA_SOURCE=supabase).`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			log.Fatalf("Invalid configuration: %v", err)
		}

		// Use PORT env var if set, otherwise use flag value
		if port == "8080" {
			port = cfg.Port
		}

		var (
			source   store.Source
			provider auth.Provider
		)
		switch cfg.DataSource {
		case config.SourceSupabase:
			client := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseAnonKey)
			source = client
			provider = supabase.NewAuthProvider(client)
			log.Printf("Using Supabase project at %s", cfg.SupabaseURL)
		default:
			db, err := store.NewDB(cfg.DBDriver, cfg.DatabaseURL)
			if err != nil {
				log.Fatalf("Failed to connect to database: %v", err)
			}
			defer db.Close()

			if cfg.DBDriver == "sqlite" {
				if err := store.Migrate(context.Background(), db); err != nil {
					log.Fatalf("Migration failed: %v", err)
				}
			}

			src := store.NewSQLSource(db)
			source = src
			provider = auth.NewLocalProvider(src.Users, cfg.SessionTTL)
			go sweepSessions(src.Users, time.Hour)
		}

		visits := handlers.NewVisits(cfg.VisitTTL)
		metrics := service.NewMetrics(func() float64 { return float64(visits.Len()) })

		app := handlers.NewApp(handlers.Deps{
			Source:        source,
			Auth:          auth.NewCachedProvider(provider, cfg.IdentityTTL),
			Metrics:       metrics,
			Visits:        visits,
			LoginURL:      cfg.LoginURL,
			SessionCookie: cfg.SessionCookie,
			SecureCookies: cfg.SecureCookies,
			CORSOrigins:   cfg.CORSOrigins,
			RequestLog:    true,
		})

		log.Printf("Starting server on :%s", port)
		if err := app.Listen(":" + port); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	},
}

// sweepSessions deletes expired sessions every interval
func sweepSessions(users *store.UserStore, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for range ticker.C {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		n, err := users.DeleteExpiredSessions(ctx, time.Now())
		cancel()
		if err != nil {
			log.Printf("Error sweeping sessions: %v", err)
			continue
		}
		if n > 0 {
			log.Printf("Removed %d expired sessions", n)
		}
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "8080", "Port to run the server on")
}
