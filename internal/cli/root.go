package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
	"github.com/sbenjam1n/clientintake/internal/config"
	"github.com/sbenjam1n/clientintake/internal/db"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/spf13/cobra"
)

var (
	cfg     *config.Config
	rootCmd = &cobra.Command{
		Use:   "intake",
		Short: "Client intake: a sectioned contract form with progressive unlocking",
		Long: `intake serves and fills the client contract form. Sections unlock one at a
time as the previous section is completed; the form can be submitted once
every required section is complete and the contract is signed.

Run the API:
  intake serve

Fill the form from a terminal:
  intake fill --signature signature.png`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(sectionsCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(fillCmd)
	rootCmd.AddCommand(queueCmd)
	rootCmd.AddCommand(relayCmd)
	rootCmd.AddCommand(submissionsCmd)
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(cfg.Logger())
}

func loadSchema() (*form.Schema, error) {
	schema, err := form.LoadSchemaOrDefault(cfg.SchemaFile)
	if err != nil {
		return nil, fmt.Errorf("%w\nCheck INTAKE_SCHEMA_FILE", err)
	}
	return schema, nil
}

// openStore connects to the configured database: SQLite for sqlite:/file: URLs,
// PostgreSQL otherwise.
func openStore(ctx context.Context) (store.Store, error) {
	if store.IsSQLiteURL(cfg.DatabaseURL) {
		s, err := store.OpenSQLite(ctx, store.SQLitePath(cfg.DatabaseURL))
		if err != nil {
			return nil, fmt.Errorf("%w\nSet INTAKE_DATABASE_URL environment variable", err)
		}
		return s, nil
	}
	pool, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("%w\nSet INTAKE_DATABASE_URL environment variable", err)
	}
	return store.NewPostgres(pool), nil
}

func connectRedis() (*redis.Client, error) {
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("no redis configured\nSet INTAKE_REDIS_URL environment variable")
	}
	rdb, err := queue.ConnectRedis(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("%w\nSet INTAKE_REDIS_URL environment variable", err)
	}
	return rdb, nil
}

func migrationsDir() string {
	wd, err := os.Getwd()
	if err != nil {
		return "migrations"
	}
	return filepath.Join(wd, "migrations")
}
