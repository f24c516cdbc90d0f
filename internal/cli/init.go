package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/sbenjam1n/clientintake/internal/db"
	"github.com/sbenjam1n/clientintake/internal/form"
	"github.com/sbenjam1n/clientintake/internal/queue"
	"github.com/sbenjam1n/clientintake/internal/store"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var (
	minimal       bool
	schemaOut     string
	migrationsArg string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize an intake deployment",
	Long:  "Initialize deployment: starter schema file, database schema, Redis notification stream",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		if _, err := os.Stat(schemaOut); os.IsNotExist(err) {
			data, err := yaml.Marshal(form.DefaultSchema())
			if err != nil {
				return fmt.Errorf("encode default schema: %w", err)
			}
			if err := os.WriteFile(schemaOut, data, 0644); err != nil {
				return fmt.Errorf("create %s: %w", schemaOut, err)
			}
			fmt.Printf("Created %s (point INTAKE_SCHEMA_FILE at it to customise sections)\n", schemaOut)
		} else {
			fmt.Printf("%s already exists\n", schemaOut)
		}

		if minimal {
			fmt.Println("\nMinimal init complete. Run 'intake init' (without --minimal) to set up the database and Redis.")
			return nil
		}

		if store.IsSQLiteURL(cfg.DatabaseURL) {
			fmt.Println("Opening SQLite database...")
			s, err := store.OpenSQLite(ctx, store.SQLitePath(cfg.DatabaseURL))
			if err != nil {
				return fmt.Errorf("database setup failed: %w", err)
			}
			s.Close()
			fmt.Println("SQLite schema created")
		} else {
			fmt.Println("Connecting to PostgreSQL...")
			pool, err := db.Connect(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("database connection failed: %w", err)
			}
			defer pool.Close()

			fmt.Println("Running migrations...")
			if err := db.Migrate(ctx, pool, migrationsArg); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("PostgreSQL schema created")
		}

		if cfg.RedisURL == "" {
			fmt.Println("INTAKE_REDIS_URL not set; notifications will be sent inline")
		} else {
			fmt.Println("Connecting to Redis...")
			rdb, err := connectRedis()
			if err != nil {
				return fmt.Errorf("redis connection failed: %w", err)
			}
			defer rdb.Close()

			if err := queue.New(rdb).EnsureStreams(ctx); err != nil {
				return fmt.Errorf("redis stream setup failed: %w", err)
			}
			fmt.Println("Redis notification stream created")
		}

		fmt.Println("\nIntake initialized successfully.")
		fmt.Println("Next steps:")
		fmt.Println("  1. Run: intake serve")
		if cfg.RedisURL != "" {
			fmt.Println("  2. Run: intake relay run")
		}
		return nil
	},
}

func init() {
	initCmd.Flags().BoolVar(&minimal, "minimal", false, "Only write the starter schema file")
	initCmd.Flags().StringVar(&schemaOut, "schema", "intake-schema.yaml", "Path of the starter schema file")
	initCmd.Flags().StringVar(&migrationsArg, "migrations", migrationsDir(), "PostgreSQL migrations directory")
}
