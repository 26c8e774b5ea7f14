package main

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/curasync/ehr/internal/config"
	"github.com/curasync/ehr/internal/platform/db"
	"github.com/curasync/ehr/internal/platform/kv"
	"github.com/curasync/ehr/internal/platform/sandbox"
	"github.com/curasync/ehr/migrations"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "curasync-server",
		Short:        "CuraSync EHR API server",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(seedCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func newLogger(env string) zerolog.Logger {
	if env == "development" {
		return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openStore returns the configured key-value backend. The pool is nil for
// the memory driver; callers close it when it is not.
func openStore(ctx context.Context, cfg *config.Config) (kv.Store, *pgxpool.Pool, error) {
	if cfg.StoreDriver != config.StorePostgres {
		return kv.NewMemoryStore(), nil, nil
	}
	pool, err := openPool(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return kv.NewPGStore(pool), pool, nil
}

func openPool(ctx context.Context, cfg *config.Config) (*pgxpool.Pool, error) {
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	return db.NewPool(ctx, db.PoolConfig{
		URL:      cfg.DatabaseURL,
		MaxConns: cfg.DBMaxConns,
		MinConns: cfg.DBMinConns,
		Schema:   cfg.DBSchema,
	})
}

func migrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Manage the PostgreSQL key-value table",
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema := schemaFlag(cmd, cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			if err := db.EnsureSchema(ctx, pool, schema); err != nil {
				return err
			}
			migrator := db.NewMigrator(pool, migrations.FS)
			fmt.Printf("Running migrations on schema: %s\n", schema)

			count, err := migrator.Up(ctx, schema)
			if err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}

			fmt.Printf("Applied %d migration(s) successfully.\n", count)
			return nil
		},
	}
	upCmd.Flags().String("schema", "", "Target schema for migrations (default DB_SCHEMA)")
	cmd.AddCommand(upCmd)

	statusCmd := &cobra.Command{
		Use:   "status",
		Short: "Show migration status",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			schema := schemaFlag(cmd, cfg)

			ctx := context.Background()
			pool, err := openPool(ctx, cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			statuses, err := db.NewMigrator(pool, migrations.FS).Status(ctx, schema)
			if err != nil {
				return fmt.Errorf("failed to get migration status: %w", err)
			}

			fmt.Printf("Migration status for schema: %s\n", schema)
			fmt.Printf("%-10s %-40s %-10s %s\n", "VERSION", "NAME", "STATUS", "APPLIED AT")
			fmt.Println("---------- ---------------------------------------- ---------- --------------------")
			for _, s := range statuses {
				status := "pending"
				appliedAt := ""
				if s.Applied {
					status = "applied"
					if s.AppliedAt != nil {
						appliedAt = s.AppliedAt.Format("2006-01-02 15:04:05")
					}
				}
				fmt.Printf("%-10d %-40s %-10s %s\n", s.Version, s.Name, status, appliedAt)
			}
			return nil
		},
	}
	statusCmd.Flags().String("schema", "", "Target schema for migrations (default DB_SCHEMA)")
	cmd.AddCommand(statusCmd)

	return cmd
}

// schemaFlag returns --schema when given, otherwise the configured schema.
func schemaFlag(cmd *cobra.Command, cfg *config.Config) string {
	if schema, _ := cmd.Flags().GetString("schema"); schema != "" {
		return schema
	}
	if cfg.DBSchema != "" {
		return cfg.DBSchema
	}
	return "public"
}

func seedCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load the demo users, appointments, records and availability",
	}

	run := func(reset bool) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		logger := newLogger(cfg.Env)

		ctx := context.Background()
		store, pool, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		if pool != nil {
			defer pool.Close()
		}

		seeder := sandbox.NewSeeder(store, logger)
		var res *sandbox.SeedResult
		if reset {
			res, err = seeder.Reset(ctx)
		} else {
			res, err = seeder.Initialize(ctx)
		}
		if err != nil {
			return err
		}
		printSeedResult(res)
		return nil
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Seed demo data unless already initialized",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(false)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "reset",
		Short: "Restore the demo data to its original values",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(true)
		},
	})
	return cmd
}

func printSeedResult(res *sandbox.SeedResult) {
	if !res.Seeded {
		fmt.Println("Store already initialized; nothing to do.")
		return
	}
	fmt.Printf("Seeded %d users, %d appointments, %d medical records, %d availability entries.\n",
		res.Users, res.Appointments, res.MedicalRecords, res.Availability)
}
