package main

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"vmtracker/cmd/migration/initialize"
	"vmtracker/cmd/migration/seed"
	"vmtracker/config"
	"vmtracker/internal/database"

	logger "github.com/Bparsons0904/goLogger"
	_ "github.com/lib/pq"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/spf13/cobra"
)

const (
	MIGRATION_PATH = "cmd/migration/migrations"
	MIGRATION_DB   = "postgres"
)

func main() {
	log := logger.New("migrations").Function("main")

	rootCmd := &cobra.Command{
		Use:           "migration",
		Short:         "Manage the vmtracker database schema",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(upCmd(), downCmd(), seedCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Er("failed to run migrations", err)
		os.Exit(1)
	}

	log.Info("Migrations complete")
}

func upCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "up",
		Short: "Create tables, apply file migrations and load reference data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, config, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			return migrateUp(db, config, logger.New("migrations"))
		},
	}
}

func downCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "down [steps]",
		Short: "Roll back file migrations",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			steps := 1
			if len(args) == 1 {
				var err error
				steps, err = strconv.Atoi(args[0])
				if err != nil || steps < 1 {
					return fmt.Errorf("invalid step count %q", args[0])
				}
			}

			config, err := config.New()
			if err != nil {
				return err
			}

			return migrateDown(steps, config, logger.New("migrations"))
		},
	}
}

func seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Drop every table, migrate up and load development data",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, config, err := open()
			if err != nil {
				return err
			}
			defer db.Close()

			return migrateSeed(db, config, logger.New("migrations"))
		},
	}
}

func open() (database.DB, config.Config, error) {
	log := logger.New("migrations").Function("open")

	config, err := config.New()
	if err != nil {
		return database.DB{}, config, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return database.DB{}, config, log.Err("failed to create database", err)
	}

	if db.SQL == nil {
		return database.DB{}, config, log.Error(
			"migrations need a SQL driver",
			"driver", config.DatabaseDriver,
		)
	}

	return db, config, nil
}

func migrateUp(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateUp")
	log.Info("Running migrations up")

	if err := database.MigrateModels(db.SQL, log); err != nil {
		return log.Err("failed to auto migrate", err)
	}

	if err := runMigrations(config, log, migrate.Up, 0); err != nil {
		return log.Err("failed to run migrations", err)
	}

	if err := initialize.InitializeTables(db.SQL, config, log); err != nil {
		return log.Err("failed to initialize tables", err)
	}

	return nil
}

func migrateDown(steps int, config config.Config, log logger.Logger) error {
	log = log.Function("migrateDown")
	log.Info("Running migrations down", "steps", steps)

	if err := runMigrations(config, log, migrate.Down, steps); err != nil {
		return log.Err("failed to run migrations", err)
	}

	return nil
}

func migrateSeed(db database.DB, config config.Config, log logger.Logger) error {
	log = log.Function("migrateSeed")
	log.Info("Running seed")

	if config.DatabaseDriver == MIGRATION_DB {
		if err := runMigrations(config, log, migrate.Down, 0); err != nil {
			return log.Err("failed to roll back file migrations", err)
		}
	}

	if err := database.DropModels(db.SQL, log); err != nil {
		return log.Err("failed to clean database", err)
	}

	if err := db.FlushAllCaches(); err != nil {
		return log.Err("failed to flush cache databases", err)
	}

	if err := migrateUp(db, config, log); err != nil {
		return log.Err("failed to migrate up", err)
	}

	log.Info("Seeding database")
	if err := seed.Seed(db.SQL, config, log); err != nil {
		return log.Err("failed to seed database", err)
	}

	return nil
}

// runMigrations applies the SQL files in MIGRATION_PATH. They hold postgres
// check constraints, so other drivers skip them. A limit of 0 runs every
// migration in the given direction.
func runMigrations(
	config config.Config,
	log logger.Logger,
	direction migrate.MigrationDirection,
	limit int,
) error {
	log = log.Function("runMigrations")

	if config.DatabaseDriver != MIGRATION_DB {
		log.Info("File migrations target postgres, skipping", "driver", config.DatabaseDriver)
		return nil
	}

	if _, err := os.Stat(MIGRATION_PATH); os.IsNotExist(err) {
		log.Info("Migrations directory does not exist, skipping file-based migrations")
		return nil
	}

	files, err := filepath.Glob(filepath.Join(MIGRATION_PATH, "*.sql"))
	if err != nil {
		return log.Err("failed to check for migration files", err)
	}

	if len(files) == 0 {
		log.Info("No migration files found, skipping file-based migrations")
		return nil
	}

	migrations := &migrate.FileMigrationSource{
		Dir: MIGRATION_PATH,
	}

	db, err := sql.Open(MIGRATION_DB, database.PostgresDSN(config))
	if err != nil {
		return log.Err("failed to open database for migrations", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			log.Er("failed to close database", closeErr)
		}
	}()

	n, err := migrate.ExecMax(db, MIGRATION_DB, migrations, direction, limit)
	if err != nil {
		return log.Err("failed to run migrations", err)
	}

	if n == 0 {
		log.Info("No migrations to apply")
	} else {
		log.Info("Applied migrations", "migrationCount", n)
	}

	return nil
}
