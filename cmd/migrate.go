package cmd

import (
	"context"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/spf13/cobra"
)

var (
	migrateCmd = &cobra.Command{
		RunE:  runMigration,
		Use:   "migrate",
		Short: "to run state db migration files under db/migrations directory",
	}
	migrateRollback bool
	migrateDir      string
)

func init() {
	migrateCmd.Flags().BoolVarP(&migrateRollback, "rollback", "r", false, "to rollback the latest version of sql migration")
	migrateCmd.PersistentFlags().StringVarP(&migrateDir, "dir", "d", "db/migrations", "sql migrations directory")
}

// sqlDriverFor maps the storage driver onto the database/sql driver name
// goose and sqlx open with.
func sqlDriverFor(storageDriver string) (string, error) {
	switch storageDriver {
	case "sqlite":
		return "sqlite3", nil
	case "postgres":
		return "pgx", nil
	}
	return "", fmt.Errorf("storage driver %q has no migratable database", storageDriver)
}

func runMigration(_ *cobra.Command, _ []string) error {
	ctx := context.Background()
	cfg, err := loadConfig(".")
	if err != nil {
		log.Fatal(err)
	}

	driver, err := sqlDriverFor(cfg.Storage.Driver)
	if err != nil {
		return err
	}

	db, err := sqlx.Connect(driver, cfg.Storage.GetDSN())
	if err != nil {
		log.Fatalf("goose: failed to open DB: %v\n", err)
	}
	defer db.Close()

	goose.SetTableName("schema_migrations")

	direction := "up"
	if migrateRollback {
		direction = "down"
	}
	if err := goose.RunContext(ctx, direction, db.DB, migrateDir); err != nil {
		log.Fatalf("goose %s: %v", direction, err)
	}

	return nil
}
