package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/showgate/showgate/internal/cli"
	"github.com/showgate/showgate/store/postgres"
)

var migrateDB string

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply storage schema to database",
	Long: `Apply the showgate storage schema to a PostgreSQL database.

The schema is idempotent: every statement is CREATE IF NOT EXISTS, so the
command is safe to run repeatedly.`,
	Example: `  # Apply schema to database
  showgate migrate --db postgres://localhost/cards`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dsn, err := resolveDSN(migrateDB)
		if err != nil {
			return err
		}
		return runMigrate(dsn)
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateDB, "db", "", "database URL")
}

func runMigrate(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()

	if !quiet {
		fmt.Println("Applying storage schema...")
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		return cli.GeneralError("migration failed", err)
	}

	present, missing, err := postgres.SchemaStatus(ctx, db)
	if err != nil {
		return cli.GeneralError("checking schema status", err)
	}
	if len(missing) > 0 {
		return cli.GeneralError(fmt.Sprintf("still missing %d table(s) after migrate", len(missing)), nil)
	}
	if !quiet {
		fmt.Printf("Schema applied, %d tables present.\n", len(present))
	}
	return nil
}
