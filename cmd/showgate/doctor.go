package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/showgate/showgate"
	"github.com/showgate/showgate/internal/cli"
	"github.com/showgate/showgate/store/postgres"
)

var (
	doctorDB      string
	doctorVerbose bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Run health checks",
	Long: `Run health checks on an authorization deployment.

Doctor validates the policy dependency manifest, connects to the database,
and reports which storage tables are present.`,
	Example: `  # Run health checks
  showgate doctor --db postgres://localhost/cards

  # Run with verbose output
  showgate doctor --db postgres://localhost/cards --verbose`,
	RunE: func(cmd *cobra.Command, args []string) error {
		verboseFlag := resolveBool(doctorVerbose, cfg.Doctor.Verbose, verbose > 0)

		dsn, err := resolveDSN(doctorDB)
		if err != nil {
			return err
		}

		return runDoctor(dsn, verboseFlag)
	},
}

func init() {
	f := doctorCmd.Flags()
	f.StringVar(&doctorDB, "db", "", "database URL")
	f.BoolVar(&doctorVerbose, "verbose", false, "show detailed output")
}

func runDoctor(dsn string, verboseFlag bool) error {
	if !quiet {
		fmt.Println("showgate doctor - Health Check")
	}

	// The manifest check needs no database and runs first: a recursive
	// dependency is a build defect, not a deployment one.
	if err := showgate.ValidatePortGraph(); err != nil {
		return cli.GeneralError("policy dependency manifest", err)
	}
	if !quiet {
		fmt.Println("  policy manifest: ok")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	if err := db.PingContext(ctx); err != nil {
		return cli.DBConnectError("pinging database", err)
	}
	if !quiet {
		fmt.Println("  database: reachable")
	}

	present, missing, err := postgres.SchemaStatus(ctx, db)
	if err != nil {
		return cli.GeneralError("checking schema status", err)
	}

	if verboseFlag && !quiet {
		for _, t := range present {
			fmt.Printf("  table %s: present\n", t)
		}
	}
	for _, t := range missing {
		fmt.Printf("  table %s: MISSING\n", t)
	}

	if len(missing) > 0 {
		return cli.GeneralError(
			fmt.Sprintf("%d table(s) missing, run `showgate migrate`", len(missing)), nil)
	}
	if !quiet {
		fmt.Printf("  schema: %d tables present\n", len(present))
	}
	return nil
}
