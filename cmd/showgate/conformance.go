package main

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/showgate/showgate/conformance"
	"github.com/showgate/showgate/internal/cli"
	"github.com/showgate/showgate/store/postgres"
)

var (
	conformanceSuites  string
	conformanceDB      string
	conformanceVerbose bool
)

var conformanceCmd = &cobra.Command{
	Use:   "conformance",
	Short: "Run the policy conformance suites",
	Long: `Run the policy conformance suites.

By default the builtin suites run against a fresh in-memory store seeded from
each suite's fixture. With --db the checks evaluate against a live database
instead; the caller is responsible for loading the fixture rows, and insert
checks are skipped because they need a draft row from the in-memory store.`,
	Example: `  # Run the builtin suites in memory
  showgate conformance

  # Run suites from a directory
  showgate conformance --suites ./policy-suites

  # Evaluate against a live database
  showgate conformance --db postgres://localhost/cards`,
	RunE: func(cmd *cobra.Command, args []string) error {
		suitesDir := cfg.ResolvedSuitesDir(conformanceSuites)
		verboseFlag := resolveBool(conformanceVerbose, cfg.Conformance.Verbose, verbose > 0)

		var (
			suites []conformance.Suite
			err    error
		)
		if suitesDir != "" {
			suites, err = conformance.LoadSuites(suitesDir)
		} else {
			suites, err = conformance.BuiltinSuites()
		}
		if err != nil {
			return cli.SuiteParseError("loading suites", err)
		}

		if conformanceDB == "" && cfg.Database.URL == "" && cfg.Database.Host == "" {
			return runConformanceMemory(suites, verboseFlag)
		}

		dsn, err := resolveDSN(conformanceDB)
		if err != nil {
			return err
		}
		return runConformanceDB(dsn, suites, verboseFlag)
	},
}

func init() {
	f := conformanceCmd.Flags()
	f.StringVar(&conformanceSuites, "suites", "", "directory of suite YAML files (default: builtin suites)")
	f.StringVar(&conformanceDB, "db", "", "database URL to evaluate against")
	f.BoolVar(&conformanceVerbose, "verbose", false, "print every suite result")
}

func runConformanceMemory(suites []conformance.Suite, verboseFlag bool) error {
	ctx := context.Background()
	var results []conformance.Result
	for _, suite := range suites {
		res, err := conformance.Run(ctx, suite)
		if err != nil {
			return cli.GeneralError(fmt.Sprintf("running suite %q", suite.Name), err)
		}
		results = append(results, res)
	}
	return reportConformance(results, verboseFlag)
}

func runConformanceDB(dsn string, suites []conformance.Suite, verboseFlag bool) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return cli.DBConnectError("connecting to database", err)
	}
	defer func() { _ = db.Close() }()

	ctx := context.Background()
	ports := postgres.NewStore(db).Ports()

	var results []conformance.Result
	for _, suite := range suites {
		res, err := conformance.RunAgainst(ctx, suite, ports)
		if err != nil {
			return cli.GeneralError(fmt.Sprintf("running suite %q", suite.Name), err)
		}
		results = append(results, res)
	}
	return reportConformance(results, verboseFlag)
}

func reportConformance(results []conformance.Result, verboseFlag bool) error {
	failed := 0
	for _, res := range results {
		if !quiet && (verboseFlag || !res.OK()) {
			status := "ok"
			if !res.OK() {
				status = "FAIL"
			}
			fmt.Printf("%-24s %s  (%d checks, %d skipped, %s)\n",
				res.Suite, status, res.Checks, res.Skipped, res.Elapsed)
		}
		for _, f := range res.Failures {
			fmt.Println("  " + f.String())
		}
		if !res.OK() {
			failed++
		}
	}
	if failed > 0 {
		return cli.ConformanceError(fmt.Sprintf("%d suite(s) failed", failed), nil)
	}
	if !quiet {
		fmt.Printf("%d suite(s) passed\n", len(results))
	}
	return nil
}
