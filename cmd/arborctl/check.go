package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arborhq/arbor/internal/invariants"
	"github.com/arborhq/arbor/internal/store"
	"github.com/arborhq/arbor/internal/store/postgres"
	"github.com/arborhq/arbor/internal/store/sqlite"
)

func init() {
	var (
		sqlitePath  string
		postgresDSN string
		repair      bool
	)
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Scan the graph for asymmetric or dangling edges",
		Long: "Connects directly to the database, cross-checks every parent edge " +
			"against the matching child edge, and optionally repairs asymmetric pairs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				db  *sql.DB
				err error
				st  store.Store
			)
			switch {
			case postgresDSN != "":
				db, err = postgres.Open(postgresDSN)
				if err != nil {
					return err
				}
				st = postgres.NewWithDB(db)
			case sqlitePath != "":
				db, err = sqlite.Open(sqlitePath)
				if err != nil {
					return err
				}
				st = sqlite.NewWithDB(db)
			default:
				return fmt.Errorf("--sqlite or --postgres required")
			}
			defer func() { _ = db.Close() }()

			checker := invariants.NewChecker(st)
			violations, err := checker.Scan(cmd.Context())
			if err != nil {
				return err
			}
			if len(violations) == 0 {
				_, _ = fmt.Fprintln(os.Stdout, "ok: no violations")
				return nil
			}
			if err := printJSON(violations); err != nil {
				return err
			}
			if repair {
				healed, err := checker.Repair(cmd.Context(), violations)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintf(os.Stdout, "repaired %d of %d\n", healed, len(violations))
			}
			return nil
		},
	}
	checkCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "Path to a SQLite database file")
	checkCmd.Flags().StringVar(&postgresDSN, "postgres", "", "Postgres DSN")
	checkCmd.Flags().BoolVar(&repair, "repair", false, "Re-add the missing half of asymmetric edges")
	rootCmd.AddCommand(checkCmd)
}
