package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/supportai/tickethub/pkg/database"
)

func newMigrateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tools",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply all pending migrations, including the River queue schema",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := connect(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				return database.Migrate(cmd.Context(), db) //nolint:wrapcheck // already wrapped
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back the most recent application migration",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := connect(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				return database.MigrateDown(cmd.Context(), db) //nolint:wrapcheck // already wrapped
			},
		},
		&cobra.Command{
			Use:   "status",
			Short: "Show applied and pending migrations",
			RunE: func(cmd *cobra.Command, _ []string) error {
				_, db, err := connect(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				statuses, err := database.Status(cmd.Context(), db)
				if err != nil {
					return err //nolint:wrapcheck // already wrapped
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "VERSION\tNAME\tSTATE")

				for _, s := range statuses {
					state := "pending"
					if s.Applied {
						state = "applied"
					}

					fmt.Fprintf(tw, "%d\t%s\t%s\n", s.Version, s.Name, state)
				}

				return tw.Flush() //nolint:wrapcheck // terminal output
			},
		},
	)

	return cmd
}
