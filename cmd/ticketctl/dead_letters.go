package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/supportai/tickethub/internal/api/handlers"
	"github.com/supportai/tickethub/internal/repository"
)

const maxDeadLettersLimit = 200

func newDeadLettersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dead-letters",
		Short: "Inspect enrichment jobs that exhausted their attempts",
	}

	var (
		limit   int
		asJSON  bool
		listCmd = &cobra.Command{
			Use:   "list",
			Short: "List the most recent dead letters",
			RunE: func(cmd *cobra.Command, _ []string) error {
				if limit < 1 || limit > maxDeadLettersLimit {
					return fmt.Errorf("--limit must be between 1 and %d", maxDeadLettersLimit)
				}

				_, db, err := connect(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()

				letters, err := repository.NewDeadLettersRepository(db).List(cmd.Context(), limit)
				if err != nil {
					return err //nolint:wrapcheck // already wrapped
				}

				if asJSON {
					enc := json.NewEncoder(cmd.OutOrStdout())
					enc.SetIndent("", "  ")

					return enc.Encode(letters) //nolint:wrapcheck // terminal output
				}

				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "CREATED\tJOB\tTICKET\tDELIVERIES\tREASON")

				for _, dl := range letters {
					fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
						dl.CreatedAt.Format(time.RFC3339), dl.JobID, dl.TicketID, dl.DeliveryCount, dl.Reason)
				}

				return tw.Flush() //nolint:wrapcheck // terminal output
			},
		}
	)

	listCmd.Flags().IntVar(&limit, "limit", handlers.DefaultDeadLettersLimit, "Number of dead letters to show (max 200)")
	listCmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")

	cmd.AddCommand(listCmd)

	return cmd
}
