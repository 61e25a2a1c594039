package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/supportai/tickethub/internal/jobs"
	"github.com/supportai/tickethub/internal/repository"
	"github.com/supportai/tickethub/internal/workers"
)

func newReconcileCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "reconcile",
		Short: "Run one reconcile sweep: harvest discarded jobs and re-enqueue stale tickets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			client, err := workers.NewInsertOnlyClient(db)
			if err != nil {
				return err //nolint:wrapcheck // already wrapped
			}

			deadLetters := repository.NewDeadLettersRepository(db)
			reconciler := jobs.NewReconciler(
				repository.NewTicketsRepository(db),
				deadLetters,
				jobs.NewRiverJobInserter(client, cfg.EnrichmentMaxAttempts),
				jobs.ReconcilerConfig{StaleAfter: cfg.ReconcileStaleAfter},
			)

			stats, err := reconciler.Run(cmd.Context())
			if err != nil {
				return err //nolint:wrapcheck // already wrapped
			}

			fmt.Fprintf(cmd.OutOrStdout(), "harvested=%d reenqueued=%d errors=%d\n",
				stats.Harvested, stats.Reenqueued, stats.Errors)

			return nil
		},
	}
}
