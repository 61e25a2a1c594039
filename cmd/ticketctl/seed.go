package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/supportai/tickethub/internal/repository"
	"github.com/supportai/tickethub/internal/seed"
)

func newSeedCommand() *cobra.Command {
	var (
		language  string
		batchSize int
	)

	cmd := &cobra.Command{
		Use:   "seed <file.csv>",
		Short: "Bulk-load historical tickets with their known category and answer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open seed file: %w", err)
			}
			defer f.Close()

			_, db, err := connect(cmd.Context())
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := seed.Load(cmd.Context(), f, repository.NewTicketsRepository(db), seed.Options{
				Language:  language,
				BatchSize: batchSize,
			})
			if stats != nil {
				fmt.Fprintf(cmd.OutOrStdout(), "rows=%d loaded=%d skipped_language=%d skipped_empty=%d skipped_invalid=%d\n",
					stats.Rows, stats.Loaded, stats.SkippedLanguage, stats.SkippedEmpty, stats.SkippedInvalid)
			}

			return err //nolint:wrapcheck // already wrapped by seed
		},
	}

	cmd.Flags().StringVar(&language, "language", "en", "Only load rows in this language (empty loads all)")
	cmd.Flags().IntVar(&batchSize, "batch-size", seed.DefaultBatchSize, "Tickets written per transaction")

	return cmd
}
