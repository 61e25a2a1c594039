// Command ticketctl is the tickethub admin CLI: schema migrations, bulk seeding,
// dead-letter inspection and one-off reconcile sweeps.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"github.com/supportai/tickethub/internal/config"
	"github.com/supportai/tickethub/internal/observability"
	"github.com/supportai/tickethub/pkg/database"
)

const serviceName = "ticketctl"

func main() {
	rootCmd := &cobra.Command{
		Use:           "ticketctl",
		Short:         "tickethub administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSeedCommand(),
		newDeadLettersCommand(),
		newReconcileCommand(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// connect loads configuration, installs the process logger and opens the pool.
func connect(ctx context.Context) (*config.Config, *pgxpool.Pool, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	slog.SetDefault(slog.New(observability.NewLogHandler(os.Stderr, cfg.LogFormat, observability.ParseLevel(cfg.LogLevel))))

	db, err := database.NewPostgresPool(ctx, cfg.DatabaseURL, database.WithApplicationName(serviceName))
	if err != nil {
		return nil, nil, err //nolint:wrapcheck // already wrapped by database
	}

	return cfg, db, nil
}
