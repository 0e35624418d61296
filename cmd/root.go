package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"invoicing/internal/config"
	"invoicing/internal/documents"
	"invoicing/internal/ledger"
	"invoicing/internal/logger"
	"invoicing/internal/reports"
	"invoicing/internal/settlement"
	"invoicing/internal/store"
)

var version = "1.0.0"

// cfg is loaded before any subcommand runs.
var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "invoicing",
	Short: "Invoicing - a settlement ledger and reporting engine",
	Long: `Invoicing keeps sales invoices, purchase invoices and expenses, records the
payments that settle them, recognizes VAT on a cash basis and rolls everything
up into dashboards and reports.

Configuration is read from the environment (and a .env file when present):
  DB_DRIVER      - sqlite3 (default) or pgx
  DATABASE_URL   - SQLite file path or PostgreSQL connection string
  HTTP_ADDR      - listen address for the HTTP API (default :8080)
  LOG_LEVEL      - trace, debug, info, warn, error (default info)`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := config.Load()
		if err != nil {
			return err
		}
		if err := logger.Setup(loaded.GetLoggerConfig()); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func Execute() {
	log := logger.WithComponent("cmd")

	if err := rootCmd.Execute(); err != nil {
		log.Error().
			Err(err).
			Msg("Command execution failed")
		fmt.Fprintf(os.Stderr, "Error executing command: %v\n", err)
		os.Exit(1)
	}
}

// services is the wired domain layer shared by every command that touches the database.
type services struct {
	store      *store.Store
	ledger     *ledger.Ledger
	documents  *documents.Service
	settlement *settlement.Service
	reports    *reports.Service
}

// openServices opens the store, applies migrations and builds the services on top of it.
func openServices(ctx context.Context) (*services, error) {
	s, err := store.Open(ctx, cfg.StoreConfig())
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		s.Close()
		return nil, err
	}

	l := ledger.New(s)
	return &services{
		store:      s,
		ledger:     l,
		documents:  documents.NewService(s, l),
		settlement: settlement.NewService(s),
		reports:    reports.NewService(s),
	}, nil
}

func (s *services) Close() {
	if err := s.store.Close(); err != nil {
		log := logger.WithComponent("cmd")
		log.Warn().Err(err).Msg("Failed to close store")
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
