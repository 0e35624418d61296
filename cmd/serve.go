package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"invoicing/internal/api"
	"invoicing/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Serve the JSON API for documents, payments, transactions, payment methods,
currencies, the dashboard and the reports.

Write requests are rate limited per client IP (RATE_LIMIT_WRITES per minute,
0 disables the limit).`,
	Example: `  # Listen on the configured HTTP_ADDR
  invoicing serve

  # Override the listen address
  invoicing serve --addr 127.0.0.1:9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("addr", "", "Listen address (default: HTTP_ADDR)")
	serveCmd.Flags().Duration("shutdown-timeout", 10*time.Second, "Time allowed for in-flight requests on shutdown")
}

func runServe(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("serve")

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.HTTPAddr
	}
	shutdownTimeout, _ := cmd.Flags().GetDuration("shutdown-timeout")

	ctx, stop := signalContext()
	defer stop()

	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	server := api.NewServer(svc.documents, svc.ledger, svc.settlement, svc.reports, api.Options{
		CORSOrigin:      cfg.CORSOrigin,
		RateLimitWrites: cfg.RateLimitWrites,
		ReportTitle:     cfg.ReportTitle,
	})
	app := server.App()

	errCh := make(chan error, 1)
	go func() {
		log.Info().
			Str("addr", addr).
			Str("driver", svc.store.Driver()).
			Msg("HTTP API listening")
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		log.Info().Msg("Received interrupt signal, shutting down")
	}

	if err := app.ShutdownWithTimeout(shutdownTimeout); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
		return err
	}
	log.Info().Msg("HTTP API stopped")
	return nil
}
