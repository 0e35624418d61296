package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"invoicing/internal/logger"
	"invoicing/internal/money"
	"invoicing/internal/reports"
	"invoicing/internal/sheets"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the lifetime report",
	Long: `Build the lifetime report: sold, bought and expense totals, benefit or loss,
open balances, cash-basis VAT per document and per quarter, and the monthly and
yearly turnover.`,
	Example: `  # Summary on stdout
  invoicing report

  # Full report as JSON
  invoicing report --json -o report.json

  # Printable PDF
  invoicing report --pdf report.pdf`,
	RunE: runReport,
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the VAT and turnover tables to Google Sheets",
	Long: `Write the VAT entries, the quarterly VAT summary and the monthly and yearly
turnover of the lifetime report to the spreadsheet in GOOGLE_SHEET_URL. Each
table gets its own sheet; existing rows are replaced.

Required environment variables:
  GOOGLE_SHEET_URL - Spreadsheet URL
  GOOGLE_SERVICE_ACCOUNT_KEY or GOOGLE_APPLICATION_CREDENTIALS - Service account JSON`,
	RunE: runExport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(exportCmd)

	reportCmd.Flags().Bool("json", false, "Print the full report as JSON")
	reportCmd.Flags().StringP("output", "o", "", "JSON output file path (default: stdout)")
	reportCmd.Flags().String("pdf", "", "Write the report as PDF to this path")
}

func runReport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("report")

	asJSON, _ := cmd.Flags().GetBool("json")
	outputPath, _ := cmd.Flags().GetString("output")
	pdfPath, _ := cmd.Flags().GetString("pdf")

	svc, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.reports.Report(cmd.Context())
	if err != nil {
		return err
	}

	if pdfPath != "" {
		data, err := reports.RenderPDF(r, cfg.ReportTitle)
		if err != nil {
			return err
		}
		if err := os.WriteFile(pdfPath, data, 0644); err != nil {
			return fmt.Errorf("failed to write PDF: %w", err)
		}
		log.Info().
			Str("file", pdfPath).
			Int("bytes", len(data)).
			Msg("Report PDF written")
	}

	if asJSON || outputPath != "" {
		return writeJSON(r, outputPath)
	}
	if pdfPath != "" {
		return nil
	}

	fmt.Printf("Sold      %14s\n", money.Format(r.Sold))
	fmt.Printf("Bought    %14s\n", money.Format(r.Bought))
	fmt.Printf("Expenses  %14s\n", money.Format(r.Expenses))
	if r.Loss.IsPositive() {
		fmt.Printf("Loss      %14s\n", money.Format(r.Loss))
	} else {
		fmt.Printf("Benefit   %14s\n", money.Format(r.Benefit))
	}
	fmt.Printf("\nTo receive %13s\n", money.Format(r.ShouldReceive))
	fmt.Printf("To pay     %13s\n", money.Format(r.IOwe))
	fmt.Printf("\nVAT received %11s\n", money.Format(r.VAT.ReceivedVAT))
	fmt.Printf("VAT paid     %11s\n", money.Format(r.VAT.PaidVAT))
	fmt.Printf("VAT balance  %11s\n", money.Format(r.VAT.Balance))
	return nil
}

func runExport(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("export")

	if err := cfg.RequireSheets(); err != nil {
		return err
	}

	svc, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	r, err := svc.reports.Report(cmd.Context())
	if err != nil {
		return err
	}

	exporter, err := sheets.NewSheetsService(cmd.Context(), cfg.GoogleSheetURL, cfg.GoogleServiceAccountKey)
	if err != nil {
		return err
	}
	if err := exporter.ExportReport(cmd.Context(), r); err != nil {
		return err
	}

	log.Info().
		Int("vat_entries", len(r.VAT.Entries)).
		Int("months", len(r.Monthly)).
		Msg("Report exported to Google Sheets")
	fmt.Println("Report exported to", cfg.GoogleSheetURL)
	return nil
}
