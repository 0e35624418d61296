package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"invoicing/internal/intake"
	"invoicing/internal/logger"
	"invoicing/pkg/models"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Create documents from scanned PDFs",
	Long: `Read scanned paperwork and record it in the ledger.

  purchase - supplier invoice PDF, read with Google Document AI
  receipt  - shop or service receipt PDF, read with Google Cloud Vision OCR and
             an OpenAI chat completion (pattern scan when OPENAI_API_KEY is unset)

Google credentials come from GOOGLE_SERVICE_ACCOUNT_KEY,
GOOGLE_APPLICATION_CREDENTIALS or inline GOOGLE_CREDENTIALS.`,
}

var importPurchaseCmd = &cobra.Command{
	Use:   "purchase [pdf-file]",
	Short: "Record a purchase invoice from a supplier PDF",
	Long: `Extract number, supplier, date, currency and lines from a supplier invoice
with the Document AI invoice processor and store it as a purchase. A taken
number is replaced with a generated one.

Required environment variables:
  GOOGLE_CLOUD_PROJECT     - Your Google Cloud project ID
  GOOGLE_CLOUD_LOCATION    - Processing location (us, eu)
  DOCUMENT_AI_PROCESSOR_ID - Your Document AI invoice processor ID`,
	Example: `  # Preview the extracted purchase without saving
  invoicing import purchase supplier.pdf --dry-run

  # Record it
  invoicing import purchase supplier.pdf`,
	Args: cobra.ExactArgs(1),
	RunE: runImportPurchase,
}

var importReceiptCmd = &cobra.Command{
	Use:   "receipt [pdf-file]",
	Short: "Record an expense from a receipt PDF",
	Long: `OCR a receipt, extract merchant, date, total and currency, and record it as
an expense paid with the given payment method.`,
	Example: `  invoicing import receipt taxi.pdf --method 1
  invoicing import receipt lunch.pdf --method 2 --dry-run`,
	Args: cobra.ExactArgs(1),
	RunE: runImportReceipt,
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.AddCommand(importPurchaseCmd)
	importCmd.AddCommand(importReceiptCmd)

	importCmd.PersistentFlags().Bool("dry-run", false, "Print the extracted document as JSON without saving it")
	importCmd.PersistentFlags().Int("timeout", 120, "Processing timeout in seconds")

	importReceiptCmd.Flags().Int64P("method", "m", 0, "Payment method id the receipt was paid with")
	_ = importReceiptCmd.MarkFlagRequired("method")
}

// importContext bounds the whole import, API calls included.
func importContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	timeoutSecs, _ := cmd.Flags().GetInt("timeout")
	ctx, stop := signalContext()
	ctx, cancel := context.WithTimeout(ctx, time.Duration(timeoutSecs)*time.Second)
	return ctx, func() {
		cancel()
		stop()
	}
}

func openPDF(path string, log zerolog.Logger) (*os.File, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		log.Warn().
			Str("file", path).
			Msg("File does not have .pdf extension")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF file: %w", err)
	}
	return f, nil
}

func today() string {
	return time.Now().Format(time.DateOnly)
}

func runImportPurchase(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	if err := cfg.RequireDocumentAI(); err != nil {
		return err
	}

	ctx, cancel := importContext(cmd)
	defer cancel()

	reader, err := intake.NewPurchaseReader(ctx, intake.DocumentAIConfig{
		ProjectID:   cfg.GoogleCloudProject,
		Location:    cfg.GoogleCloudLocation,
		ProcessorID: cfg.DocumentAIProcessorID,
	}, cfg.GoogleServiceAccountKey)
	if err != nil {
		return importError(err)
	}
	defer reader.Close()

	f, err := openPDF(args[0], log)
	if err != nil {
		return err
	}
	defer f.Close()

	in, err := reader.ReadPurchase(ctx, f)
	if err != nil {
		return importError(err)
	}
	if in.Date == "" {
		log.Warn().Msg("No invoice date found, using today")
		in.Date = today()
	}
	if dryRun {
		return writeJSON(in, "")
	}

	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	id, number, err := svc.documents.Create(ctx, models.KindPurchase, *in)
	if err != nil {
		return err
	}

	log.Info().
		Int64("id", id).
		Str("number", number).
		Str("file", args[0]).
		Msg("Purchase imported")
	fmt.Printf("Purchase %d recorded as %s\n", id, number)
	return nil
}

func runImportReceipt(cmd *cobra.Command, args []string) error {
	log := logger.WithComponent("import")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	methodID, _ := cmd.Flags().GetInt64("method")

	ctx, cancel := importContext(cmd)
	defer cancel()

	ocr, err := intake.NewVisionOCR(ctx, cfg.GoogleServiceAccountKey)
	if err != nil {
		return importError(err)
	}
	defer ocr.Close()

	var client *openai.Client
	if err := cfg.RequireOpenAI(); err != nil {
		log.Warn().Err(err).Msg("Receipt fields will be scanned from the OCR text")
	} else {
		client = openai.NewClient(cfg.OpenAIAPIKey)
	}

	reader := intake.NewReceiptReader(ocr, client, intake.ReceiptConfig{Model: cfg.OpenAIModel})

	f, err := openPDF(args[0], log)
	if err != nil {
		return err
	}
	defer f.Close()

	in, err := reader.ReadReceipt(ctx, f, methodID)
	if err != nil {
		return importError(err)
	}
	if in.Date == "" {
		log.Warn().Msg("No receipt date found, using today")
		in.Date = today()
	}
	if dryRun {
		return writeJSON(in, "")
	}

	svc, err := openServices(ctx)
	if err != nil {
		return err
	}
	defer svc.Close()

	id, err := svc.documents.RecordExpense(ctx, *in)
	if err != nil {
		return err
	}

	log.Info().
		Int64("id", id).
		Str("title", in.Title).
		Str("amount", string(in.Amount)).
		Msg("Receipt imported")
	fmt.Printf("Expense %d recorded: %s %s\n", id, in.Title, in.Amount)
	return nil
}

// importError turns intake failures into actionable messages.
func importError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("processing timed out. Try increasing --timeout or processing a smaller file")
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("processing was canceled")
	case errors.Is(err, intake.ErrInvalidPDF):
		return fmt.Errorf("invalid or corrupted PDF file: %w", err)
	case errors.Is(err, intake.ErrDocumentTooLarge):
		return fmt.Errorf("PDF file is too large (maximum 20MB): %w", err)
	case errors.Is(err, intake.ErrTooManyPages):
		return fmt.Errorf("receipt has more than %d pages: %w", intake.MaxPagesSync, err)
	case errors.Is(err, intake.ErrMissingCredentials), errors.Is(err, intake.ErrInvalidCredentials):
		return fmt.Errorf("Google Cloud authentication failed. Set GOOGLE_SERVICE_ACCOUNT_KEY or "+
			"GOOGLE_APPLICATION_CREDENTIALS to a service account JSON file: %w", err)
	case errors.Is(err, intake.ErrProcessorNotFound):
		return fmt.Errorf("Document AI processor not found. Check DOCUMENT_AI_PROCESSOR_ID: %w", err)
	case errors.Is(err, intake.ErrQuotaExceeded):
		return fmt.Errorf("API quota exceeded. Check your project quotas in Google Cloud Console: %w", err)
	case errors.Is(err, intake.ErrEmptyDocument):
		return fmt.Errorf("no usable text or fields found in the document: %w", err)
	default:
		return fmt.Errorf("import failed: %w", err)
	}
}
