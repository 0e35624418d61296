// Package api serves the ledger over HTTP as JSON.
package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"invoicing/internal/documents"
	"invoicing/internal/ledger"
	"invoicing/internal/logger"
	"invoicing/internal/reports"
	"invoicing/internal/settlement"
	"invoicing/pkg/models"
)

func init() {
	// amounts go out as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true
}

// Options configures the HTTP surface.
type Options struct {
	CORSOrigin      string
	RateLimitWrites int // requests per minute per client on mutating routes; 0 disables
	ReportTitle     string
}

// Server holds the services the handlers call.
type Server struct {
	Documents  *documents.Service
	Ledger     *ledger.Ledger
	Settlement *settlement.Service
	Reports    *reports.Service

	opts Options
	log  zerolog.Logger
}

func NewServer(docs *documents.Service, l *ledger.Ledger, settle *settlement.Service, rep *reports.Service, opts Options) *Server {
	return &Server{
		Documents:  docs,
		Ledger:     l,
		Settlement: settle,
		Reports:    rep,
		opts:       opts,
		log:        logger.WithComponent("api"),
	}
}

// App builds the fiber application with middleware and routes registered.
func (s *Server) App() *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          s.errorHandler,
		DisableStartupMessage: true,
	})

	app.Use(corsMiddleware(s.opts.CORSOrigin))
	app.Use(s.requestLogger())
	if s.opts.RateLimitWrites > 0 {
		app.Use(rateLimitWrites(s.opts.RateLimitWrites))
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"ok": true})
	})

	s.registerRoutes(app)
	return app
}

func (s *Server) registerRoutes(app *fiber.App) {
	api := app.Group("/api")

	for _, kind := range []models.DocumentKind{models.KindInvoice, models.KindPurchase} {
		g := api.Group("/" + string(kind) + "s")
		g.Get("/", s.listDocuments(kind))
		g.Post("/", s.createDocument(kind))
		g.Get("/:id", s.getDocument(kind))
		g.Put("/:id", s.updateDocument(kind))
		g.Delete("/:id", s.deleteDocument(kind))
		g.Post("/:id/payments", s.acceptPayment(kind))
	}

	api.Get("/expenses", s.listExpenses)
	api.Post("/expenses", s.createExpense)
	api.Get("/expenses/:id", s.getExpense)
	api.Put("/expenses/:id", s.updateExpense)
	api.Delete("/expenses/:id", s.deleteExpense)

	api.Get("/transactions", s.listTransactions)
	api.Post("/transactions", s.createTransaction)
	api.Delete("/transactions/:id", s.deleteTransaction)

	api.Get("/payment-methods", s.listMethods)
	api.Post("/payment-methods", s.createMethod)
	api.Put("/payment-methods/:id", s.updateMethod)
	api.Delete("/payment-methods/:id", s.deleteMethod)
	api.Get("/currencies", s.listCurrencies)
	api.Post("/currencies", s.createCurrency)

	api.Get("/dashboard", s.dashboard)
	api.Get("/report", s.report)
	api.Get("/report.pdf", s.reportPDF)
	api.Get("/assets", s.assets)
}

// errorHandler renders every error as {"error": message} with a status derived from its sentinel.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code, msg := StatusFor(err)
	if code >= fiber.StatusInternalServerError {
		s.log.Error().
			Err(err).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Msg("Request failed")
	}
	return c.Status(code).JSON(fiber.Map{"error": msg})
}

// StatusFor maps an error to an HTTP status and the message shown to the client.
func StatusFor(err error) (int, string) {
	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		return fiberErr.Code, fiberErr.Message
	case errors.Is(err, models.ErrValidation), errors.Is(err, models.ErrUnsupportedKind):
		return fiber.StatusBadRequest, message(err)
	case errors.Is(err, models.ErrNotFound):
		return fiber.StatusNotFound, message(err)
	case errors.Is(err, settlement.ErrFullySettled):
		return fiber.StatusConflict, settlement.ErrFullySettled.Error()
	default:
		return fiber.StatusInternalServerError, "internal server error"
	}
}

// message prefers the typed validation text over the wrapped operation chain.
func message(err error) string {
	var ve *models.ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return err.Error()
}
