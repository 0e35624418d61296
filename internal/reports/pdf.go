package reports

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"

	"invoicing/internal/money"
)

// DefaultPDFTitle heads the PDF when no title is configured.
const DefaultPDFTitle = "Financial Report"

// RenderPDF lays the report out on A4 pages: totals, balances, quarterly VAT, VAT entries and
// the monthly turnover table.
func RenderPDF(r *Report, title string) ([]byte, error) {
	if title == "" {
		title = DefaultPDFTitle
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(title, false)
	pdf.SetMargins(14, 14, 14)
	pdf.SetAutoPageBreak(true, 14)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, tr(title))
	pdf.Ln(10)

	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, "Generated: "+r.GeneratedAt.Format("2006-01-02 15:04"))
	pdf.Ln(10)

	section := func(name string) {
		pdf.SetFont("Helvetica", "B", 13)
		pdf.Cell(0, 8, name)
		pdf.Ln(8)
	}
	pair := func(label string, value decimal.Decimal) {
		pdf.SetFont("Helvetica", "", 11)
		pdf.Cell(70, 7, label)
		pdf.CellFormat(40, 7, money.Format(value), "", 0, "R", false, 0, "")
		pdf.Ln(7)
	}
	table := func(widths []float64, header []string, rows [][]string, numericFrom int) {
		pdf.SetFont("Helvetica", "B", 10)
		for i, h := range header {
			pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
		}
		pdf.Ln(7)
		pdf.SetFont("Helvetica", "", 10)
		for _, row := range rows {
			for i, cell := range row {
				align := "L"
				if i >= numericFrom {
					align = "R"
				}
				pdf.CellFormat(widths[i], 6, tr(cell), "", 0, align, false, 0, "")
			}
			pdf.Ln(6)
		}
		pdf.Ln(4)
	}

	section("Totals")
	pair("Sold", r.Sold)
	pair("Bought", r.Bought)
	pair("Expenses", r.Expenses)
	pair("Benefit", r.Benefit)
	pair("Loss", r.Loss)
	pdf.Ln(4)

	section("Balances")
	pair("Should receive", r.ShouldReceive)
	pair("I owe", r.IOwe)
	pair("Received VAT", r.VAT.ReceivedVAT)
	pair("Paid VAT", r.VAT.PaidVAT)
	pair("VAT balance", r.VAT.Balance)
	pdf.Ln(4)

	if len(r.VAT.Quarters) > 0 {
		section("VAT by quarter")
		rows := make([][]string, 0, len(r.VAT.Quarters))
		for _, q := range r.VAT.Quarters {
			rows = append(rows, []string{q.Key, money.Format(q.OutputVAT), money.Format(q.InputVAT), money.Format(q.NetVAT)})
		}
		table([]float64{40, 40, 40, 40}, []string{"Quarter", "Output VAT", "Input VAT", "Net VAT"}, rows, 1)
	}

	if len(r.VAT.Entries) > 0 {
		section("VAT entries")
		rows := make([][]string, 0, len(r.VAT.Entries))
		for _, e := range r.VAT.Entries {
			rows = append(rows, []string{
				e.Date, e.Type, e.Reference, truncate(e.Party, 24),
				money.Format(e.Total), money.Format(e.Settled), money.Format(e.RecognizedVAT),
			})
		}
		table([]float64{22, 26, 30, 40, 22, 22, 20},
			[]string{"Date", "Type", "Reference", "Party", "Total", "Settled", "VAT"}, rows, 4)
	}

	if len(r.Monthly) > 0 {
		section("Monthly turnover")
		rows := make([][]string, 0, len(r.Monthly))
		for _, m := range r.Monthly {
			rows = append(rows, []string{
				m.Period, money.Format(m.Sold), money.Format(m.Bought), money.Format(m.Expenses), money.Format(m.Turnover),
			})
		}
		table([]float64{30, 36, 36, 36, 36}, []string{"Month", "Sold", "Bought", "Expenses", "Turnover"}, rows, 1)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render report pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
