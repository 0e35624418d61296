package sheets

import (
	"invoicing/internal/money"
	"invoicing/internal/period"
	"invoicing/internal/reports"
)

// Worksheet names written by ExportReport.
const (
	SheetVATEntries  = "VAT Entries"
	SheetVATQuarters = "VAT Quarters"
	SheetMonthly     = "Monthly Turnover"
	SheetYearly      = "Yearly Turnover"
)

// Table is one worksheet: a header row and value rows. Amounts are numbers so the sheet can sum them.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]interface{}
}

// Tables lays the report out as worksheets.
func Tables(r *reports.Report) []Table {
	entries := Table{
		Name:    SheetVATEntries,
		Headers: []string{"Date", "Quarter", "Type", "Reference", "Party", "Total", "VAT", "Settled", "Ratio", "Recognized VAT"},
	}
	for _, e := range r.VAT.Entries {
		entries.Rows = append(entries.Rows, []interface{}{
			e.Date, e.Quarter, e.Type, e.Reference, e.Party,
			money.Float(e.Total), money.Float(e.VATTotal), money.Float(e.Settled),
			money.Float(e.Ratio), money.Float(e.RecognizedVAT),
		})
	}

	quarters := Table{
		Name:    SheetVATQuarters,
		Headers: []string{"Quarter", "Output VAT", "Input VAT", "Net VAT"},
	}
	for _, q := range r.VAT.Quarters {
		quarters.Rows = append(quarters.Rows, []interface{}{
			q.Key, money.Float(q.OutputVAT), money.Float(q.InputVAT), money.Float(q.NetVAT),
		})
	}

	return []Table{
		entries,
		quarters,
		turnoverTable(SheetMonthly, "Month", r.Monthly),
		turnoverTable(SheetYearly, "Year", r.Yearly),
	}
}

func turnoverTable(name, periodHeader string, rows []period.Turnover) Table {
	t := Table{
		Name:    name,
		Headers: []string{periodHeader, "Sold", "Bought", "Expenses", "Turnover"},
	}
	for _, row := range rows {
		t.Rows = append(t.Rows, []interface{}{
			row.Period, money.Float(row.Sold), money.Float(row.Bought), money.Float(row.Expenses), money.Float(row.Turnover),
		})
	}
	return t
}
