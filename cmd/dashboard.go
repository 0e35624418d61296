package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"invoicing/internal/money"
	"invoicing/internal/period"
)

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show the dashboard for the current period",
	Long: `Compare sales, purchases, expenses, net profit, receivables and payables of the
current period with the whole previous period, and list payments, recognized
VAT, stock alerts and recent documents.

Periods: month, quarter, year. Unknown values fall back to month.`,
	Example: `  invoicing dashboard --period quarter
  invoicing dashboard --json`,
	RunE: runDashboard,
}

func init() {
	rootCmd.AddCommand(dashboardCmd)

	dashboardCmd.Flags().StringP("period", "p", "month", "Period: month, quarter or year")
	dashboardCmd.Flags().Bool("json", false, "Print the dashboard as JSON")
}

func runDashboard(cmd *cobra.Command, args []string) error {
	keyword, _ := cmd.Flags().GetString("period")
	asJSON, _ := cmd.Flags().GetBool("json")

	svc, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	d, err := svc.reports.Dashboard(cmd.Context(), keyword)
	if err != nil {
		return err
	}
	if asJSON {
		return writeJSON(d, "")
	}

	fmt.Printf("%s  %s .. %s\n\n", d.Label, d.Window.Start, d.Window.End)

	rows := []struct {
		name  string
		value string
		trend period.Trend
	}{
		{"Sales", money.Format(d.Current.Sales), d.Trends.Sales},
		{"Purchases", money.Format(d.Current.Purchases), d.Trends.Purchases},
		{"Expenses", money.Format(d.Current.Expenses), d.Trends.Expenses},
		{"Net profit", money.Format(d.Current.NetProfit), d.Trends.NetProfit},
		{"Receivables", money.Format(d.Current.Receivables), d.Trends.Receivables},
		{"Payables", money.Format(d.Current.Payables), d.Trends.Payables},
	}
	for _, r := range rows {
		fmt.Printf("  %-12s %14s  %s %s\n", r.name, r.value, r.trend.Icon, r.trend.Label)
	}

	fmt.Printf("\n  Payments in  %14s\n", money.Format(d.PaymentsIn))
	fmt.Printf("  Payments out %14s\n", money.Format(d.PaymentsOut))
	fmt.Printf("  VAT balance  %14s  (received %s, paid %s)\n",
		money.Format(d.VAT.Balance), money.Format(d.VAT.Received), money.Format(d.VAT.Paid))

	if len(d.StockAlerts) > 0 {
		fmt.Println("\nLow stock:")
		for _, a := range d.StockAlerts {
			fmt.Printf("  %-30s %s left\n", a.Name, a.Available.String())
		}
	}
	return nil
}
