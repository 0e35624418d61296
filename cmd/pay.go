package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"invoicing/internal/money"
	"invoicing/internal/settlement"
	"invoicing/pkg/models"
)

var payCmd = &cobra.Command{
	Use:   "pay [invoice|purchase] [id]",
	Short: "Record a payment against an invoice or a purchase",
	Long: `Record a settling transaction for a sales invoice (money received) or a
purchase invoice (money paid). Without --amount, or with an amount above the
outstanding balance, the whole outstanding balance is paid.`,
	Example: `  # Settle invoice 12 in full with payment method 1
  invoicing pay invoice 12 --method 1

  # Partial payment on a purchase
  invoicing pay purchase 4 --method 2 --amount 150.00 --date 2024-05-31`,
	Args: cobra.ExactArgs(2),
	RunE: runPay,
}

func init() {
	rootCmd.AddCommand(payCmd)

	payCmd.Flags().Int64P("method", "m", 0, "Payment method id")
	payCmd.Flags().StringP("amount", "a", "", "Amount to pay (default: outstanding balance)")
	payCmd.Flags().String("date", "", "Payment date YYYY-MM-DD (default: today)")
	payCmd.Flags().String("notes", "", "Transaction notes")
	_ = payCmd.MarkFlagRequired("method")
}

func runPay(cmd *cobra.Command, args []string) error {
	kind, ok := models.ParseDocumentKind(args[0])
	if !ok {
		return fmt.Errorf("%q: %w", args[0], models.ErrUnsupportedKind)
	}
	id, err := strconv.ParseInt(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid document id %q", args[1])
	}

	methodID, _ := cmd.Flags().GetInt64("method")
	amountText, _ := cmd.Flags().GetString("amount")
	date, _ := cmd.Flags().GetString("date")
	notes, _ := cmd.Flags().GetString("notes")

	svc, err := openServices(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	receipt, err := svc.settlement.AcceptPayment(cmd.Context(), settlement.Request{
		Kind:       kind,
		DocumentID: id,
		MethodID:   methodID,
		Amount:     money.Input(amountText),
		Date:       date,
		Notes:      notes,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Transaction %d: paid %s, outstanding %s\n",
		receipt.TransactionID, money.Format(receipt.Amount), money.Format(receipt.Outstanding))
	return nil
}
