package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/readmodel"
)

// NewDebtCommand creates the debt command group.
func NewDebtCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "debt",
		Short: "Register debts and request payments toward them",
	}
	cmd.AddCommand(newDebtCreateCommand(rootOpts))
	cmd.AddCommand(newDebtRequestPayCommand(rootOpts))
	cmd.AddCommand(newDebtRequestSplitCommand(rootOpts))
	cmd.AddCommand(newDebtScheduleCommand(rootOpts))
	return cmd
}

func newDebtCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id, name, user, date string
		balance, minimum     int64
	)
	cmd := &cobra.Command{
		Use:     "create",
		Short:   "Register a debt",
		Example: `  ghostledger debt create --id card --name "Visa" --balance 120000 --minimum 3500`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"debt_id": id, "name": name, "balance_cents": balance, "minimum_payment_cents": minimum}
			return rootOpts.run(cmd, "debt-create", p.opt("user_id", user).opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "debt id")
	cmd.Flags().StringVar(&name, "name", "", "debt name")
	cmd.Flags().StringVar(&user, "user", "", "owning user id")
	amountFlag(cmd, &balance, "balance", "original balance")
	amountFlag(cmd, &minimum, "minimum", "minimum monthly payment")
	dateFlag(cmd, &date)
	return cmd
}

func newDebtRequestPayCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id, user, transferID, from, to, date string
		amount                               int64
	)
	cmd := &cobra.Command{
		Use:   "request-pay",
		Short: "Request a bank transfer toward one debt",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"user_id": user, "debt_id": id, "amount_cents": amount}
			p.opt("transfer_id", transferID).opt("from_account_id", from).opt("to_account_id", to)
			return rootOpts.run(cmd, "ghost-pay-request", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "debt id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	amountFlag(cmd, &amount, "amount", "amount")
	cmd.Flags().StringVar(&transferID, "transfer-id", "", "transfer id (default: generated)")
	cmd.Flags().StringVar(&from, "from", "", "source account (default: bank:<user>)")
	cmd.Flags().StringVar(&to, "to", "", "destination account (default: debt:<id>)")
	dateFlag(cmd, &date)
	return cmd
}

func newDebtRequestSplitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		debts, transferIDs       []string
		user, prefix, from, date string
		amount                   int64
	)
	cmd := &cobra.Command{
		Use:   "request-split",
		Short: "Request one transfer per debt from an allocation plan",
		Long: `Allocate an amount across debts (minimums first, then the smallest
remaining balance) and request one transfer per debt that receives money.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"user_id": user, "debt_ids": debts, "amount_cents": amount}
			p.optList("transfer_ids", transferIDs).opt("transfer_id_prefix", prefix).opt("from_account_id", from)
			return rootOpts.run(cmd, "ghost-split-request", p.opt("date", date))
		},
	}
	cmd.Flags().StringSliceVar(&debts, "debts", nil, "debt ids")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	amountFlag(cmd, &amount, "amount", "total amount")
	cmd.Flags().StringSliceVar(&transferIDs, "transfer-ids", nil, "transfer ids, one per paid debt")
	cmd.Flags().StringVar(&prefix, "transfer-prefix", "", "prefix for generated transfer ids")
	cmd.Flags().StringVar(&from, "from", "", "source account (default: bank:<user>)")
	dateFlag(cmd, &date)
	return cmd
}

func newDebtScheduleCommand(rootOpts *RootOptions) *cobra.Command {
	var extra int64
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show this period's payments: minimums plus an even split of --extra",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				log, err := s.engine.Events(context.Background())
				if err != nil {
					return err
				}
				sched, err := readmodel.SelectPaymentSchedule(log, money.Cents(extra))
				if err != nil {
					return f.Fail(err)
				}
				if f.Format == "json" {
					return f.Success(sched)
				}
				tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "DEBT\tNAME\tMINIMUM\tEXTRA\tTOTAL")
				for _, l := range sched.Lines {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
						l.DebtID, l.Name, money.Format(l.MinimumCents), money.Format(l.ExtraCents), money.Format(l.TotalCents))
				}
				fmt.Fprintf(tw, "\t\t\t\t%s\n", money.Format(sched.TotalCents))
				return tw.Flush()
			})
		},
	}
	amountFlag(cmd, &extra, "extra", "money beyond the minimums")
	return cmd
}
