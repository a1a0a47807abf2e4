package cli

import (
	"github.com/spf13/cobra"
)

// NewGhostCommand creates the ghost command group: paying debts out of a
// vault balance.
func NewGhostCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ghost",
		Short: "Pay debts from a vault",
		Long: `Ghost payments move money from a vault straight onto debts.

The amount is clamped to the vault balance and the remaining debt.
Use --preview to see the clamped amount without writing anything.`,
	}
	cmd.AddCommand(newGhostPayCommand(rootOpts))
	cmd.AddCommand(newGhostSplitCommand(rootOpts))
	return cmd
}

type ghostFlags struct {
	user, vault, transferID, date string
	amount                        int64
	preview                       bool
}

func (g *ghostFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&g.user, "user", "", "user id")
	cmd.Flags().StringVar(&g.vault, "vault", "", "vault to pay from")
	amountFlag(cmd, &g.amount, "amount", "requested amount")
	cmd.Flags().StringVar(&g.transferID, "transfer-id", "", "transfer id (default: generated)")
	cmd.Flags().BoolVar(&g.preview, "preview", false, "show the clamped amount without paying")
	dateFlag(cmd, &g.date)
}

func (g *ghostFlags) params() params {
	p := params{"user_id": g.user, "vault_id": g.vault, "amount_cents": g.amount}
	return p.opt("transfer_id", g.transferID).opt("date", g.date)
}

func (g *ghostFlags) command(name string) string {
	if g.preview {
		return name + "-preview"
	}
	return name
}

func newGhostPayCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		g    ghostFlags
		debt string
	)
	cmd := &cobra.Command{
		Use:     "pay",
		Short:   "Pay one debt from a vault",
		Example: `  ghostledger ghost pay --user u1 --vault v1 --debt card --amount 5000 --preview`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := g.params()
			p["debt_id"] = debt
			return rootOpts.run(cmd, g.command("ghost-pay"), p)
		},
	}
	g.register(cmd)
	cmd.Flags().StringVar(&debt, "debt", "", "debt id")
	return cmd
}

func newGhostSplitCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		g     ghostFlags
		debts []string
	)
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a vault payment across debts",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := g.params()
			p["debt_ids"] = debts
			return rootOpts.run(cmd, g.command("ghost-split-pay"), p)
		},
	}
	g.register(cmd)
	cmd.Flags().StringSliceVar(&debts, "debts", nil, "debt ids")
	return cmd
}
