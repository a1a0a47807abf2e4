package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/readmodel"
)

// NewVaultCommand creates the vault command group.
func NewVaultCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault",
		Short: "Create, fund and withdraw from savings vaults",
	}
	cmd.AddCommand(newVaultCreateCommand(rootOpts))
	cmd.AddCommand(newVaultAmountCommand(rootOpts, "deposit", "vault-deposit", "", "Credit a vault directly"))
	cmd.AddCommand(newVaultAmountCommand(rootOpts, "withdraw", "vault-withdraw", "vault-withdraw-preview", "Debit a vault, paying the penalty in force"))
	cmd.AddCommand(newVaultMergeCommand(rootOpts))
	cmd.AddCommand(newVaultTransferCommand(rootOpts, "request-deposit", "vault-deposit-request", "Request a bank transfer into a vault"))
	cmd.AddCommand(newVaultTransferCommand(rootOpts, "request-withdraw", "vault-withdraw-request", "Request a transfer out of a vault"))
	cmd.AddCommand(newVaultShowCommand(rootOpts))
	return cmd
}

func newVaultCreateCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id, name, kind, maturity, date string
		goal                           int64
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Open a vault",
		Long: `Open a vault with a commitment policy.

Kinds:
  UNTIL_NEED  10% penalty for 90 days, 3% after
  GOAL_BASED  penalty-free for 30 days after the goal is reached (--goal-cents)
  TIMED       10% penalty before --maturity

Examples:
  ghostledger vault create --id v1 --name "Rainy day"
  ghostledger vault create --id v2 --name Car --kind GOAL_BASED --goal-cents 500000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			k := params{"type": kind}
			switch kind {
			case "GOAL_BASED":
				k["goal_cents"] = goal
			case "TIMED":
				k.opt("maturity_date", maturity)
			}
			p := params{"vault_id": id, "name": name, "kind": map[string]any(k)}
			return rootOpts.run(cmd, "vault-create", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "vault id")
	cmd.Flags().StringVar(&name, "name", "", "vault name")
	cmd.Flags().StringVar(&kind, "kind", "UNTIL_NEED", "UNTIL_NEED | GOAL_BASED | TIMED")
	amountFlag(cmd, &goal, "goal-cents", "goal for GOAL_BASED vaults")
	cmd.Flags().StringVar(&maturity, "maturity", "", "maturity date for TIMED vaults")
	dateFlag(cmd, &date)
	return cmd
}

// newVaultAmountCommand builds deposit and withdraw. A non-empty preview
// command adds --preview, which runs that command instead.
func newVaultAmountCommand(rootOpts *RootOptions, use, command, preview, short string) *cobra.Command {
	var (
		id, date  string
		amount    int64
		previewed bool
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			name := command
			if previewed {
				name = preview
			}
			p := params{"vault_id": id, "amount_cents": amount}
			return rootOpts.run(cmd, name, p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "vault id")
	amountFlag(cmd, &amount, "amount", "amount")
	dateFlag(cmd, &date)
	if preview != "" {
		cmd.Flags().BoolVar(&previewed, "preview", false, "only show the penalty")
	}
	return cmd
}

func newVaultMergeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		sources                []string
		id, name, policy, date string
	)
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge vaults into a new UNTIL_NEED vault",
		Long: `Move every source balance into a new vault without penalty.

Policies:
  RESET_TIME  the merged vault enforces the early penalty for 90 days
  UNTIL_NEED  the merged vault keeps the usual until-need schedule`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"source_vault_ids": sources, "vault_id": id, "name": name, "policy": policy}
			return rootOpts.run(cmd, "vault-merge", p.opt("date", date))
		},
	}
	cmd.Flags().StringSliceVar(&sources, "sources", nil, "source vault ids (at least two)")
	cmd.Flags().StringVar(&id, "id", "", "new vault id")
	cmd.Flags().StringVar(&name, "name", "", "new vault name")
	cmd.Flags().StringVar(&policy, "policy", "RESET_TIME", "RESET_TIME | UNTIL_NEED")
	dateFlag(cmd, &date)
	return cmd
}

func newVaultTransferCommand(rootOpts *RootOptions, use, command, short string) *cobra.Command {
	var (
		id, user, transferID, from, to, date string
		amount                               int64
	)
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Long: short + `.

The vault balance changes only when the transfer succeeds
(see "ghostledger transfer run").`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"user_id": user, "vault_id": id, "amount_cents": amount}
			p.opt("transfer_id", transferID).opt("from_account_id", from).opt("to_account_id", to)
			return rootOpts.run(cmd, command, p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "vault id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	amountFlag(cmd, &amount, "amount", "amount")
	cmd.Flags().StringVar(&transferID, "transfer-id", "", "transfer id (default: generated)")
	cmd.Flags().StringVar(&from, "from", "", "source account (default: bank or vault account)")
	cmd.Flags().StringVar(&to, "to", "", "destination account (default: vault or bank account)")
	dateFlag(cmd, &date)
	return cmd
}

func newVaultShowCommand(rootOpts *RootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a vault and today's withdrawal penalty",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				log, err := s.engine.Events(context.Background())
				if err != nil {
					return err
				}
				summary, ok, err := readmodel.SelectVaultSummary(log, id, s.engine.Today())
				if err != nil {
					return err
				}
				if !ok {
					return f.Fail(ledger.NewNotFoundError("vault", id))
				}
				if f.Format == "json" {
					return f.Success(summary)
				}
				v := summary.Vault
				fmt.Fprintf(f.Writer, "%s %q (%s)\n", v.ID, v.Name, v.Kind.Type)
				fmt.Fprintf(f.Writer, "  balance: %s\n", money.Format(summary.BalanceCents))
				fmt.Fprintf(f.Writer, "  penalty today: %d%% (%s)\n", summary.PenaltyPercent, summary.PenaltyReason)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "vault id")
	return cmd
}
