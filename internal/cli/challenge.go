package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/readmodel"
)

// NewChallengeCommand creates the challenge command group.
func NewChallengeCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Run 52-week doubling savings challenges",
		Long: `Week k of a challenge requires start * 2^k.

Failing a challenge forfeits 1% of the saved total and quitting forfeits 5%.
What is left can be redirected to a vault with --redirect-vault.`,
	}
	cmd.AddCommand(newChallengeStartCommand(rootOpts))
	cmd.AddCommand(newChallengeWeekCommand(rootOpts))
	cmd.AddCommand(newChallengeRequestWeekCommand(rootOpts))
	cmd.AddCommand(newChallengeSettleCommand(rootOpts, "fail", "challenge-fail", "Fail a challenge and forfeit the failure penalty"))
	cmd.AddCommand(newChallengeSettleCommand(rootOpts, "quit", "challenge-quit", "Quit a challenge and forfeit the quit penalty"))
	cmd.AddCommand(newChallengeCatchUpCommand(rootOpts))
	cmd.AddCommand(newChallengeShowCommand(rootOpts))
	return cmd
}

func newChallengeStartCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id, date string
		start    int64
	)
	cmd := &cobra.Command{
		Use:     "start",
		Short:   "Start a challenge",
		Example: `  ghostledger challenge start --id c1 --start 100`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"challenge_id": id, "start_amount_cents": start}
			return rootOpts.run(cmd, "challenge-start", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	amountFlag(cmd, &start, "start", "week 1 amount")
	dateFlag(cmd, &date)
	return cmd
}

func newChallengeWeekCommand(rootOpts *RootOptions) *cobra.Command {
	var id, user, vault, transferID, date string
	cmd := &cobra.Command{
		Use:   "week",
		Short: "Record this week's deposit as settled",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"challenge_id": id, "user_id": user}
			p.opt("vault_id", vault).opt("transfer_id", transferID)
			return rootOpts.run(cmd, "challenge-week", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&vault, "vault", "", "vault credited with the deposit")
	cmd.Flags().StringVar(&transferID, "transfer-id", "", "transfer id (default: generated)")
	dateFlag(cmd, &date)
	return cmd
}

func newChallengeRequestWeekCommand(rootOpts *RootOptions) *cobra.Command {
	var id, user, transferID, from, to, date string
	cmd := &cobra.Command{
		Use:   "request-week",
		Short: "Request the bank transfer for this week's deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"challenge_id": id, "user_id": user}
			p.opt("transfer_id", transferID).opt("from_account_id", from).opt("to_account_id", to)
			return rootOpts.run(cmd, "challenge-weekly-request", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&transferID, "transfer-id", "", "transfer id (default: generated)")
	cmd.Flags().StringVar(&from, "from", "", "source account (default: bank:<user>)")
	cmd.Flags().StringVar(&to, "to", "", "destination account (default: challenge:<id>)")
	dateFlag(cmd, &date)
	return cmd
}

func newChallengeSettleCommand(rootOpts *RootOptions, use, command, short string) *cobra.Command {
	var id, user, redirectVault, redirectTransfer, date string
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"challenge_id": id}
			p.opt("user_id", user).opt("redirect_vault_id", redirectVault).opt("redirect_transfer_id", redirectTransfer)
			return rootOpts.run(cmd, command, p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&redirectVault, "redirect-vault", "", "vault that receives what is left after the penalty")
	cmd.Flags().StringVar(&redirectTransfer, "redirect-transfer-id", "", "redirect transfer id")
	dateFlag(cmd, &date)
	return cmd
}

func newChallengeCatchUpCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id, user, vault, today string
		all                    bool
	)
	cmd := &cobra.Command{
		Use:   "catch-up",
		Short: "Settle every week that has come due",
		Long: `Record every week that came due since the last recorded week as a
settled deposit, one simulated transfer per week.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"user_id": user}
			p.opt("vault_id", vault).opt("today", today)
			if all {
				return rootOpts.run(cmd, "challenge-catch-up-all", p)
			}
			p["challenge_id"] = id
			return rootOpts.run(cmd, "challenge-catch-up", p)
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	cmd.Flags().StringVar(&user, "user", "", "user id")
	cmd.Flags().StringVar(&vault, "vault", "", "vault credited with the deposits")
	cmd.Flags().StringVar(&today, "as-of", "", "catch up to this date (default: today)")
	cmd.Flags().BoolVar(&all, "all", false, "catch up every ACTIVE challenge")
	cmd.MarkFlagsMutuallyExclusive("id", "all")
	return cmd
}

func newChallengeShowCommand(rootOpts *RootOptions) *cobra.Command {
	var id string
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show a challenge and its next required deposit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				log, err := s.engine.Events(context.Background())
				if err != nil {
					return err
				}
				summary, ok, err := readmodel.SelectChallengeSummary(log, id)
				if err != nil {
					return err
				}
				if !ok {
					return f.Fail(ledger.NewNotFoundError("challenge", id))
				}
				if f.Format == "json" {
					return f.Success(summary)
				}
				fmt.Fprintf(f.Writer, "%s %s week %d/%d\n", id, summary.Status, summary.WeekIndex, ledger.ChallengeWeeks)
				fmt.Fprintf(f.Writer, "  saved: %s\n", money.Format(summary.TotalSavedCents))
				if summary.NextRequiredCents != nil {
					fmt.Fprintf(f.Writer, "  next: %s\n", money.Format(*summary.NextRequiredCents))
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "challenge id")
	return cmd
}
