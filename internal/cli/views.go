package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/readmodel"
	"github.com/roach88/ghostledger/internal/request"
)

// NewDashboardCommand creates the dashboard command.
func NewDashboardCommand(rootOpts *RootOptions) *cobra.Command {
	var catchUpUser, catchUpVault string
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show vaults, debts, challenges and pending transfers",
		Long: `Show every vault with today's withdrawal penalty, every debt, every
challenge with its next deposit and the transfers still in flight.

With --catch-up-user, ACTIVE challenges are caught up to today first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				ctx := context.Background()
				if catchUpUser != "" {
					if err := catchUpAll(ctx, s, catchUpUser, catchUpVault); err != nil {
						return f.Fail(err)
					}
				}
				log, err := s.engine.Events(ctx)
				if err != nil {
					return err
				}
				d, err := readmodel.SelectDashboard(log, s.engine.Today())
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(d)
				}
				return writeDashboard(f.Writer, d)
			})
		},
	}
	cmd.Flags().StringVar(&catchUpUser, "catch-up-user", "", "catch up ACTIVE challenges for this user first")
	cmd.Flags().StringVar(&catchUpVault, "catch-up-vault", "", "vault credited by the catch-up")
	return cmd
}

func catchUpAll(ctx context.Context, s *session, user, vault string) error {
	schema, err := request.Default()
	if err != nil {
		return err
	}
	raw, err := json.Marshal(params{"user_id": user}.opt("vault_id", vault))
	if err != nil {
		return err
	}
	cmd, err := schema.Build(request.Request{Command: "challenge-catch-up-all", Params: raw})
	if err != nil {
		return err
	}
	_, err = s.engine.Execute(ctx, cmd, "")
	return err
}

func writeDashboard(w io.Writer, d readmodel.Dashboard) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintln(tw, "VAULT\tNAME\tKIND\tBALANCE\tPENALTY")
	for _, v := range d.Vaults {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d%% %s\n",
			v.Vault.ID, v.Vault.Name, v.Vault.Kind.Type, money.Format(v.BalanceCents), v.PenaltyPercent, v.PenaltyReason)
	}
	fmt.Fprintf(tw, "\ttotal saved\t\t%s\t\n", money.Format(d.TotalSavedCents))

	fmt.Fprintln(tw, "\nDEBT\tNAME\tMINIMUM\tREMAINING\t")
	for _, debt := range d.Debts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t\n",
			debt.ID, debt.Name, money.Format(debt.MinimumPaymentCents), money.Format(debt.RemainingCents))
	}
	fmt.Fprintf(tw, "\ttotal owed\t\t%s\t\n", money.Format(d.TotalOwedCents))

	fmt.Fprintln(tw, "\nCHALLENGE\tSTATUS\tWEEK\tSAVED\tNEXT")
	for _, c := range d.Challenges {
		next := "-"
		if c.NextRequiredCents != nil {
			next = money.Format(*c.NextRequiredCents)
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\n",
			c.Challenge.ID, c.Status, c.WeekIndex, money.Format(c.TotalSavedCents), next)
	}

	if len(d.PendingTransfers) > 0 {
		fmt.Fprintln(tw, "\nPENDING\tREASON\tAMOUNT\tFROM\tTO")
		for _, t := range d.PendingTransfers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
				t.TransferID, t.Reason, money.Format(t.AmountCents), t.FromAccountID, t.ToAccountID)
		}
	}
	return tw.Flush()
}

// NewTimelineCommand creates the timeline command.
func NewTimelineCommand(rootOpts *RootOptions) *cobra.Command {
	var typ string
	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Print the event log as a human-readable timeline",
		Example: `  ghostledger timeline
  ghostledger timeline --type TRANSFER_FAILED`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				entries, err := timelineEntries(context.Background(), s, ledger.Type(typ))
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(entries)
				}
				_, err = io.WriteString(f.Writer, readmodel.FormatTimeline(entries))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&typ, "type", "", "only show events of this type")
	return cmd
}

// timelineEntries describes the whole log, or only the stored rows of typ
// with their log sequence numbers.
func timelineEntries(ctx context.Context, s *session, typ ledger.Type) ([]readmodel.Entry, error) {
	if typ == "" {
		log, err := s.engine.Events(ctx)
		if err != nil {
			return nil, err
		}
		return readmodel.Timeline(log), nil
	}
	if !slices.Contains(ledger.AllTypes(), typ) {
		return nil, ledger.NewValidationError("unknown event type %q", typ)
	}
	records, err := s.store.RecordsByType(ctx, typ)
	if err != nil {
		return nil, err
	}
	entries := make([]readmodel.Entry, 0, len(records))
	for _, r := range records {
		e, err := r.Event()
		if err != nil {
			return nil, fmt.Errorf("timeline: %w", err)
		}
		entries = append(entries, readmodel.NewEntry(int(r.Seq), e))
	}
	return entries, nil
}
