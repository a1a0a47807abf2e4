package cli

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/engine"
	"github.com/roach88/ghostledger/internal/money"
	"github.com/roach88/ghostledger/internal/readmodel"
)

// NewTransferCommand creates the transfer command group.
func NewTransferCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transfer",
		Short: "Settle requested transfers",
		Long: `Transfers move money in two phases. A request records TRANSFER_REQUESTED;
balances change only when the transfer is settled as succeeded.

Settle by hand with "succeed" and "fail", or let the configured provider
decide with "run".`,
	}
	cmd.AddCommand(newTransferSucceedCommand(rootOpts))
	cmd.AddCommand(newTransferFailCommand(rootOpts))
	cmd.AddCommand(newTransferRunCommand(rootOpts))
	cmd.AddCommand(newTransferPendingCommand(rootOpts))
	return cmd
}

func newTransferSucceedCommand(rootOpts *RootOptions) *cobra.Command {
	var id, ref, date string
	cmd := &cobra.Command{
		Use:   "succeed",
		Short: "Settle a transfer as succeeded and apply its effects",
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"transfer_id": id, "provider_ref": ref}
			return rootOpts.run(cmd, "transfer-succeed", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "transfer id")
	cmd.Flags().StringVar(&ref, "ref", "", "provider reference")
	dateFlag(cmd, &date)
	return cmd
}

func newTransferFailCommand(rootOpts *RootOptions) *cobra.Command {
	var id, code, message, redirectVault, redirectTransfer, date string
	cmd := &cobra.Command{
		Use:   "fail",
		Short: "Settle a transfer as failed",
		Long: `Settle a transfer as failed. A failed weekly challenge transfer also fails
the challenge; --redirect-vault then requests a transfer of what is left
after the penalty.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := params{"transfer_id": id, "error_code": code, "message": message}
			p.opt("redirect_vault_id", redirectVault).opt("redirect_transfer_id", redirectTransfer)
			return rootOpts.run(cmd, "transfer-fail", p.opt("date", date))
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "transfer id")
	cmd.Flags().StringVar(&code, "code", "", "provider error code")
	cmd.Flags().StringVar(&message, "message", "", "provider error message")
	cmd.Flags().StringVar(&redirectVault, "redirect-vault", "", "vault for a failed challenge's remaining savings")
	cmd.Flags().StringVar(&redirectTransfer, "redirect-transfer-id", "", "redirect transfer id")
	dateFlag(cmd, &date)
	return cmd
}

func newTransferRunCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		id      string
		pending bool
		opts    engine.SettleOptions
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Send requested transfers to the provider and settle them",
		Example: `  ghostledger transfer run --id t_1
  ghostledger transfer run --pending`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !pending && id == "" {
				return rootOpts.formatter(cmd).Fail(NewExitError(ExitCommandError, "one of --id or --pending is required"))
			}
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				ctx := context.Background()
				if !pending {
					resp, err := s.engine.RunTransfer(ctx, id, opts)
					if err != nil {
						return f.Fail(err)
					}
					return render(f, resp)
				}
				n, err := s.engine.RunPending(ctx)
				if err != nil {
					return f.Fail(err)
				}
				if f.Format == "json" {
					return f.Success(map[string]int{"settled": n})
				}
				fmt.Fprintf(f.Writer, "settled %d transfer(s)\n", n)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&id, "id", "", "transfer id")
	cmd.Flags().BoolVar(&pending, "pending", false, "settle every REQUESTED transfer")
	cmd.Flags().StringVar(&opts.RedirectVaultID, "redirect-vault", "", "vault for a failed challenge's remaining savings")
	cmd.Flags().StringVar(&opts.RedirectTransferID, "redirect-transfer-id", "", "redirect transfer id")
	cmd.MarkFlagsMutuallyExclusive("id", "pending")
	cmd.MarkFlagsMutuallyExclusive("pending", "redirect-vault")
	return cmd
}

func newTransferPendingCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "pending",
		Short: "List transfers waiting for settlement",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withSession(cmd, func(s *session, f *OutputFormatter) error {
				log, err := s.engine.Events(context.Background())
				if err != nil {
					return err
				}
				pending, err := readmodel.PendingTransfers(log)
				if err != nil {
					return err
				}
				if f.Format == "json" {
					return f.Success(pending)
				}
				if len(pending) == 0 {
					fmt.Fprintln(f.Writer, "No pending transfers.")
					return nil
				}
				tw := tabwriter.NewWriter(f.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tREASON\tAMOUNT\tFROM\tTO\tREQUESTED")
				for _, t := range pending {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
						t.TransferID, t.Reason, money.Format(t.AmountCents), t.FromAccountID, t.ToAccountID, t.RequestedOn)
				}
				return tw.Flush()
			})
		},
	}
}
