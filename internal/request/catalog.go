package request

import (
	"encoding/json"

	"github.com/roach88/ghostledger/internal/command"
	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/engine"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/vault"
)

type builder func(name string, raw json.RawMessage) (engine.Command, error)

// handle decodes params into P and binds them to fn.
func handle[P any](fn func(log ledger.Log, env engine.Env, p P) (engine.Decision, error)) builder {
	return func(name string, raw json.RawMessage) (engine.Command, error) {
		var p P
		if err := decodeStrict(raw, &p); err != nil {
			return nil, ledger.NewValidationError("%s: %v", name, err)
		}
		return engine.Func(name, func(log ledger.Log, env engine.Env) (engine.Decision, error) {
			return fn(log, env, p)
		}), nil
	}
}

func dateOr(d dates.Date, env engine.Env) dates.Date {
	if d.IsZero() {
		return env.Today
	}
	return d
}

func idOr(id string, env engine.Env) string {
	if id == "" {
		return env.NewID()
	}
	return id
}

func events(evs []ledger.Event, err error) (engine.Decision, error) {
	return engine.Decision{Events: evs}, err
}

// TransferResult names the transfer a request command opened.
type TransferResult struct {
	TransferID string `json:"transfer_id"`
}

// WithdrawResult is the answer to a withdraw request: the opened transfer
// and the penalty it will carry.
type WithdrawResult struct {
	TransferID string         `json:"transfer_id"`
	Withdrawal vault.Decision `json:"withdrawal"`
}

var catalog = map[string]builder{
	"vault-create": handle(func(log ledger.Log, env engine.Env, p command.CreateVaultParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.CreateVault(log, p))
	}),
	"vault-deposit": handle(func(log ledger.Log, env engine.Env, p command.VaultAmountParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.DepositVault(log, p))
	}),
	"vault-withdraw": handle(func(log ledger.Log, env engine.Env, p command.VaultAmountParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		evs, d, err := command.WithdrawVault(log, p)
		return engine.Decision{Events: evs, Result: d}, err
	}),
	"vault-withdraw-preview": handle(func(log ledger.Log, env engine.Env, p command.VaultAmountParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		d, err := command.PreviewWithdraw(log, p)
		return engine.Decision{Result: d}, err
	}),
	"vault-merge": handle(func(log ledger.Log, env engine.Env, p command.MergeVaultsParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.MergeVaults(log, p))
	}),
	"vault-deposit-request": handle(func(log ledger.Log, env engine.Env, p command.VaultTransferParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		p.TransferID = idOr(p.TransferID, env)
		evs, err := command.RequestVaultDeposit(log, p)
		return engine.Decision{Events: evs, Result: TransferResult{TransferID: p.TransferID}}, err
	}),
	"vault-withdraw-request": handle(func(log ledger.Log, env engine.Env, p command.VaultTransferParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		p.TransferID = idOr(p.TransferID, env)
		evs, d, err := command.RequestVaultWithdraw(log, p)
		return engine.Decision{Events: evs, Result: WithdrawResult{TransferID: p.TransferID, Withdrawal: d}}, err
	}),
	"debt-create": handle(func(log ledger.Log, env engine.Env, p command.CreateDebtParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.CreateDebt(log, p))
	}),
	"ghost-pay-request": handle(func(log ledger.Log, env engine.Env, p command.GhostPayRequestParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		p.TransferID = idOr(p.TransferID, env)
		evs, err := command.RequestGhostPay(log, p)
		return engine.Decision{Events: evs, Result: TransferResult{TransferID: p.TransferID}}, err
	}),
	"ghost-split-request": handle(func(log ledger.Log, env engine.Env, p command.GhostSplitRequestParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		if len(p.TransferIDs) == 0 && p.TransferIDPrefix == "" {
			p.TransferIDPrefix = env.NewID()
		}
		evs, plan, err := command.RequestGhostSplitPay(log, p)
		return engine.Decision{Events: evs, Result: plan}, err
	}),
	"ghost-pay":               handle(commitGhostPay),
	"ghost-split-pay":         handle(commitGhostPay),
	"ghost-pay-preview":       handle(previewGhostPay),
	"ghost-split-pay-preview": handle(previewGhostPay),
	"challenge-start": handle(func(log ledger.Log, env engine.Env, p command.StartChallengeParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.StartChallenge(log, p))
	}),
	"challenge-week": handle(func(log ledger.Log, env engine.Env, p command.ChallengeWeekParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.RecordChallengeWeek(log, p))
	}),
	"challenge-weekly-request": handle(func(log ledger.Log, env engine.Env, p command.ChallengeWeeklyRequestParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		p.TransferID = idOr(p.TransferID, env)
		evs, err := command.RequestChallengeWeekly(log, p)
		return engine.Decision{Events: evs, Result: TransferResult{TransferID: p.TransferID}}, err
	}),
	"challenge-fail": handle(func(log ledger.Log, env engine.Env, p command.SettleChallengeParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		evs, s, err := command.FailChallenge(log, p)
		return engine.Decision{Events: evs, Result: s}, err
	}),
	"challenge-quit": handle(func(log ledger.Log, env engine.Env, p command.SettleChallengeParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		evs, s, err := command.QuitChallenge(log, p)
		return engine.Decision{Events: evs, Result: s}, err
	}),
	"challenge-catch-up": handle(func(log ledger.Log, env engine.Env, p command.CatchUpParams) (engine.Decision, error) {
		p.Today = dateOr(p.Today, env)
		return events(command.CatchUpChallenge(log, p))
	}),
	"challenge-catch-up-all": handle(func(log ledger.Log, env engine.Env, p command.CatchUpAllParams) (engine.Decision, error) {
		p.Today = dateOr(p.Today, env)
		return events(command.CatchUpAll(log, p))
	}),
	"transfer-succeed": handle(func(log ledger.Log, env engine.Env, p command.SuccessParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.ApplyTransferSuccess(log, p))
	}),
	"transfer-fail": handle(func(log ledger.Log, env engine.Env, p command.FailureParams) (engine.Decision, error) {
		p.Date = dateOr(p.Date, env)
		return events(command.ApplyTransferFailure(log, p))
	}),
}

func commitGhostPay(log ledger.Log, env engine.Env, p command.GhostPayParams) (engine.Decision, error) {
	p.Date = dateOr(p.Date, env)
	p.TransferID = idOr(p.TransferID, env)
	evs, q, err := command.CommitGhostPay(log, p)
	return engine.Decision{Events: evs, Result: q}, err
}

func previewGhostPay(log ledger.Log, env engine.Env, p command.GhostPayParams) (engine.Decision, error) {
	p.Date = dateOr(p.Date, env)
	q, err := command.PreviewGhostPay(log, p)
	return engine.Decision{Result: q}, err
}
