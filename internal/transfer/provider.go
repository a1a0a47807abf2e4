// Package transfer executes requested transfers against a payment provider.
//
// A provider only moves money; it never touches the ledger. Execute turns the
// provider's answer into the TRANSFER_SUCCEEDED or TRANSFER_FAILED event that
// settles the request, and the command layer derives any effect events from
// that.
package transfer

import (
	"context"
	"fmt"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/ledger"
	"github.com/roach88/ghostledger/internal/money"
)

// Request is what a provider sees of a pending transfer.
type Request struct {
	TransferID    string                `json:"transfer_id"`
	UserID        string                `json:"user_id"`
	FromAccountID string                `json:"from_account_id"`
	ToAccountID   string                `json:"to_account_id"`
	AmountCents   money.Cents           `json:"amount_cents"`
	Reason        ledger.TransferReason `json:"reason"`
	Date          dates.Date            `json:"date"`
}

// FromTransfer builds the provider request for a pending transfer.
func FromTransfer(t ledger.Transfer) Request {
	return Request{
		TransferID:    t.ID,
		UserID:        t.UserID,
		FromAccountID: t.FromAccountID,
		ToAccountID:   t.ToAccountID,
		AmountCents:   t.AmountCents,
		Reason:        t.Reason,
		Date:          t.RequestedOn,
	}
}

// Result is a provider's answer. OK results carry a provider reference;
// declined results carry an error code and message.
type Result struct {
	OK          bool   `json:"ok"`
	ProviderRef string `json:"provider_ref,omitempty"`
	ErrorCode   string `json:"error_code,omitempty"`
	Message     string `json:"message,omitempty"`
}

// Provider moves money between accounts. A declined transfer is a Result
// with OK false; an error means the outcome is unknown and the transfer
// stays REQUESTED.
type Provider interface {
	RequestTransfer(ctx context.Context, req Request) (Result, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request) (Result, error)

// RequestTransfer calls f.
func (f ProviderFunc) RequestTransfer(ctx context.Context, req Request) (Result, error) {
	return f(ctx, req)
}

// Execute asks p to perform req and returns the settling event dated on.
func Execute(ctx context.Context, p Provider, req Request, on dates.Date) (ledger.Event, error) {
	res, err := p.RequestTransfer(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("request transfer %s: %w", req.TransferID, err)
	}
	if res.OK {
		if res.ProviderRef == "" {
			return nil, fmt.Errorf("request transfer %s: provider returned no reference", req.TransferID)
		}
		return ledger.TransferSucceeded{TransferID: req.TransferID, ProviderRef: res.ProviderRef, Date: on}, nil
	}
	code := res.ErrorCode
	if code == "" {
		code = "PROVIDER_DECLINED"
	}
	return ledger.TransferFailed{TransferID: req.TransferID, ErrorCode: code, Message: res.Message, Date: on}, nil
}
