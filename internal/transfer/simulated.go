package transfer

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Mode selects how the simulated provider answers.
type Mode string

const (
	ModeSucceed Mode = "sim"
	ModeFail    Mode = "fail"
)

// ParseMode validates a configured provider mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeSucceed, "":
		return ModeSucceed, nil
	case ModeFail:
		return ModeFail, nil
	default:
		return "", fmt.Errorf("unknown provider mode %q (want sim or fail)", s)
	}
}

// Simulated is an in-process provider. It succeeds with reference
// RefPrefix + transfer id unless its mode is ModeFail or the transfer id is in
// FailIDs. Every request is recorded.
type Simulated struct {
	Mode      Mode
	RefPrefix string
	ErrorCode string
	Message   string
	FailIDs   []string

	mu       sync.Mutex
	requests []Request
}

// NewSimulated returns a provider answering in mode.
func NewSimulated(mode Mode) *Simulated {
	return &Simulated{
		Mode:      mode,
		RefPrefix: "sim_",
		ErrorCode: "SIMULATED_DECLINE",
		Message:   "simulated provider declined the transfer",
	}
}

// RequestTransfer implements Provider.
func (s *Simulated) RequestTransfer(ctx context.Context, req Request) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()

	if s.Mode == ModeFail || slices.Contains(s.FailIDs, req.TransferID) {
		return Result{ErrorCode: s.ErrorCode, Message: s.Message}, nil
	}
	return Result{OK: true, ProviderRef: s.RefPrefix + req.TransferID}, nil
}

// Requests returns the requests seen so far.
func (s *Simulated) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}
