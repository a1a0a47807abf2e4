package cli

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/engine"
	"github.com/roach88/ghostledger/internal/store"
	"github.com/roach88/ghostledger/internal/transfer"
)

// session is one open ledger: the SQLite log and an engine over it.
type session struct {
	store    *store.Store
	engine   *engine.Engine
	registry *prometheus.Registry
	logger   *slog.Logger
}

// open opens the configured database and builds an engine with the
// configured clock and provider.
func (o *RootOptions) open() (*session, error) {
	durability, err := store.ParseDurability(o.cfg.Store.Durability)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	st, err := store.Open(o.cfg.Store.Path, store.WithDurability(durability))
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open database", err)
	}

	mode, err := transfer.ParseMode(o.cfg.Provider.Mode)
	if err != nil {
		st.Close()
		return nil, WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	provider := transfer.NewSimulated(mode)
	provider.FailIDs = o.cfg.Provider.FailIDs

	var clock engine.Clock = engine.SystemClock{}
	if day, ok, _ := o.cfg.FixedToday(); ok {
		clock = engine.NewFixedClock(day)
	}

	reg := prometheus.NewRegistry()
	s := &session{
		store:    st,
		registry: reg,
		logger:   o.logger,
		engine: engine.New(st,
			engine.WithProvider(provider),
			engine.WithClock(clock),
			engine.WithLogger(o.logger),
			engine.WithMetrics(engine.NewMetrics(reg)),
		),
	}
	o.logger.Debug("ledger opened", "db", o.cfg.Store.Path, "durability", durability, "provider", mode)
	return s, nil
}

// Close logs the session's counters at debug level and closes the store.
func (s *session) Close() error {
	if s.logger.Enabled(context.Background(), slog.LevelDebug) {
		s.logMetrics()
	}
	return s.store.Close()
}

func (s *session) logMetrics() {
	families, err := s.registry.Gather()
	if err != nil {
		s.logger.Debug("gather metrics failed", "error", err)
		return
	}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			attrs := []any{"metric", mf.GetName()}
			for _, lp := range m.GetLabel() {
				attrs = append(attrs, lp.GetName(), lp.GetValue())
			}
			switch {
			case m.GetCounter() != nil:
				attrs = append(attrs, "value", m.GetCounter().GetValue())
			case m.GetHistogram() != nil:
				attrs = append(attrs, "count", m.GetHistogram().GetSampleCount(), "sum", m.GetHistogram().GetSampleSum())
			}
			s.logger.Debug("metric", attrs...)
		}
	}
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// withSession opens a session, runs fn and reports its error.
func (o *RootOptions) withSession(cmd *cobra.Command, fn func(*session, *OutputFormatter) error) error {
	f := o.formatter(cmd)
	s, err := o.open()
	if err != nil {
		return f.Fail(err)
	}
	defer s.Close()
	f.VerboseLog("ledger %s, today %s", o.cfg.Store.Path, s.engine.Today())

	if err := fn(s, f); err != nil {
		if IsReported(err) {
			return err
		}
		return f.Fail(fmt.Errorf("%s: %w", cmd.CommandPath(), err))
	}
	return nil
}
