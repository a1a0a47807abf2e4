package cli

import (
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/config"
	"github.com/roach88/ghostledger/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose        bool
	Format         string // "json" | "text"
	Database       string
	ConfigPath     string
	Today          string
	IdempotencyKey string

	cfg       config.Config
	logger    *slog.Logger
	logCloser io.Closer
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the ghostledger CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{logger: logging.Discard()}

	cmd := &cobra.Command{
		Use:   "ghostledger",
		Short: "ghostledger - an event-sourced savings ledger",
		Long: `A personal-finance ledger built on an append-only event log.

Vaults, debts and savings challenges are replayed from the log on every
command; money only moves through two-phase transfers.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.logCloser != nil {
				return opts.logCloser.Close()
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite database (default from config)")
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "path to TOML config file")
	cmd.PersistentFlags().StringVar(&opts.Today, "today", "", "business date YYYY-MM-DD (default: current UTC date)")
	cmd.PersistentFlags().StringVar(&opts.IdempotencyKey, "idempotency-key", "", "cache the response under this key")

	// Add subcommands
	cmd.AddCommand(NewVaultCommand(opts))
	cmd.AddCommand(NewDebtCommand(opts))
	cmd.AddCommand(NewGhostCommand(opts))
	cmd.AddCommand(NewChallengeCommand(opts))
	cmd.AddCommand(NewTransferCommand(opts))
	cmd.AddCommand(NewExecCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewDashboardCommand(opts))
	cmd.AddCommand(NewTimelineCommand(opts))
	cmd.AddCommand(NewReplayCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))

	return cmd
}

// setup merges the config file, environment and flags, then builds the
// logger. Flags win over the environment, which wins over the file.
func (o *RootOptions) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.Store.Path = o.Database
	}
	if flags.Changed("format") {
		cfg.Format = o.Format
	}
	if flags.Changed("today") {
		cfg.Today = o.Today
	}
	if !isValidFormat(cfg.Format) {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", cfg.Format, ValidFormats))
	}
	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "invalid configuration", err)
	}
	o.Format = cfg.Format
	o.cfg = cfg

	level, _ := cfg.LogLevel()
	if o.Verbose {
		level = slog.LevelDebug
	}
	logger, closer, err := logging.New(cmd.ErrOrStderr(), logging.Options{
		Level:  level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to set up logging", err)
	}
	o.logger = logger
	o.logCloser = closer
	return nil
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}
