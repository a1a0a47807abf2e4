// Package config loads ghostledger settings.
//
// Settings come from DefaultConfig, then an optional TOML file, then
// GHOSTLEDGER_* environment variables. Later sources win.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"

	"github.com/roach88/ghostledger/internal/dates"
	"github.com/roach88/ghostledger/internal/store"
	"github.com/roach88/ghostledger/internal/transfer"
)

// EnvPrefix prefixes every environment variable.
const EnvPrefix = "GHOSTLEDGER_"

// Config is the full configuration.
type Config struct {
	Store    Store    `toml:"store" envPrefix:"STORE_"`
	Log      Log      `toml:"log" envPrefix:"LOG_"`
	Provider Provider `toml:"provider" envPrefix:"PROVIDER_"`

	// Format is the CLI output format: "text" or "json".
	Format string `toml:"format" env:"FORMAT"`

	// Today pins the business date (YYYY-MM-DD). Empty means the UTC date.
	Today string `toml:"today" env:"TODAY"`
}

// Store configures the SQLite event log.
type Store struct {
	Path       string `toml:"path" env:"PATH"`
	Durability string `toml:"durability" env:"DURABILITY"`
}

// Log configures logging.
type Log struct {
	Level  string `toml:"level" env:"LEVEL"`
	Format string `toml:"format" env:"FORMAT"`
	File   string `toml:"file" env:"FILE"`
}

// Provider configures the transfer provider.
type Provider struct {
	Mode    string   `toml:"mode" env:"MODE"`
	FailIDs []string `toml:"fail_ids" env:"FAIL_IDS"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() Config {
	return Config{
		Store: Store{
			Path:       "ghostledger.db",
			Durability: string(store.DurabilityFull),
		},
		Log: Log{
			Level:  "info",
			Format: "text",
		},
		Provider: Provider{
			Mode: string(transfer.ModeSucceed),
		},
		Format: "text",
	}
}

// Load reads the file at path (skipped when empty) and the process
// environment.
func Load(path string) (Config, error) {
	return LoadFrom(path, environ())
}

// LoadFrom is Load with an explicit environment.
func LoadFrom(path string, environment map[string]string) (Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		md, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{
		Prefix:      EnvPrefix,
		Environment: environment,
	}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every enumerated setting.
func (c Config) Validate() error {
	var errs []error
	if c.Store.Path == "" {
		errs = append(errs, errors.New("store.path is required"))
	}
	if _, err := store.ParseDurability(c.Store.Durability); err != nil {
		errs = append(errs, fmt.Errorf("store.durability: %w", err))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if !validFormat(c.Log.Format) {
		errs = append(errs, fmt.Errorf("log.format: unknown format %q (want text or json)", c.Log.Format))
	}
	if !validFormat(c.Format) {
		errs = append(errs, fmt.Errorf("format: unknown format %q (want text or json)", c.Format))
	}
	if _, err := transfer.ParseMode(c.Provider.Mode); err != nil {
		errs = append(errs, fmt.Errorf("provider.mode: %w", err))
	}
	if _, _, err := c.FixedToday(); err != nil {
		errs = append(errs, fmt.Errorf("today: %w", err))
	}
	return errors.Join(errs...)
}

// LogLevel parses Log.Level.
func (c Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	err := level.UnmarshalText([]byte(c.Log.Level))
	return level, err
}

// FixedToday parses Today. ok is false when no date is pinned.
func (c Config) FixedToday() (dates.Date, bool, error) {
	if c.Today == "" {
		return dates.Date{}, false, nil
	}
	d, err := dates.Parse(c.Today)
	if err != nil {
		return dates.Date{}, false, err
	}
	return d, true, nil
}

func validFormat(f string) bool {
	return f == "text" || f == "json"
}

func environ() map[string]string {
	out := make(map[string]string)
	for _, kv := range os.Environ() {
		k, v, ok := strings.Cut(kv, "=")
		if ok && strings.HasPrefix(k, EnvPrefix) {
			out[k] = v
		}
	}
	return out
}
