package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/ghostledger/internal/money"
)

// params collects request params from flags. Optional values are only set
// when non-empty so the request schema sees them as absent.
type params map[string]any

func (p params) opt(key, value string) params {
	if value != "" {
		p[key] = value
	}
	return p
}

func (p params) optList(key string, values []string) params {
	if len(values) > 0 {
		p[key] = values
	}
	return p
}

// dateFlag registers the --date flag shared by every dated command.
func dateFlag(cmd *cobra.Command, target *string) {
	cmd.Flags().StringVar(target, "date", "", "event date YYYY-MM-DD (default: today)")
}

// amountValue parses a money flag. A plain integer is cents; a leading "$"
// or a decimal point means dollars ("$12.50", "12.5").
type amountValue struct{ cents *int64 }

func (a amountValue) String() string {
	if a.cents == nil {
		return "0"
	}
	return strconv.FormatInt(*a.cents, 10)
}

func (a amountValue) Type() string { return "amount" }

func (a amountValue) Set(s string) error {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if dollars, ok := strings.CutPrefix(s, "$"); ok || strings.Contains(s, ".") {
		c, err := money.FromDollars(dollars)
		if err != nil {
			return err
		}
		*a.cents = int64(c)
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("parse cents %q: %w", s, err)
	}
	*a.cents = n
	return nil
}

// amountFlag registers a money flag that accepts cents or dollars.
func amountFlag(cmd *cobra.Command, target *int64, name, usage string) {
	cmd.Flags().Var(amountValue{cents: target}, name, usage+" in cents, or dollars as $12.50")
}
