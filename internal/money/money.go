package money

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Cents is a monetary amount in integer cents.
type Cents int64

// Zero is the zero amount.
const Zero Cents = 0

var hundred = decimal.NewFromInt(100)

// Add returns a + b.
func Add(a, b Cents) Cents { return a + b }

// Sub returns a - b. The result may be negative; callers that need a
// non-negative balance check before subtracting.
func Sub(a, b Cents) Cents { return a - b }

// Mul multiplies c by a decimal factor and rounds to the nearest cent,
// half away from zero.
func Mul(c Cents, factor decimal.Decimal) Cents {
	return Cents(decimal.NewFromInt(int64(c)).Mul(factor).Round(0).IntPart())
}

// Pct returns floor(c * percent / 100).
func Pct(c Cents, percent int64) Cents {
	v := decimal.NewFromInt(int64(c)).Mul(decimal.NewFromInt(percent)).Div(hundred)
	return Cents(v.Floor().IntPart())
}

// Split divides total into a penalty of floor(total * percent / 100) and the
// remainder. penalty + rest == total always holds.
func Split(total Cents, percent int64) (penalty, rest Cents) {
	penalty = Pct(total, percent)
	return penalty, total - penalty
}

// Min returns the smaller of the given amounts.
func Min(first Cents, rest ...Cents) Cents {
	m := first
	for _, c := range rest {
		if c < m {
			m = c
		}
	}
	return m
}

// Max returns the larger of a and b.
func Max(a, b Cents) Cents {
	if a > b {
		return a
	}
	return b
}

// FromDollars parses a decimal dollar string ("12.34", "5") into cents.
// More than two fractional digits is an error rather than a silent rounding.
func FromDollars(s string) (Cents, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, fmt.Errorf("parse dollars %q: %w", s, err)
	}
	cents := d.Mul(hundred)
	if !cents.Equal(cents.Truncate(0)) {
		return 0, fmt.Errorf("parse dollars %q: more than two decimal places", s)
	}
	return Cents(cents.IntPart()), nil
}

// ToDollars converts cents to an exact decimal dollar amount.
func ToDollars(c Cents) decimal.Decimal {
	return decimal.New(int64(c), -2)
}

var printer = message.NewPrinter(language.English)

// Format renders c as "$1,234.56" ("-$5.00" for negative amounts).
func Format(c Cents) string {
	sign := ""
	v := int64(c)
	if v < 0 {
		sign = "-"
		if v == math.MinInt64 {
			return sign + "$" + ToDollars(c).Abs().StringFixed(2)
		}
		v = -v
	}
	return fmt.Sprintf("%s$%s.%02d", sign, printer.Sprintf("%d", v/100), v%100)
}

// String implements fmt.Stringer.
func (c Cents) String() string { return Format(c) }
