package money

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ErrUnparsableAmount is returned when a token holds no usable amount.
var ErrUnparsableAmount = errors.New("unparsable amount")

// Parse converts a Brazilian-formatted amount ("1.234,56", "- 12,00") into a
// decimal. Anything other than digits, comma and minus is discarded; "." is a
// thousands separator and "," the decimal separator.
func Parse(s string) (decimal.Decimal, error) {
	var b strings.Builder
	negative := false
	digits := 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == ',':
			b.WriteByte('.')
		case r == '-':
			negative = true
		}
	}
	if digits == 0 {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsableAmount, s)
	}

	d, err := decimal.NewFromString(b.String())
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrUnparsableAmount, s)
	}
	if negative {
		d = d.Neg()
	}
	return d, nil
}

// MustParse is Parse for literals known to be valid. Panics otherwise.
func MustParse(s string) decimal.Decimal {
	d, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Format renders an amount back in statement style: "1.234,56".
func Format(d decimal.Decimal) string {
	s := d.Abs().StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var grouped strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			grouped.WriteByte('.')
		}
		grouped.WriteRune(r)
	}

	out := grouped.String() + "," + frac
	if d.IsNegative() {
		out = "-" + out
	}
	return out
}
