package reconcile

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/money"
)

// Value is a metric value: either a number or free text.
type Value struct {
	Num   decimal.Decimal
	Text  string
	IsNum bool
}

// Number returns a numeric Value.
func Number(d decimal.Decimal) Value { return Value{Num: d, IsNum: true} }

// Count returns a numeric Value for an integer count.
func Count(n int) Value { return Number(decimal.NewFromInt(int64(n))) }

// Text returns a textual Value.
func Text(s string) Value { return Value{Text: s} }

// String renders counts without decimals and amounts with two.
func (v Value) String() string {
	if !v.IsNum {
		return v.Text
	}
	if v.Num.Exponent() >= 0 {
		return v.Num.String()
	}
	return v.Num.StringFixed(2)
}

// Decimal coerces v to a number. Text is read as a plain decimal first and as
// a statement amount ("1.234,56") second.
func (v Value) Decimal() (decimal.Decimal, bool) {
	if v.IsNum {
		return v.Num, true
	}
	s := strings.TrimSpace(v.Text)
	if d, err := decimal.NewFromString(s); err == nil {
		return d, true
	}
	if strings.Contains(s, ",") {
		if d, err := money.Parse(s); err == nil {
			return d, true
		}
	}
	return decimal.Zero, false
}
