package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/events"
)

// DefaultTolerance is the largest absolute difference treated as a match.
var DefaultTolerance = decimal.RequireFromString("0.05")

// Verdict is the outcome of comparing one reference metric.
type Verdict struct {
	Name      string
	Reference Value
	Computed  Value
	Found     bool // a computed metric of that name exists
	Numeric   bool // compared as numbers
	Diff      decimal.Decimal
	Match     bool
}

// Compare checks every reference metric against its computed counterpart.
// When either side is numeric both are compared as numbers, a missing
// computed value counting as zero, and match when they differ by less than
// tolerance. Otherwise the texts must be equal. Results are reported to sink
// and never affect the postings.
func Compare(ref, computed Metrics, tolerance decimal.Decimal, sink events.Sink) []Verdict {
	out := make([]Verdict, 0, len(ref))
	for _, r := range ref {
		c, found := computed.Get(r.Name)
		v := Verdict{Name: r.Name, Reference: r.Value, Computed: c, Found: found}

		if r.Value.IsNum || c.IsNum {
			v.Numeric = true
			a, okA := r.Value.Decimal()
			b, okB := decimal.Zero, true
			if found {
				b, okB = c.Decimal()
			}
			if okA && okB {
				v.Diff = a.Sub(b).Abs()
				v.Match = v.Diff.LessThan(tolerance)
			}
		} else {
			v.Match = found && r.Value.Text == c.Text
		}

		report(sink, v)
		out = append(out, v)
	}
	return out
}

func report(sink events.Sink, v Verdict) {
	fields := map[string]any{
		"metric":    v.Name,
		"reference": v.Reference.String(),
		"computed":  v.Computed.String(),
	}
	if v.Numeric {
		fields["diff"] = v.Diff.StringFixed(2)
	}
	if v.Match {
		events.Emit(sink, events.SeverityInfo, events.KindReconcileMatch, "metric matches", fields)
		return
	}
	events.Emit(sink, events.SeverityWarn, events.KindReconcileMismatch, "metric differs from reference", fields)
}

// Tally counts matching verdicts.
func Tally(vs []Verdict) (matched, total int) {
	for _, v := range vs {
		if v.Match {
			matched++
		}
	}
	return matched, len(vs)
}
