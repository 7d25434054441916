// Package classify assigns a category to a posting description.
//
// Rules are plain upper-case substring tests evaluated in order; the first
// hit wins. The keyword table is order-sensitive: "BAR" shadows later
// entries for any description containing it (e.g. "BARBEARIA"), and "TUR"
// catches anything with that run of letters.
package classify

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/model"
)

// Rule maps a keyword to a category.
type Rule struct {
	Keyword  string
	Category model.Category
}

// DefaultRules is the built-in keyword table.
var DefaultRules = []Rule{
	{"ACELERADOR", model.CategoryServices},
	{"PONTOS", model.CategoryServices},
	{"ANUIDADE", model.CategoryServices},
	{"SEGURO", model.CategoryServices},
	{"TARIFA", model.CategoryServices},
	{"PRODUTO", model.CategoryServices},
	{"SERVIÇO", model.CategoryServices},
	{"SUPERMERC", model.CategorySupermarket},
	{"FARMAC", model.CategoryPharmacy},
	{"DROG", model.CategoryPharmacy},
	{"PANVEL", model.CategoryPharmacy},
	{"RESTAUR", model.CategoryRestaurant},
	{"PIZZ", model.CategoryRestaurant},
	{"BAR", model.CategoryRestaurant},
	{"CAFÉ", model.CategoryRestaurant},
	{"POSTO", model.CategoryFuel},
	{"COMBUST", model.CategoryFuel},
	{"GASOLIN", model.CategoryFuel},
	{"UBER", model.CategoryTransport},
	{"TAXI", model.CategoryTransport},
	{"TRANSP", model.CategoryTransport},
	{"PASSAGEM", model.CategoryTransport},
	{"AEROPORTO", model.CategoryTravel},
	{"HOTEL", model.CategoryTravel},
	{"TUR", model.CategoryTravel},
	{"ENTRETENIM", model.CategoryTravel},
	{"ALIMENT", model.CategoryFood},
	{"IFD", model.CategoryFood},
	{"SAUD", model.CategoryHealth},
	{"VEIC", model.CategoryVehicle},
	{"VEST", model.CategoryApparel},
	{"LOJA", model.CategoryApparel},
	{"MAGAZINE", model.CategoryApparel},
	{"EDU", model.CategoryEducation},
	{"HOBBY", model.CategoryHobby},
	{"DIVERS", model.CategoryMisc},
}

var (
	adjustmentKeywords = []string{"AJUSTE"}
	chargeKeywords     = []string{"IOF", "JUROS", "MULTA"}
	fxMarkers          = []string{"EUR", "USD", "FX"}
)

// Options configures a Classifier.
type Options struct {
	PaymentCode   string          // recipient code that marks card payments
	AdjustmentMax decimal.Decimal // |amount| in (0, AdjustmentMax] is an adjustment
	ExtraRules    []Rule          // tried before DefaultRules
}

// DefaultOptions returns the statement's standard settings.
func DefaultOptions() Options {
	return Options{
		PaymentCode:   "7117",
		AdjustmentMax: decimal.RequireFromString("0.30"),
	}
}

// Classifier maps descriptions to categories.
type Classifier struct {
	opts  Options
	rules []Rule
	sink  events.Sink
}

// New creates a Classifier. Fallbacks to DIVERSOS are reported to sink.
func New(opts Options, sink events.Sink) *Classifier {
	rules := make([]Rule, 0, len(opts.ExtraRules)+len(DefaultRules))
	for _, r := range opts.ExtraRules {
		rules = append(rules, Rule{Keyword: strings.ToUpper(r.Keyword), Category: r.Category})
	}
	rules = append(rules, DefaultRules...)
	if sink == nil {
		sink = events.Discard
	}
	return &Classifier{opts: opts, rules: rules, sink: sink}
}

// Classify returns exactly one category for desc and amount.
func (c *Classifier) Classify(desc string, amount decimal.Decimal) model.Category {
	cat, ok := c.match(desc, amount)
	if !ok {
		events.Emit(c.sink, events.SeverityWarn, events.KindSuspiciousCategory,
			"no category rule matched, review manually", map[string]any{
				"desc":   desc,
				"amount": amount.StringFixed(2),
			})
	}
	return cat
}

func (c *Classifier) match(desc string, amount decimal.Decimal) (model.Category, bool) {
	d := strings.ToUpper(desc)

	if c.opts.PaymentCode != "" && strings.Contains(d, c.opts.PaymentCode) {
		return model.CategoryPayment, true
	}

	abs := amount.Abs()
	if containsAny(d, adjustmentKeywords) || (abs.IsPositive() && abs.LessThanOrEqual(c.opts.AdjustmentMax)) {
		return model.CategoryAdjustment, true
	}

	if containsAny(d, chargeKeywords) {
		return model.CategoryCharges, true
	}

	for _, r := range c.rules {
		if r.Keyword != "" && strings.Contains(d, r.Keyword) {
			return r.Category, true
		}
	}

	if containsAny(d, fxMarkers) {
		return model.CategoryFX, true
	}

	return model.CategoryMisc, false
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
