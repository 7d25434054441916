package posting

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cleared-dev/fatura/internal/dates"
	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/id"
	"github.com/cleared-dev/fatura/internal/model"
)

// ErrInvalidInstallment is returned when the installment sequence exceeds the total.
var ErrInvalidInstallment = errors.New("installment sequence exceeds total")

// Fields are the raw values a matcher extracted for one posting. Zero values
// mean "absent".
type Fields struct {
	Date              string // raw "D/M[/YYYY]" token
	Description       string
	Amount            decimal.NullDecimal
	Category          model.Category
	InstallmentSeq    model.OptInt
	InstallmentTot    model.OptInt
	OrigAmount        decimal.NullDecimal
	OrigCurrency      string
	AmountUSD         decimal.NullDecimal
	FXRate            decimal.NullDecimal
	IOF               decimal.NullDecimal
	MerchantCity      string
	PriorCyclePayment decimal.NullDecimal
}

// Builder turns matched fields into postings for one statement.
type Builder struct {
	ref   dates.Period
	sink  events.Sink
	title cases.Caser
}

// NewBuilder creates a Builder resolving dates against ref.
func NewBuilder(ref dates.Period, sink events.Sink) *Builder {
	if sink == nil {
		sink = events.Discard
	}
	return &Builder{
		ref:   ref,
		sink:  sink,
		title: cases.Title(language.BrazilianPortuguese),
	}
}

// Build assembles a posting for card. Empty required fields are reported but
// do not fail the build; an installment sequence above its total does.
func (b *Builder) Build(card string, f Fields) (model.Posting, error) {
	if f.InstallmentSeq.Valid && f.InstallmentTot.Valid && f.InstallmentSeq.Value > f.InstallmentTot.Value {
		return model.Posting{}, fmt.Errorf("%w: %d/%d", ErrInvalidInstallment, f.InstallmentSeq.Value, f.InstallmentTot.Value)
	}

	date := dates.Normalize(f.Date, b.ref)

	p := model.Posting{
		CardLast4:         card,
		PostDate:          date,
		Description:       f.Description,
		AmountBRL:         f.Amount,
		InstallmentSeq:    f.InstallmentSeq,
		InstallmentTot:    f.InstallmentTot,
		OrigAmount:        f.OrigAmount,
		OrigCurrency:      f.OrigCurrency,
		AmountUSD:         f.AmountUSD,
		FXRate:            f.FXRate,
		IOFBRL:            f.IOF,
		Category:          f.Category,
		MerchantCity:      b.merchantCity(f),
		PriorCyclePayment: f.PriorCyclePayment,
	}
	p.LedgerHash = id.LedgerHash(id.HashInput{
		Card:           card,
		Date:           date,
		Description:    f.Description,
		Amount:         f.Amount,
		InstallmentTot: f.InstallmentTot,
		Category:       f.Category,
	})

	for _, name := range p.MissingRequired() {
		events.Emit(b.sink, events.SeverityWarn, events.KindMissingField,
			"required field is empty", map[string]any{
				"field": name,
				"desc":  f.Description,
			})
	}
	return p, nil
}

// merchantCity is only set for FX postings: the explicit city, else the
// title-cased first word of a multi-word description.
func (b *Builder) merchantCity(f Fields) string {
	if f.Category != model.CategoryFX {
		return ""
	}
	if f.MerchantCity != "" {
		return f.MerchantCity
	}
	words := strings.Fields(f.Description)
	if len(words) < 2 {
		return ""
	}
	return b.title.String(words[0])
}
