package journal

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/dates"
	"github.com/cleared-dev/fatura/internal/id"
	"github.com/cleared-dev/fatura/internal/model"
)

// ValidationError describes a single invariant violation.
type ValidationError struct {
	Invariant   int
	Hash        string
	Description string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("invariant %d [%s]: %s", e.Invariant, id.Short(e.Hash), e.Description)
}

// ValidatePostings enforces 7 invariants on a statement's postings.
func ValidatePostings(postings []model.Posting) []ValidationError {
	var errs []ValidationError
	add := func(inv int, p model.Posting, format string, args ...any) {
		errs = append(errs, ValidationError{
			Invariant:   inv,
			Hash:        p.LedgerHash,
			Description: fmt.Sprintf(format, args...),
		})
	}

	for _, p := range postings {
		// Invariant 1: Required fields present.
		for _, name := range p.MissingRequired() {
			add(1, p, "required field %s is empty", name)
		}

		// Invariant 2: Normalized date.
		if p.PostDate != "" && !dates.IsNormalized(p.PostDate) {
			add(2, p, "post_date %q is not YYYY-MM-DD", p.PostDate)
		}

		// Invariant 3: Category from the closed set.
		if p.Category != "" && !p.Category.Valid() {
			add(3, p, "unknown category %q", p.Category)
		}

		// Invariant 4: Installment sequence within total.
		if p.InstallmentSeq.Valid && p.InstallmentTot.Valid && p.InstallmentSeq.Value > p.InstallmentTot.Value {
			add(4, p, "installment %d exceeds total %d", p.InstallmentSeq.Value, p.InstallmentTot.Value)
		}

		// Invariant 5: Identity hash matches the posting's fields.
		want := id.LedgerHash(id.HashInput{
			Card:           p.CardLast4,
			Date:           p.PostDate,
			Description:    p.Description,
			Amount:         p.AmountBRL,
			InstallmentTot: p.InstallmentTot,
			Category:       p.Category,
		})
		if p.LedgerHash != "" && p.LedgerHash != want {
			add(5, p, "ledger_hash does not match fields (want %s)", id.Short(want))
		}

		// Invariant 6: BRL amounts have at most 2 decimal places.
		for _, a := range []struct {
			name string
			v    decimal.NullDecimal
		}{
			{"valor_brl", p.AmountBRL},
			{"iof_brl", p.IOFBRL},
		} {
			if a.v.Valid && !a.v.Decimal.Equal(a.v.Decimal.Round(2)) {
				add(6, p, "%s %s has more than 2 decimal places", a.name, a.v.Decimal)
			}
		}

		// Invariant 7: Merchant city only on FX postings.
		if p.MerchantCity != "" && p.Category != model.CategoryFX {
			add(7, p, "merchant_city set on %s posting", p.Category)
		}
	}

	return errs
}
