package id

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/model"
)

// HashInput holds the fields that identify a posting.
type HashInput struct {
	Card           string
	Date           string // normalized
	Description    string
	Amount         decimal.NullDecimal
	InstallmentTot model.OptInt
	Category       model.Category
}

// LedgerHash returns the hex SHA-1 of "card|date|desc|amount|inst_tot|category".
// Amounts are rendered by amountKey so 12.0 and 12.00 hash alike.
func LedgerHash(in HashInput) string {
	amount := ""
	if in.Amount.Valid {
		amount = amountKey(in.Amount.Decimal)
	}
	key := strings.Join([]string{
		in.Card,
		in.Date,
		in.Description,
		amount,
		in.InstallmentTot.String(),
		string(in.Category),
	}, "|")
	sum := sha1.Sum([]byte(key))
	return hex.EncodeToString(sum[:])
}

// FXKey identifies a foreign-exchange block by description, raw date, BRL
// amount, original amount, currency and rate.
func FXKey(desc, rawDate string, brl, orig decimal.Decimal, currency string, rate decimal.Decimal) string {
	return strings.Join([]string{
		desc,
		rawDate,
		amountKey(brl),
		amountKey(orig),
		strings.ToUpper(currency),
		rate.String(),
	}, "|")
}

// amountKey renders d with two decimals, or with as many as it needs beyond
// the cent, ignoring trailing zeros: 12 -> "12.00", 1.2310 -> "1.231".
func amountKey(d decimal.Decimal) string {
	places := int32(2)
	for exp := -d.Exponent(); exp > places; exp-- {
		if !d.Equal(d.Round(exp - 1)) {
			places = exp
			break
		}
	}
	return d.StringFixed(places)
}

// Short returns the first 8 characters of a hash, for log lines.
func Short(hash string) string {
	if len(hash) > 8 {
		return hash[:8]
	}
	return hash
}
