package model

import (
	"strconv"

	"github.com/shopspring/decimal"
)

// Category is the high-level tag attached to every posting.
type Category string

const (
	CategoryPayment     Category = "PAGAMENTO"
	CategoryAdjustment  Category = "AJUSTE"
	CategoryCharges     Category = "ENCARGOS"
	CategoryFX          Category = "FX"
	CategoryIOF         Category = "IOF"
	CategoryServices    Category = "SERVIÇOS"
	CategorySupermarket Category = "SUPERMERCADO"
	CategoryPharmacy    Category = "FARMÁCIA"
	CategoryRestaurant  Category = "RESTAURANTE"
	CategoryFuel        Category = "POSTO"
	CategoryTransport   Category = "TRANSPORTE"
	CategoryTravel      Category = "TURISMO"
	CategoryFood        Category = "ALIMENTAÇÃO"
	CategoryHealth      Category = "SAÚDE"
	CategoryVehicle     Category = "VEÍCULOS"
	CategoryApparel     Category = "VESTUÁRIO"
	CategoryEducation   Category = "EDUCAÇÃO"
	CategoryHobby       Category = "HOBBY"
	CategoryMisc        Category = "DIVERSOS"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryPayment, CategoryAdjustment, CategoryCharges, CategoryFX, CategoryIOF,
	CategoryServices, CategorySupermarket, CategoryPharmacy, CategoryRestaurant,
	CategoryFuel, CategoryTransport, CategoryTravel, CategoryFood, CategoryHealth,
	CategoryVehicle, CategoryApparel, CategoryEducation, CategoryHobby, CategoryMisc,
}

// Valid reports whether c belongs to the closed category set.
func (c Category) Valid() bool {
	for _, k := range Categories {
		if c == k {
			return true
		}
	}
	return false
}

// Domestic reports whether c counts as a domestic purchase in the statement
// totals.
func (c Category) Domestic() bool {
	switch c {
	case CategoryFood, CategoryHealth, CategoryApparel, CategoryVehicle,
		CategoryPharmacy, CategorySupermarket, CategoryFuel, CategoryRestaurant,
		CategoryTravel:
		return true
	}
	return false
}

// OptInt is an integer that may be absent.
type OptInt struct {
	Value int
	Valid bool
}

// Int returns a present OptInt.
func Int(v int) OptInt { return OptInt{Value: v, Valid: true} }

// String renders the value, or "" when absent.
func (o OptInt) String() string {
	if !o.Valid {
		return ""
	}
	return strconv.Itoa(o.Value)
}

// Amount returns a present decimal.
func Amount(d decimal.Decimal) decimal.NullDecimal {
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Posting is one normalized line item of a card statement. Absent optional
// values are the zero NullDecimal / OptInt / "".
type Posting struct {
	CardLast4         string
	PostDate          string // YYYY-MM-DD
	Description       string
	AmountBRL         decimal.NullDecimal // negative = credit
	InstallmentSeq    OptInt
	InstallmentTot    OptInt
	OrigAmount        decimal.NullDecimal
	OrigCurrency      string
	AmountUSD         decimal.NullDecimal
	FXRate            decimal.NullDecimal
	IOFBRL            decimal.NullDecimal
	Category          Category
	MerchantCity      string
	LedgerHash        string
	PriorCyclePayment decimal.NullDecimal
}

// Schema is the fixed output column order.
var Schema = []string{
	"card_last4", "post_date", "desc_raw", "valor_brl",
	"installment_seq", "installment_tot",
	"valor_orig", "moeda_orig", "valor_usd", "fx_rate",
	"iof_brl", "categoria_high", "merchant_city", "ledger_hash",
	"pagamento_fatura_anterior",
}

// RequiredFields are the schema columns that must never be empty.
var RequiredFields = []string{
	"card_last4", "post_date", "desc_raw", "valor_brl", "categoria_high", "ledger_hash",
}

// Field returns the textual value of a schema column, "" when absent.
func (p Posting) Field(name string) string {
	switch name {
	case "card_last4":
		return p.CardLast4
	case "post_date":
		return p.PostDate
	case "desc_raw":
		return p.Description
	case "valor_brl":
		return fixed(p.AmountBRL)
	case "installment_seq":
		return p.InstallmentSeq.String()
	case "installment_tot":
		return p.InstallmentTot.String()
	case "valor_orig":
		return fixed(p.OrigAmount)
	case "moeda_orig":
		return p.OrigCurrency
	case "valor_usd":
		return fixed(p.AmountUSD)
	case "fx_rate":
		return fixed(p.FXRate)
	case "iof_brl":
		return fixed(p.IOFBRL)
	case "categoria_high":
		return string(p.Category)
	case "merchant_city":
		return p.MerchantCity
	case "ledger_hash":
		return p.LedgerHash
	case "pagamento_fatura_anterior":
		return fixed(p.PriorCyclePayment)
	}
	return ""
}

// Record returns the posting as one value per Schema column.
func (p Posting) Record() []string {
	row := make([]string, len(Schema))
	for i, name := range Schema {
		row[i] = p.Field(name)
	}
	return row
}

// MissingRequired lists the required columns that are empty.
func (p Posting) MissingRequired() []string {
	var missing []string
	for _, name := range RequiredFields {
		if p.Field(name) == "" {
			missing = append(missing, name)
		}
	}
	return missing
}

// Complete reports whether the posting carries both a date and an amount.
func (p Posting) Complete() bool {
	return p.PostDate != "" && p.AmountBRL.Valid
}

// fixed renders at least two decimals, keeping finer precision (FX rates).
func fixed(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	places := int32(2)
	if exp := -d.Decimal.Exponent(); exp > places {
		places = exp
	}
	return d.Decimal.StringFixed(places)
}
