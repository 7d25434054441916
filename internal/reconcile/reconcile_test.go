package reconcile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/model"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func amt(s string) decimal.NullDecimal { return model.Amount(dec(s)) }

func samplePostings() []model.Posting {
	return []model.Posting{
		{CardLast4: "0000", PostDate: "2025-05-03", Description: "UBER", AmountBRL: amt("23.90"), Category: model.CategoryTransport},
		{CardLast4: "0000", PostDate: "2025-05-04", Description: "SUPERMERCADO", AmountBRL: amt("100.00"), Category: model.CategorySupermarket},
		{CardLast4: "0000", PostDate: "2025-05-04", Description: "PAGAMENTO 7117", AmountBRL: amt("-500.00"), Category: model.CategoryPayment},
		{CardLast4: "1234", PostDate: "2025-05-05", Description: "PAGAMENTO 7117", AmountBRL: amt("-1500.00"), Category: model.CategoryPayment},
		{CardLast4: "1234", PostDate: "2025-05-10", Description: "AMAZON", AmountBRL: amt("57.00"), Category: model.CategoryFX,
			OrigAmount: amt("10.00"), OrigCurrency: "USD", FXRate: amt("5.70")},
		{CardLast4: "1234", PostDate: "2025-05-11", Description: "STEAM", AmountBRL: amt("5.94"), Category: model.CategoryFX,
			OrigAmount: amt("1.00"), OrigCurrency: "USD", FXRate: amt("5.94")},
		{CardLast4: "1234", PostDate: "2025-05-11", Description: "Repasse de IOF em R$", AmountBRL: amt("2.20"), Category: model.CategoryIOF, IOFBRL: amt("2.20")},
		{CardLast4: "1234", PostDate: "2025-05-12", Description: "ANUIDADE", AmountBRL: amt("45.00"), Category: model.CategoryServices},
		{CardLast4: "1234", PostDate: "2025-05-12", Description: "ARREDONDAMENTO", AmountBRL: amt("-0.02"), Category: model.CategoryAdjustment},
	}
}

func get(t *testing.T, m Metrics, name string) string {
	t.Helper()
	v, ok := m.Get(name)
	require.True(t, ok, "metric %q", name)
	return v.String()
}

func TestCompute(t *testing.T) {
	m := Compute(samplePostings(), "7117")

	assert.Equal(t, "0", get(t, m, MetricPriorTotal))
	assert.Equal(t, "-2000.00", get(t, m, MetricPayments))
	assert.Equal(t, "2", get(t, m, PaymentCountName("7117")))
	assert.Equal(t, "-2000.00", get(t, m, MetricPaymentsTotal))
	assert.Equal(t, "-1500.00", get(t, m, MetricLargestPayment))
	assert.Equal(t, "1", get(t, m, MetricDomesticCount), "transport is not a domestic purchase category")
	assert.Equal(t, "100.00", get(t, m, MetricDomesticTotal))
	assert.Equal(t, "2", get(t, m, MetricFXCount))
	assert.Equal(t, "62.94", get(t, m, MetricFXTotal))
	assert.Equal(t, "65.14", get(t, m, MetricFXTotalWithIOF))
	assert.Equal(t, "2.20", get(t, m, MetricIOFTotal))
	assert.Equal(t, "57.00", get(t, m, MetricLargestFX))
	assert.Equal(t, "5.94", get(t, m, MetricSmallestFX))
	assert.Equal(t, "2", get(t, m, MetricDistinctCards))
	assert.Equal(t, "45.00", get(t, m, MetricServicesTotal))
	assert.Equal(t, "1", get(t, m, MetricAdjustmentCount))
	assert.Equal(t, "-0.02", get(t, m, MetricAdjustmentTotal))
	assert.Equal(t, "234.04", get(t, m, MetricCurrentCharges))
	assert.Equal(t, "-1765.98", get(t, m, MetricInvoiceTotal))
	assert.Equal(t, "-1765.98", get(t, m, MetricComputedBalance))

	_, ok := m.Get(MetricFinancedBalance)
	assert.False(t, ok)
}

func TestCompute_FXWithoutMetadataNotCounted(t *testing.T) {
	m := Compute([]model.Posting{
		{CardLast4: "0000", AmountBRL: amt("10.00"), Category: model.CategoryFX},
	}, "7117")
	assert.Equal(t, "0", get(t, m, MetricFXCount))
	assert.Equal(t, "10.00", get(t, m, MetricInvoiceTotal))
}

func TestCompute_Empty(t *testing.T) {
	m := Compute(nil, "7117")
	assert.Equal(t, "0", get(t, m, MetricLargestPayment))
	assert.Equal(t, "0", get(t, m, MetricSmallestFX))
	assert.Equal(t, "0", get(t, m, MetricDistinctCards))
}

func TestCompare_Tolerance(t *testing.T) {
	computed := Metrics{{Name: "Total", Value: Number(dec("100.04"))}}

	v := Compare(Metrics{{Name: "Total", Value: Number(dec("100.00"))}}, computed, DefaultTolerance, nil)
	require.Len(t, v, 1)
	assert.True(t, v[0].Match)
	assert.True(t, v[0].Numeric)

	computed = Metrics{{Name: "Total", Value: Number(dec("100.06"))}}
	v = Compare(Metrics{{Name: "Total", Value: Number(dec("100.00"))}}, computed, DefaultTolerance, nil)
	assert.False(t, v[0].Match)
	assert.Equal(t, "0.06", v[0].Diff.StringFixed(2))
}

func TestCompare_ToleranceIsExclusive(t *testing.T) {
	v := Compare(
		Metrics{{Name: "Total", Value: Number(dec("100.00"))}},
		Metrics{{Name: "Total", Value: Number(dec("100.05"))}},
		DefaultTolerance, nil)
	assert.False(t, v[0].Match)
}

func TestCompare_TextCoercedWhenOtherSideNumeric(t *testing.T) {
	v := Compare(
		Metrics{{Name: "Nº de pagamentos 7117", Value: Text("6")}},
		Metrics{{Name: "Nº de pagamentos 7117", Value: Count(6)}},
		DefaultTolerance, nil)
	assert.True(t, v[0].Match)
	assert.True(t, v[0].Numeric)

	v = Compare(
		Metrics{{Name: "Total", Value: Text("1.234,56")}},
		Metrics{{Name: "Total", Value: Number(dec("1234.56"))}},
		DefaultTolerance, nil)
	assert.True(t, v[0].Match)

	v = Compare(
		Metrics{{Name: "Total", Value: Text("seis")}},
		Metrics{{Name: "Total", Value: Count(6)}},
		DefaultTolerance, nil)
	assert.False(t, v[0].Match)
}

func TestCompare_TextExact(t *testing.T) {
	v := Compare(
		Metrics{{Name: "Titular", Value: Text("JOAO")}, {Name: "Banco", Value: Text("ITAU")}},
		Metrics{{Name: "Titular", Value: Text("JOAO")}, {Name: "Banco", Value: Text("Itau")}},
		DefaultTolerance, nil)
	assert.True(t, v[0].Match)
	assert.False(t, v[1].Match)
}

func TestCompare_MissingComputed(t *testing.T) {
	ref := Metrics{
		{Name: MetricFinancedBalance, Value: Number(dec("0.00"))},
		{Name: "Outro", Value: Number(dec("-12500.00"))},
		{Name: "Texto", Value: Text("x")},
	}
	v := Compare(ref, Metrics{}, DefaultTolerance, nil)
	assert.True(t, v[0].Match, "missing numeric counts as zero")
	assert.False(t, v[0].Found)
	assert.False(t, v[1].Match)
	assert.False(t, v[2].Match)
}

func TestCompare_ReportsEvents(t *testing.T) {
	var rec events.Recorder
	Compare(
		Metrics{{Name: "a", Value: Count(1)}, {Name: "b", Value: Count(2)}},
		Metrics{{Name: "a", Value: Count(1)}, {Name: "b", Value: Count(3)}},
		DefaultTolerance, &rec)

	assert.Equal(t, 1, rec.Count(events.KindReconcileMatch))
	mismatches := rec.Of(events.KindReconcileMismatch)
	require.Len(t, mismatches, 1)
	assert.Equal(t, "b", mismatches[0].Fields["metric"])
	assert.Equal(t, "2", mismatches[0].Fields["reference"])
	assert.Equal(t, "3", mismatches[0].Fields["computed"])
}

func TestTally(t *testing.T) {
	matched, total := Tally([]Verdict{{Match: true}, {Match: false}, {Match: true}})
	assert.Equal(t, 2, matched)
	assert.Equal(t, 3, total)
}

func TestParseReference(t *testing.T) {
	data := []byte(`
Total desta fatura: 20860.60
Nº de pagamentos 7117: 6
Titular: "JOAO"
Quoted number: "6"
`)
	m, err := ParseReference(data)
	require.NoError(t, err)
	require.Len(t, m, 4)

	assert.Equal(t, []string{"Total desta fatura", "Nº de pagamentos 7117", "Titular", "Quoted number"}, m.Names())
	assert.True(t, m[0].Value.IsNum)
	assert.True(t, m[0].Value.Num.Equal(dec("20860.60")))
	assert.Equal(t, "6", m[1].Value.String())
	assert.Equal(t, Text("JOAO"), m[2].Value)
	assert.False(t, m[3].Value.IsNum)
}

func TestParseReference_Invalid(t *testing.T) {
	tests := map[string]string{
		"list":      "- 1\n- 2\n",
		"nested":    "a:\n  b: 1\n",
		"null":      "a: ~\n",
		"duplicate": "a: 1\na: 2\n",
		"syntax":    "a: [\n",
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseReference([]byte(data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidReference)
		})
	}
}

func TestParseReference_Empty(t *testing.T) {
	m, err := ParseReference(nil)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestLoadReference(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reference.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Saldo calculado: 10.5\n"), 0o644))

	m, err := LoadReference(path)
	require.NoError(t, err)
	assert.Equal(t, "10.50", get(t, m, MetricComputedBalance))

	_, err = LoadReference(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestTemplate(t *testing.T) {
	data, err := Template("7117")
	require.NoError(t, err)
	assert.Contains(t, string(data), "# Reference figures")

	m, err := ParseReference(data)
	require.NoError(t, err)
	assert.Len(t, m, len(Compute(nil, "7117"))+1)
	_, ok := m.Get(PaymentCountName("7117"))
	assert.True(t, ok)
	_, ok = m.Get(MetricFinancedBalance)
	assert.True(t, ok)
}

func TestSummarize(t *testing.T) {
	s := Summarize(samplePostings())
	assert.Equal(t, 9, s.Postings)
	assert.Equal(t, "234.04", s.Debits.StringFixed(2))
	assert.Equal(t, "-2000.02", s.Credits.StringFixed(2))
	assert.Equal(t, "-1765.98", s.Net.StringFixed(2))

	var total Summary
	total.Add(s)
	total.Add(s)
	assert.Equal(t, 18, total.Postings)
	assert.Equal(t, "-3531.96", total.Net.StringFixed(2))
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "6", Count(6).String())
	assert.Equal(t, "12.50", Number(dec("12.5")).String())
	assert.Equal(t, "abc", Text("abc").String())
}
