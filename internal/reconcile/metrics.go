package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/model"
)

// Metric names, as printed on the statement.
const (
	MetricPriorTotal         = "Total da fatura anterior"
	MetricPayments           = "Pagamentos efetuados"
	MetricFinancedBalance    = "Saldo financiado"
	MetricCurrentCharges     = "Lançamentos atuais"
	MetricInvoiceTotal       = "Total desta fatura"
	MetricPaymentsTotal      = "Valor total dos pagamentos"
	MetricLargestPayment     = "Valor do maior pagamento"
	MetricDomesticCount      = "Nº de compras domésticas"
	MetricDomesticTotal      = "Valor total compras domésticas"
	MetricFXCount            = "Nº de compras internacionais"
	MetricFXTotal            = "Valor total compras internacionais (BRL)"
	MetricFXTotalWithIOF     = "Valor total lançamentos internacionais (BRL)"
	MetricIOFTotal           = "Valor total IOF internacional"
	MetricLargestFX          = "Maior compra internacional"
	MetricSmallestFX         = "Menor compra internacional"
	MetricDistinctCards      = "Nº de cartões diferentes"
	MetricServicesTotal      = "Valor total de produtos/serviços"
	MetricAdjustmentCount    = "Nº de ajustes negativos"
	MetricAdjustmentTotal    = "Valor total ajustes negativos"
	MetricComputedBalance    = "Saldo calculado"
	metricPaymentCountPrefix = "Nº de pagamentos "
)

// PaymentCountName is the payment-count metric for a recipient code.
func PaymentCountName(code string) string {
	return metricPaymentCountPrefix + code
}

// Metric is one named aggregate.
type Metric struct {
	Name  string
	Value Value
}

// Metrics is an ordered set of named aggregates.
type Metrics []Metric

// Get returns the value named name.
func (m Metrics) Get(name string) (Value, bool) {
	for _, x := range m {
		if x.Name == name {
			return x.Value, true
		}
	}
	return Value{}, false
}

// Names lists the metric names in order.
func (m Metrics) Names() []string {
	out := make([]string, len(m))
	for i, x := range m {
		out[i] = x.Name
	}
	return out
}

// Compute aggregates postings into the statement's summary figures. The
// financed balance is not derivable from postings and is left out; a
// numeric reference for it compares against zero.
func Compute(postings []model.Posting, paymentCode string) Metrics {
	var (
		prior, all, current    decimal.Decimal
		payTotal, largestPay   decimal.Decimal
		domTotal, fxTotal      decimal.Decimal
		iofTotal, servTotal    decimal.Decimal
		adjTotal, fxMax, fxMin decimal.Decimal

		payCount, domCount, fxCount, adjCount int
	)
	cards := make(map[string]struct{})

	for _, p := range postings {
		cards[p.CardLast4] = struct{}{}
		if p.PriorCyclePayment.Valid {
			prior = prior.Add(p.PriorCyclePayment.Decimal)
		}
		if !p.AmountBRL.Valid {
			continue
		}
		amt := p.AmountBRL.Decimal
		all = all.Add(amt)

		switch p.Category {
		case model.CategoryPayment:
			if payCount == 0 || amt.LessThan(largestPay) {
				largestPay = amt
			}
			payCount++
			payTotal = payTotal.Add(amt)
		case model.CategoryAdjustment:
			adjCount++
			adjTotal = adjTotal.Add(amt)
		case model.CategoryServices:
			servTotal = servTotal.Add(amt)
		case model.CategoryIOF:
			if p.IOFBRL.Valid {
				iofTotal = iofTotal.Add(p.IOFBRL.Decimal)
			}
		case model.CategoryFX:
			if p.OrigAmount.Valid && p.OrigCurrency != "" && p.FXRate.Valid {
				if fxCount == 0 || amt.GreaterThan(fxMax) {
					fxMax = amt
				}
				if fxCount == 0 || amt.LessThan(fxMin) {
					fxMin = amt
				}
				fxCount++
				fxTotal = fxTotal.Add(amt)
			}
		}
		if p.Category.Domestic() {
			domCount++
			domTotal = domTotal.Add(amt)
		}
		if p.Category != model.CategoryPayment && p.Category != model.CategoryAdjustment {
			current = current.Add(amt)
		}
	}

	return Metrics{
		{MetricPriorTotal, Number(prior)},
		{MetricPayments, Number(payTotal)},
		{MetricCurrentCharges, Number(current)},
		{MetricInvoiceTotal, Number(all)},
		{PaymentCountName(paymentCode), Count(payCount)},
		{MetricPaymentsTotal, Number(payTotal)},
		{MetricLargestPayment, Number(largestPay)},
		{MetricDomesticCount, Count(domCount)},
		{MetricDomesticTotal, Number(domTotal)},
		{MetricFXCount, Count(fxCount)},
		{MetricFXTotal, Number(fxTotal)},
		{MetricFXTotalWithIOF, Number(fxTotal.Add(iofTotal))},
		{MetricIOFTotal, Number(iofTotal)},
		{MetricLargestFX, Number(fxMax)},
		{MetricSmallestFX, Number(fxMin)},
		{MetricDistinctCards, Count(len(cards))},
		{MetricServicesTotal, Number(servTotal)},
		{MetricAdjustmentCount, Count(adjCount)},
		{MetricAdjustmentTotal, Number(adjTotal)},
		{MetricComputedBalance, Number(all)},
	}
}

// Summary is the debit/credit split of a posting set.
type Summary struct {
	Postings int
	Debits   decimal.Decimal // positive amounts outside payments and adjustments
	Credits  decimal.Decimal // negative payments and adjustments
	Net      decimal.Decimal
}

// Summarize computes the debit/credit split.
func Summarize(postings []model.Posting) Summary {
	var s Summary
	for _, p := range postings {
		if !p.AmountBRL.Valid {
			continue
		}
		s.Postings++
		amt := p.AmountBRL.Decimal
		credit := p.Category == model.CategoryPayment || p.Category == model.CategoryAdjustment
		switch {
		case credit && amt.IsNegative():
			s.Credits = s.Credits.Add(amt)
		case !credit && amt.IsPositive():
			s.Debits = s.Debits.Add(amt)
		}
	}
	s.Net = s.Debits.Add(s.Credits)
	return s
}

// Add accumulates o into s.
func (s *Summary) Add(o Summary) {
	s.Postings += o.Postings
	s.Debits = s.Debits.Add(o.Debits)
	s.Credits = s.Credits.Add(o.Credits)
	s.Net = s.Net.Add(o.Net)
}
