package scanner

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/id"
	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/money"
	"github.com/cleared-dev/fatura/internal/posting"
)

type rule string

const (
	ruleFX       rule = "fx"
	rulePayment  rule = "payment"
	ruleDomestic rule = "domestic"
	ruleIOF      rule = "iof"
	ruleCharges  rule = "charges"
	ruleCard     rule = "card"
	ruleHeader   rule = "header"
	ruleBlank    rule = "blank"
	ruleIgnored  rule = "ignored" // recognised but not posted
)

// datePrefix is a statement date token: "D/M" with an optional "/YYYY".
const datePrefix = `\d{1,3}/\d{1,2}(?:/\d{4})?`

var (
	// datedLine is "date description amount"; it opens an FX block and is a
	// domestic purchase on its own.
	datedLine = regexp.MustCompile(`^(` + datePrefix + `)\s+(.+?)\s+(-?\s*[\d.,]*\d)$`)
	fxLine2 = regexp.MustCompile(`(?i)^(.+?)\s+([\d.,]*\d)\s+([A-Z]{3})\s+([\d.,]*\d)$`)
	fxRate  = regexp.MustCompile(`D[oó]lar de Convers[aã]o R\$\s*([\d.,]*\d)`)

	iofLine = regexp.MustCompile(`(?i)Repasse de IOF em R\$\s*([\d.,]*\d)`)

	brlAmount      = regexp.MustCompile(`-?\s*\d{1,3}(?:\.\d{3})*,\d{2}`)
	chargeKeywords = []string{"JUROS", "MULTA", "IOF DE FINANCIAMENTO"}

	cardHeader    = regexp.MustCompile(`(?i)\bfinal (\d{4})\b`)
	sectionHeader = regexp.MustCompile(`(?i)^(Total |Lançamentos|Limites|Encargos|Próxima fatura|Demais faturas|Parcelamento da fatura|Simulação|Pontos|Cashback|Outros lançamentos|Limite total de crédito|Fatura anterior|Saldo financiado|Produtos e serviços|Tarifa|Compras parceladas - próximas faturas)`)

	// Installment markers, tried in this order.
	installSlash = regexp.MustCompile(`(\d{1,2})\s*/\s*(\d{1,2})`)
	installDe    = regexp.MustCompile(`(?i)(\d{1,2})\s+de\s+(\d{1,2})`)
	installTimes = regexp.MustCompile(`(?i)\b(\d{1,2})\s*x(?:\s*R\$|\b)`)
)

// iofDescription is the fixed description of IOF remittance postings.
const iofDescription = "Repasse de IOF em R$"

// outcome is what a matcher recognised at the cursor. fields is nil when the
// lines were consumed without producing a posting.
type outcome struct {
	rule     rule
	consumed int
	fields   *posting.Fields
	fxKey    string
	dated    bool // the posting's date becomes the carried date
}

// matcher inspects the line at i and reports whether it recognised it.
type matcher func(sc *scan, i int) (outcome, bool)

// matchers in priority order; the first hit wins.
func (s *Scanner) matchers() []matcher {
	return []matcher{
		matchFX,
		s.matchPayment,
		s.matchDomestic,
		matchIOF,
		matchCharges,
		matchCard,
		matchSectionHeader,
		matchBlank,
	}
}

func matchFX(sc *scan, i int) (outcome, bool) {
	if i+2 >= len(sc.lines) {
		return outcome{}, false
	}
	m1 := datedLine.FindStringSubmatch(sc.lines[i])
	if m1 == nil {
		return outcome{}, false
	}
	m2 := fxLine2.FindStringSubmatch(sc.lines[i+1])
	if m2 == nil {
		return outcome{}, false
	}
	m3 := fxRate.FindStringSubmatch(sc.lines[i+2])
	if m3 == nil {
		return outcome{}, false
	}

	brl, ok := sc.amount(i, m1[3])
	if !ok {
		return outcome{}, false
	}
	orig, ok := sc.amount(i+1, m2[2])
	if !ok {
		return outcome{}, false
	}
	usd, ok := sc.amount(i+1, m2[4])
	if !ok {
		return outcome{}, false
	}
	rate, ok := sc.amount(i+2, m3[1])
	if !ok {
		return outcome{}, false
	}

	date, desc, currency := m1[1], m1[2], strings.ToUpper(m2[3])
	return outcome{
		rule:     ruleFX,
		consumed: 3,
		fields: &posting.Fields{
			Date:         date,
			Description:  desc,
			Amount:       model.Amount(brl),
			Category:     model.CategoryFX,
			OrigAmount:   model.Amount(orig),
			OrigCurrency: currency,
			AmountUSD:    model.Amount(usd),
			FXRate:       model.Amount(rate),
			MerchantCity: strings.TrimSpace(m2[1]),
		},
		fxKey: id.FXKey(desc, date, brl, orig, currency, rate),
		dated: true,
	}, true
}

func (s *Scanner) matchPayment(sc *scan, i int) (outcome, bool) {
	m := s.paymentLine.FindStringSubmatch(sc.lines[i])
	if m == nil {
		return outcome{}, false
	}
	amt, ok := sc.amount(i, m[3])
	if !ok {
		return outcome{}, false
	}
	if !amt.IsNegative() {
		events.Emit(sc.sink, events.SeverityWarn, events.KindPositivePayment,
			"non-negative payment ignored", map[string]any{
				"line":   i + 1,
				"amount": amt.StringFixed(2),
			})
		sc.res.Stats.PositivePayments++
		return outcome{rule: ruleIgnored, consumed: 1}, true
	}
	return outcome{
		rule:     rulePayment,
		consumed: 1,
		fields: &posting.Fields{
			Date:        m[1],
			Description: strings.TrimRight(m[2], " -\t"),
			Amount:      model.Amount(amt),
			Category:    model.CategoryPayment,
		},
		dated: true,
	}, true
}

func (s *Scanner) matchDomestic(sc *scan, i int) (outcome, bool) {
	m := datedLine.FindStringSubmatch(sc.lines[i])
	if m == nil {
		return outcome{}, false
	}
	amt, ok := sc.amount(i, m[3])
	if !ok {
		return outcome{}, false
	}
	desc := m[2]

	if abs := amt.Abs(); abs.GreaterThan(s.opts.MaxSane) || abs.LessThan(s.opts.MinSane) {
		events.Emit(sc.sink, events.SeverityWarn, events.KindSuspiciousAmount,
			"amount outside sane range", map[string]any{
				"line":   i + 1,
				"desc":   desc,
				"amount": amt.StringFixed(2),
			})
	}

	seq, tot := installments(desc)
	return outcome{
		rule:     ruleDomestic,
		consumed: 1,
		fields: &posting.Fields{
			Date:           m[1],
			Description:    desc,
			Amount:         model.Amount(amt),
			Category:       s.classifier.Classify(desc, amt),
			InstallmentSeq: seq,
			InstallmentTot: tot,
		},
		dated: true,
	}, true
}

func matchIOF(sc *scan, i int) (outcome, bool) {
	m := iofLine.FindStringSubmatch(sc.lines[i])
	if m == nil {
		return outcome{}, false
	}
	amt, ok := sc.amount(i, m[1])
	if !ok {
		return outcome{}, false
	}
	return outcome{
		rule:     ruleIOF,
		consumed: 1,
		fields: &posting.Fields{
			Date:        sc.lastDate,
			Description: iofDescription,
			Amount:      model.Amount(amt),
			Category:    model.CategoryIOF,
			IOF:         model.Amount(amt),
		},
	}, true
}

func matchCharges(sc *scan, i int) (outcome, bool) {
	line := sc.lines[i]
	upper := strings.ToUpper(line)
	hit := false
	for _, k := range chargeKeywords {
		if strings.Contains(upper, k) {
			hit = true
			break
		}
	}
	if !hit {
		return outcome{}, false
	}
	tok := brlAmount.FindString(line)
	if tok == "" {
		return outcome{}, false
	}
	amt, ok := sc.amount(i, tok)
	if !ok || amt.IsZero() {
		return outcome{}, false
	}
	return outcome{
		rule:     ruleCharges,
		consumed: 1,
		fields: &posting.Fields{
			Date:        sc.lastDate,
			Description: line,
			Amount:      model.Amount(amt),
			Category:    model.CategoryCharges,
		},
	}, true
}

func matchCard(sc *scan, i int) (outcome, bool) {
	m := cardHeader.FindStringSubmatch(sc.lines[i])
	if m == nil {
		return outcome{}, false
	}
	sc.card = m[1]
	return outcome{rule: ruleCard, consumed: 1}, true
}

func matchSectionHeader(sc *scan, i int) (outcome, bool) {
	if !sectionHeader.MatchString(sc.lines[i]) {
		return outcome{}, false
	}
	return outcome{rule: ruleHeader, consumed: 1}, true
}

func matchBlank(sc *scan, i int) (outcome, bool) {
	if sc.lines[i] != "" {
		return outcome{}, false
	}
	return outcome{rule: ruleBlank, consumed: 1}, true
}

// installments extracts "N/M", "N de M" or "Nx" from a description. "Nx"
// carries no total.
func installments(desc string) (seq, tot model.OptInt) {
	if m := installSlash.FindStringSubmatch(desc); m != nil {
		return atoi(m[1]), atoi(m[2])
	}
	if m := installDe.FindStringSubmatch(desc); m != nil {
		return atoi(m[1]), atoi(m[2])
	}
	if m := installTimes.FindStringSubmatch(desc); m != nil {
		return atoi(m[1]), model.OptInt{}
	}
	return model.OptInt{}, model.OptInt{}
}

func atoi(s string) model.OptInt {
	n, err := strconv.Atoi(s)
	if err != nil {
		return model.OptInt{}
	}
	return model.Int(n)
}

// amount parses tok, reporting failures as a malformed amount on line i.
func (sc *scan) amount(i int, tok string) (decimal.Decimal, bool) {
	d, err := money.Parse(tok)
	if err != nil {
		events.Emit(sc.sink, events.SeverityDebug, events.KindMalformedAmount,
			"amount did not parse", map[string]any{
				"line":  i + 1,
				"token": tok,
				"error": err.Error(),
			})
		return decimal.Zero, false
	}
	return d, true
}
