// Package scanner walks the cleaned lines of one statement and turns them into
// postings.
//
// Each cursor position is offered to an ordered list of matchers (FX block,
// payment, domestic purchase, IOF remittance, interest and fees, card header,
// section header, blank). The first matcher that recognises the line decides
// how many lines are consumed. Lines nobody recognises are misses: counted,
// reported, never fatal.
package scanner

import (
	"regexp"

	"github.com/shopspring/decimal"

	"github.com/cleared-dev/fatura/internal/classify"
	"github.com/cleared-dev/fatura/internal/dates"
	"github.com/cleared-dev/fatura/internal/dedup"
	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/id"
	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/posting"
	"github.com/cleared-dev/fatura/internal/textline"
)

// Options configures a Scanner.
type Options struct {
	PaymentCode   string          // recipient code on card payment lines
	MinSane       decimal.Decimal // smaller |amount| is reported as suspicious
	MaxSane       decimal.Decimal // larger |amount| is reported as suspicious
	DefaultCard   string          // card_last4 until a "final NNNN" header
	CollectMisses bool            // keep unmatched lines with their neighbours
}

// DefaultOptions returns the settings for a standard statement.
func DefaultOptions() Options {
	return Options{
		PaymentCode: "7117",
		MinSane:     decimal.RequireFromString("0.01"),
		MaxSane:     decimal.RequireFromString("10000"),
		DefaultCard: "0000",
	}
}

// Miss is an unmatched line with the raw lines around it.
type Miss struct {
	Line int // 1-based
	Text string
	Prev string
	Next string
}

// Result is the output of one scan.
type Result struct {
	Postings []model.Posting
	Stats    Stats
	Misses   []Miss
}

// Scanner extracts postings from statement lines. A Scanner holds no
// per-statement state and may be reused for several files.
type Scanner struct {
	opts        Options
	classifier  *classify.Classifier
	sink        events.Sink
	paymentLine *regexp.Regexp
}

// New creates a Scanner. A nil classifier gets the default rules with the
// configured payment code.
func New(opts Options, cls *classify.Classifier, sink events.Sink) *Scanner {
	if sink == nil {
		sink = events.Discard
	}
	if cls == nil {
		copts := classify.DefaultOptions()
		copts.PaymentCode = opts.PaymentCode
		cls = classify.New(copts, sink)
	}
	payment := regexp.MustCompile(`(?i)^(` + datePrefix + `)\s+(PAGAMENTO\b.*?` +
		regexp.QuoteMeta(opts.PaymentCode) + `.*?)\s*(-?\s*[\d.,]*\d)\s*$`)
	return &Scanner{
		opts:        opts,
		classifier:  cls,
		sink:        sink,
		paymentLine: payment,
	}
}

// scan is the state of one pass over one statement.
type scan struct {
	raw      []string
	lines    []string
	card     string
	lastDate string // raw date token of the latest dated posting
	fxSeen   *dedup.Set
	builder  *posting.Builder
	sink     events.Sink
	res      *Result
}

// Scan extracts the postings of one statement. ref fills in dates that omit
// their year or month.
func (s *Scanner) Scan(lines []string, ref dates.Period) Result {
	res := &Result{Stats: Stats{Lines: len(lines)}}
	sc := &scan{
		raw:     lines,
		lines:   textline.CleanAll(lines),
		card:    s.opts.DefaultCard,
		fxSeen:  dedup.NewSet(),
		builder: posting.NewBuilder(ref, s.sink),
		sink:    s.sink,
		res:     res,
	}
	matchers := s.matchers()

	for i := 0; i < len(sc.lines); {
		consumed := 0
		for _, m := range matchers {
			o, ok := m(sc, i)
			if !ok {
				continue
			}
			sc.apply(i, o)
			consumed = o.consumed
			break
		}
		if consumed == 0 {
			s.miss(sc, i)
			consumed = 1
		}
		i += consumed
	}

	res.Postings = s.complete(res.Postings, &res.Stats)
	res.Stats.Postings = len(res.Postings)
	res.Stats.Categories = make(map[model.Category]int)
	for _, p := range res.Postings {
		res.Stats.Categories[p.Category]++
	}
	return *res
}

// apply records the outcome of a matcher that recognised line i.
func (sc *scan) apply(i int, o outcome) {
	if o.fields == nil {
		sc.res.Stats.count(o.rule)
		return
	}

	if o.fxKey != "" && sc.fxSeen.Seen(o.fxKey) {
		events.Emit(sc.sink, events.SeverityInfo, events.KindFXDuplicate,
			"repeated FX block discarded", map[string]any{
				"line":   i + 1,
				"desc":   o.fields.Description,
				"date":   o.fields.Date,
				"amount": o.fields.Amount.Decimal.StringFixed(2),
			})
		sc.res.Stats.FXDuplicates++
		return
	}

	p, err := sc.builder.Build(sc.card, *o.fields)
	if err != nil {
		events.Emit(sc.sink, events.SeverityWarn, events.KindInvalidInstallment,
			"installment outside the current cycle, line rejected", map[string]any{
				"line":  i + 1,
				"desc":  o.fields.Description,
				"error": err.Error(),
			})
		sc.res.Stats.RejectedInstallments++
		return
	}

	if o.fxKey != "" {
		sc.fxSeen.Add(o.fxKey)
	}
	if o.dated {
		sc.lastDate = o.fields.Date
	}
	sc.res.Postings = append(sc.res.Postings, p)
	sc.res.Stats.count(o.rule)
}

func (s *Scanner) miss(sc *scan, i int) {
	sc.res.Stats.Misses++
	events.Emit(sc.sink, events.SeverityDebug, events.KindUnmatchedLine,
		"no rule matched", map[string]any{
			"line": i + 1,
			"text": sc.lines[i],
		})
	if !s.opts.CollectMisses {
		return
	}
	m := Miss{Line: i + 1, Text: sc.raw[i]}
	if i > 0 {
		m.Prev = sc.raw[i-1]
	}
	if i+1 < len(sc.raw) {
		m.Next = sc.raw[i+1]
	}
	sc.res.Misses = append(sc.res.Misses, m)
}

// complete drops postings lacking a normalized date or an amount.
func (s *Scanner) complete(postings []model.Posting, stats *Stats) []model.Posting {
	out := postings[:0]
	for _, p := range postings {
		if p.Complete() {
			out = append(out, p)
			continue
		}
		stats.Dropped++
		events.Emit(s.sink, events.SeverityWarn, events.KindDroppedPosting,
			"posting without date or amount dropped", map[string]any{
				"hash": id.Short(p.LedgerHash),
				"desc": p.Description,
			})
	}
	return out
}
