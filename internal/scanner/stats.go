package scanner

import "github.com/cleared-dev/fatura/internal/model"

// Stats counts what a scan did with each line.
type Stats struct {
	Lines    int // raw lines read
	Postings int // postings in the final set

	FX       int
	Payments int
	Domestic int
	IOF      int
	Charges  int

	CardHeaders int
	Headers     int // known section headers skipped
	Blank       int
	Misses      int

	FXDuplicates         int
	PositivePayments     int
	RejectedInstallments int
	Dropped              int // postings removed for lacking date or amount

	Categories map[model.Category]int
}

// Effective is the number of lines that could have carried a posting.
func (s Stats) Effective() int {
	return s.Lines - s.Blank - s.Headers
}

// Accuracy is the share of effective lines some rule recognised, in [0, 1].
func (s Stats) Accuracy() float64 {
	eff := s.Effective()
	if eff <= 0 {
		return 1
	}
	return float64(eff-s.Misses) / float64(eff)
}

// Add accumulates o into s, for totals across several statements.
func (s *Stats) Add(o Stats) {
	s.Lines += o.Lines
	s.Postings += o.Postings
	s.FX += o.FX
	s.Payments += o.Payments
	s.Domestic += o.Domestic
	s.IOF += o.IOF
	s.Charges += o.Charges
	s.CardHeaders += o.CardHeaders
	s.Headers += o.Headers
	s.Blank += o.Blank
	s.Misses += o.Misses
	s.FXDuplicates += o.FXDuplicates
	s.PositivePayments += o.PositivePayments
	s.RejectedInstallments += o.RejectedInstallments
	s.Dropped += o.Dropped
	if len(o.Categories) > 0 && s.Categories == nil {
		s.Categories = make(map[model.Category]int)
	}
	for c, n := range o.Categories {
		s.Categories[c] += n
	}
}

func (s *Stats) count(r rule) {
	switch r {
	case ruleFX:
		s.FX++
	case rulePayment:
		s.Payments++
	case ruleDomestic:
		s.Domestic++
	case ruleIOF:
		s.IOF++
	case ruleCharges:
		s.Charges++
	case ruleCard:
		s.CardHeaders++
	case ruleHeader:
		s.Headers++
	case ruleBlank:
		s.Blank++
	}
}
