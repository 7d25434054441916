// Package dedup detects repeated postings within one statement.
package dedup

import (
	"github.com/cleared-dev/fatura/internal/events"
	"github.com/cleared-dev/fatura/internal/id"
	"github.com/cleared-dev/fatura/internal/model"
)

// Set is a set of keys seen during one scan.
type Set struct {
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Seen reports whether key was added before.
func (s *Set) Seen(key string) bool {
	_, ok := s.seen[key]
	return ok
}

// Add records key and reports whether it was new.
func (s *Set) Add(key string) bool {
	if s.Seen(key) {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Len returns the number of distinct keys.
func (s *Set) Len() int { return len(s.seen) }

// Duplicate is a posting whose ledger hash already appeared earlier.
type Duplicate struct {
	Index int // position in the posting list
	First int // position of the first occurrence
	Hash  string
}

// Report summarizes a duplicate check.
type Report struct {
	Unique     int
	Duplicates []Duplicate
}

// Check reports postings sharing a ledger hash. Nothing is removed: the
// postings stay in the output so a reviewer can decide.
func Check(postings []model.Posting, sink events.Sink) Report {
	first := make(map[string]int, len(postings))
	var rep Report
	for i, p := range postings {
		if j, ok := first[p.LedgerHash]; ok {
			rep.Duplicates = append(rep.Duplicates, Duplicate{Index: i, First: j, Hash: p.LedgerHash})
			events.Emit(sink, events.SeverityWarn, events.KindDuplicatePosting,
				"duplicate posting kept for review", map[string]any{
					"hash":  id.Short(p.LedgerHash),
					"date":  p.PostDate,
					"desc":  p.Description,
					"index": i,
					"first": j,
				})
			continue
		}
		first[p.LedgerHash] = i
	}
	rep.Unique = len(first)
	return rep
}
