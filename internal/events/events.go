// Package events carries diagnostics out of the scanning core. The core emits
// events; whoever owns the Sink decides whether and how to log them.
package events

import (
	"sync"

	"github.com/rs/zerolog"
)

// Severity ranks an event.
type Severity int

const (
	SeverityDebug Severity = iota
	SeverityInfo
	SeverityWarn
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityDebug:
		return "debug"
	case SeverityInfo:
		return "info"
	case SeverityWarn:
		return "warn"
	case SeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Kind names what happened.
type Kind string

const (
	KindUnmatchedLine      Kind = "unmatched_line"
	KindMalformedAmount    Kind = "malformed_amount"
	KindInvalidInstallment Kind = "invalid_installment"
	KindSuspiciousAmount   Kind = "suspicious_amount"
	KindPositivePayment    Kind = "positive_payment"
	KindSuspiciousCategory Kind = "suspicious_category"
	KindMissingField       Kind = "missing_field"
	KindDuplicatePosting   Kind = "duplicate_posting"
	KindFXDuplicate        Kind = "fx_duplicate"
	KindDroppedPosting     Kind = "dropped_posting"
	KindReconcileMismatch  Kind = "reconcile_mismatch"
	KindReconcileMatch     Kind = "reconcile_match"
)

// Event is one diagnostic with its payload.
type Event struct {
	Severity Severity
	Kind     Kind
	Message  string
	Fields   map[string]any
}

// Sink receives events.
type Sink interface {
	Emit(Event)
}

// Emit is a convenience for building and sending an event.
func Emit(s Sink, sev Severity, kind Kind, msg string, fields map[string]any) {
	if s == nil {
		return
	}
	s.Emit(Event{Severity: sev, Kind: kind, Message: msg, Fields: fields})
}

// Discard drops every event.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Event) {}

// Recorder keeps events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Event
}

// Emit records e.
func (r *Recorder) Emit(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// Events returns a copy of everything recorded so far.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Count returns how many events of kind were recorded.
func (r *Recorder) Count(kind Kind) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Kind == kind {
			n++
		}
	}
	return n
}

// AtLeast returns how many events of severity sev or higher were recorded.
func (r *Recorder) AtLeast(sev Severity) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Severity >= sev {
			n++
		}
	}
	return n
}

// Of returns the recorded events of kind.
func (r *Recorder) Of(kind Kind) []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Event
	for _, e := range r.events {
		if e.Kind == kind {
			out = append(out, e)
		}
	}
	return out
}

// Tee fans events out to several sinks.
func Tee(sinks ...Sink) Sink {
	return tee(sinks)
}

type tee []Sink

func (t tee) Emit(e Event) {
	for _, s := range t {
		if s != nil {
			s.Emit(e)
		}
	}
}

// ZerologSink writes events through a zerolog logger.
type ZerologSink struct {
	logger zerolog.Logger
}

// NewZerologSink returns a Sink that logs with logger.
func NewZerologSink(logger zerolog.Logger) *ZerologSink {
	return &ZerologSink{logger: logger}
}

// Emit logs e at the level matching its severity.
func (z *ZerologSink) Emit(e Event) {
	var ev *zerolog.Event
	switch e.Severity {
	case SeverityDebug:
		ev = z.logger.Debug()
	case SeverityInfo:
		ev = z.logger.Info()
	case SeverityWarn:
		ev = z.logger.Warn()
	default:
		ev = z.logger.Error()
	}
	ev.Str("kind", string(e.Kind)).Fields(e.Fields).Msg(e.Message)
}
