package events

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	Emit(&r, SeverityWarn, KindUnmatchedLine, "miss", map[string]any{"line": 3})
	Emit(&r, SeverityWarn, KindUnmatchedLine, "miss", map[string]any{"line": 7})
	Emit(&r, SeverityInfo, KindFXDuplicate, "dup", nil)

	assert.Len(t, r.Events(), 3)
	assert.Equal(t, 2, r.Count(KindUnmatchedLine))
	assert.Equal(t, 1, r.Count(KindFXDuplicate))
	assert.Equal(t, 0, r.Count(KindMissingField))
	assert.Equal(t, 2, r.AtLeast(SeverityWarn))
	assert.Equal(t, 3, r.AtLeast(SeverityDebug))
	assert.Equal(t, 0, r.AtLeast(SeverityError))

	misses := r.Of(KindUnmatchedLine)
	require.Len(t, misses, 2)
	assert.Equal(t, 7, misses[1].Fields["line"])
}

func TestEmit_NilSink(t *testing.T) {
	assert.NotPanics(t, func() {
		Emit(nil, SeverityInfo, KindUnmatchedLine, "x", nil)
	})
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Emit(Event{Kind: KindUnmatchedLine})
	})
}

func TestTee(t *testing.T) {
	var a, b Recorder
	sink := Tee(&a, nil, &b)
	Emit(sink, SeverityInfo, KindDuplicatePosting, "dup", nil)
	assert.Equal(t, 1, a.Count(KindDuplicatePosting))
	assert.Equal(t, 1, b.Count(KindDuplicatePosting))
}

func TestZerologSink(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf))

	Emit(sink, SeverityWarn, KindSuspiciousAmount, "amount out of range", map[string]any{
		"desc":   "BIG TV",
		"amount": "12000.00",
	})

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "warn", got["level"])
	assert.Equal(t, "suspicious_amount", got["kind"])
	assert.Equal(t, "BIG TV", got["desc"])
	assert.Equal(t, "amount out of range", got["message"])
}

func TestZerologSink_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	sink := NewZerologSink(zerolog.New(&buf).Level(zerolog.WarnLevel))
	Emit(sink, SeverityDebug, KindUnmatchedLine, "quiet", nil)
	assert.Empty(t, buf.String())
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "debug", SeverityDebug.String())
	assert.Equal(t, "error", SeverityError.String())
	assert.Equal(t, "unknown", Severity(42).String())
}
