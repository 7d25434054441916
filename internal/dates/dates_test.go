package dates

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	ref := Period{Year: 2025, Month: 5}
	tests := []struct {
		token string
		want  string
	}{
		{"5/3", "2025-03-05"},
		{"5/3/2024", "2024-03-05"},
		{"05/03", "2025-03-05"},
		{"31/12/2023", "2023-12-31"},
		{"1/1", "2025-01-01"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.token, ref), "Normalize(%q)", tt.token)
	}
}

func TestNormalize_NotADate(t *testing.T) {
	ref := Period{Year: 2025, Month: 5}
	for _, token := range []string{"PAGAMENTO", "abc/def", "2025-05-01", "/5"} {
		assert.Equal(t, token, Normalize(token, ref), "non-date token should pass through")
	}
}

func TestNormalize_NoRangeCheck(t *testing.T) {
	ref := Period{Year: 2025, Month: 5}
	assert.Equal(t, "2025-13-40", Normalize("40/13", ref))
	assert.Equal(t, "2025-00-00", Normalize("0/0", ref))
	assert.Equal(t, "2025-02-123", Normalize("123/2", ref))
}

func TestNormalize_Deterministic(t *testing.T) {
	ref := Period{Year: 2025, Month: 5}
	assert.Equal(t, Normalize("7/4", ref), Normalize("7/4", ref))
}

func TestIsNormalized(t *testing.T) {
	assert.True(t, IsNormalized("2025-03-05"))
	assert.True(t, IsNormalized("2025-13-40"))
	assert.False(t, IsNormalized("5/3"))
	assert.False(t, IsNormalized(""))
	assert.False(t, IsNormalized("2025-02-123"))
	assert.False(t, IsNormalized("2025/03/05"))
}

func TestPeriodFromFilename(t *testing.T) {
	now := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		path string
		want Period
	}{
		{"fatura_202505.txt", Period{2025, 5}},
		{"/tmp/itau-202412-final.txt", Period{2024, 12}},
		{"statement.txt", Period{2026, 10}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, PeriodFromFilename(tt.path, now), "path %s", tt.path)
	}
}

func TestPeriodString(t *testing.T) {
	assert.Equal(t, "2025-05", Period{Year: 2025, Month: 5}.String())
}
