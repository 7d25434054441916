package dates

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Token matches a statement date token "D/M" or "D/M/YYYY" at the start of a string.
var Token = regexp.MustCompile(`^(\d{1,3})/(\d{1,2})(?:/(\d{4}))?`)

var periodPattern = regexp.MustCompile(`(20\d{2})(\d{2})`)

// Period is the statement's reference year and month.
type Period struct {
	Year  int
	Month int
}

// String returns "YYYY-MM".
func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, p.Month)
}

// Normalize resolves a partial date token into "YYYY-MM-DD", filling a missing
// year or month from the reference period. Tokens that do not look like a
// date are returned unchanged. Day and month are not range-checked.
func Normalize(token string, ref Period) string {
	if token == "" {
		return ""
	}
	m := Token.FindStringSubmatch(token)
	if m == nil {
		return token
	}

	day, _ := strconv.Atoi(m[1])
	month := ref.Month
	if m[2] != "" {
		month, _ = strconv.Atoi(m[2])
	}
	year := ref.Year
	if m[3] != "" {
		year, _ = strconv.Atoi(m[3])
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day)
}

// IsNormalized reports whether s has the "YYYY-MM-DD" shape.
func IsNormalized(s string) bool {
	if len(s) != 10 || s[4] != '-' || s[7] != '-' {
		return false
	}
	for i, r := range s {
		if i == 4 || i == 7 {
			continue
		}
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PeriodFromFilename extracts the reference period from the first "20YYMM"
// run in the file's base name, falling back to now.
func PeriodFromFilename(path string, now time.Time) Period {
	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if m := periodPattern.FindStringSubmatch(stem); m != nil {
		year, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return Period{Year: year, Month: month}
	}
	return Period{Year: now.Year(), Month: int(now.Month())}
}
