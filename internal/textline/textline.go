// Package textline cleans raw lines from the text extract before matching.
package textline

import (
	"regexp"
	"strings"
	"unicode"
)

// leadingSymbols are decorative markers the text extraction leaves at the
// start of statement lines.
const leadingSymbols = ">@§$Z)_•*®«» "

var multiSpace = regexp.MustCompile(`\s{2,}`)

// Clean strips leading markers, turns underscores and non-ASCII spaces (NBSP
// and friends) into spaces, collapses whitespace runs and trims.
// Clean(Clean(s)) == Clean(s).
func Clean(raw string) string {
	s := strings.Map(asciiSpace, raw)
	s = strings.TrimLeft(s, leadingSymbols)
	s = strings.ReplaceAll(s, "_", " ")
	s = multiSpace.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)
	// Trimming can expose more markers ("  >x" -> ">x").
	if t := strings.TrimLeft(s, leadingSymbols); t != s {
		return Clean(t)
	}
	return s
}

// asciiSpace maps Unicode whitespace outside ASCII to ' ', which RE2's \s
// does not match.
func asciiSpace(r rune) rune {
	if r > unicode.MaxASCII && unicode.IsSpace(r) {
		return ' '
	}
	return r
}

// CleanAll applies Clean to every line.
func CleanAll(lines []string) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = Clean(l)
	}
	return out
}
