// Package misslog writes the side file of statement lines no rule recognised,
// each with the raw line before and after it.
package misslog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cleared-dev/fatura/internal/scanner"
)

const (
	prevPrefix = "  [prev] "
	nextPrefix = "  [next] "
)

// MarshalEntry renders one miss as the lines it occupies in the file.
func MarshalEntry(m scanner.Miss) []string {
	out := []string{fmt.Sprintf("%04d|%s", m.Line, m.Text)}
	if m.Prev != "" {
		out = append(out, prevPrefix+m.Prev)
	}
	if m.Next != "" {
		out = append(out, nextPrefix+m.Next)
	}
	return out
}

// Write renders misses to w.
func Write(w io.Writer, misses []scanner.Miss) error {
	bw := bufio.NewWriter(w)
	for i, m := range misses {
		for _, line := range MarshalEntry(m) {
			if _, err := bw.WriteString(line + "\n"); err != nil {
				return fmt.Errorf("writing miss %d: %w", i, err)
			}
		}
	}
	return bw.Flush()
}

// Save replaces the file at path with misses, so a rescan never leaves
// entries from an earlier run. With no misses the file is removed.
func Save(path string, misses []scanner.Miss) error {
	if len(misses) == 0 {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing misses file: %w", err)
		}
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating misses dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating misses file: %w", err)
	}
	defer f.Close()

	if err := Write(f, misses); err != nil {
		return err
	}
	return f.Close()
}

// Read returns all misses from the file at path.
// Returns an empty slice if the file does not exist.
func Read(path string) ([]scanner.Miss, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening misses file: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]scanner.Miss, error) {
	var (
		misses []scanner.Miss
		cur    *scanner.Miss
	)
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, prevPrefix) && cur != nil:
			cur.Prev = strings.TrimPrefix(line, prevPrefix)
		case strings.HasPrefix(line, nextPrefix) && cur != nil:
			cur.Next = strings.TrimPrefix(line, nextPrefix)
		default:
			num, text, ok := strings.Cut(line, "|")
			if !ok {
				return nil, fmt.Errorf("line %d: missing line number", n)
			}
			ln, err := strconv.Atoi(num)
			if err != nil {
				return nil, fmt.Errorf("line %d: parsing line number %q: %w", n, num, err)
			}
			misses = append(misses, scanner.Miss{Line: ln, Text: text})
			cur = &misses[len(misses)-1]
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading misses file: %w", err)
	}
	return misses, nil
}
