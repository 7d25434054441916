package importer

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cleared-dev/fatura/internal/dates"
	"github.com/cleared-dev/fatura/internal/journal"
)

// statementExt is the extension of text-extracted statements.
const statementExt = ".txt"

// processedDir is the subdirectory statements are moved to once scanned.
const processedDir = "processed"

// FileInfo describes a statement file.
type FileInfo struct {
	Name string
	Path string
	Size int64
}

// Statement is a statement's text, ready for scanning.
type Statement struct {
	Path        string
	Lines       []string
	Period      dates.Period // reference year/month for partial dates
	Fingerprint string       // first 8 hex chars of the file's SHA-1
}

// Scan returns the statement files in dir, sorted by name. Side files this
// tool writes next to statements are skipped.
func Scan(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading statement dir: %w", err)
	}

	var files []FileInfo
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if !IsStatement(e.Name()) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", e.Name(), err)
		}
		files = append(files, FileInfo{
			Name: e.Name(),
			Path: filepath.Join(dir, e.Name()),
			Size: info.Size(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// IsStatement reports whether name looks like a statement text file.
func IsStatement(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, statementExt) && !strings.HasSuffix(lower, journal.SuffixMisses)
}

// Expand resolves arguments into statement paths: files are kept as given,
// directories contribute the statements they contain.
func Expand(args []string) ([]string, error) {
	var paths []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", arg, err)
		}
		if !info.IsDir() {
			paths = append(paths, arg)
			continue
		}
		files, err := Scan(arg)
		if err != nil {
			return nil, err
		}
		for _, f := range files {
			paths = append(paths, f.Path)
		}
	}
	return paths, nil
}

// Load reads a statement. Bytes that are not valid UTF-8 are dropped; the
// reference period comes from the file name, falling back to now.
func Load(path string, now time.Time) (Statement, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Statement{}, fmt.Errorf("reading statement %s: %w", path, err)
	}
	sum := sha1.Sum(data)
	return Statement{
		Path:        path,
		Lines:       SplitLines(string(data)),
		Period:      dates.PeriodFromFilename(path, now),
		Fingerprint: hex.EncodeToString(sum[:])[:8],
	}, nil
}

// SplitLines splits text on \n, \r\n or \r, dropping invalid UTF-8 and a
// trailing empty line.
func SplitLines(text string) []string {
	text = strings.ToValidUTF8(text, "")
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// MarkProcessed moves a statement into a processed/ directory beside it.
func MarkProcessed(path string) (string, error) {
	dstDir := filepath.Join(filepath.Dir(path), processedDir)
	if err := os.MkdirAll(dstDir, 0o755); err != nil {
		return "", fmt.Errorf("creating processed dir: %w", err)
	}

	dst := filepath.Join(dstDir, filepath.Base(path))
	if err := os.Rename(path, dst); err != nil {
		return "", fmt.Errorf("moving %s to processed: %w", filepath.Base(path), err)
	}
	return dst, nil
}
