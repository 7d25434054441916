package journal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cleared-dev/fatura/internal/model"
)

// Output file suffixes, appended to the statement's file stem.
const (
	SuffixPostings = "_done.csv"
	SuffixMisses   = "_faltantes.txt"
	SuffixWorkbook = "_done.xlsx"
)

// Outputs are the files produced for one statement.
type Outputs struct {
	Postings string
	Misses   string
	Workbook string
}

// Service reads and writes postings files.
type Service struct {
	outDir string
}

// NewService creates a Service writing into outDir. An empty outDir writes
// next to each statement.
func NewService(outDir string) *Service {
	return &Service{outDir: outDir}
}

// OutputsFor returns the output paths for the statement at input.
func (s *Service) OutputsFor(input string) Outputs {
	dir := s.outDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	stem := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	base := filepath.Join(dir, stem)
	return Outputs{
		Postings: base + SuffixPostings,
		Misses:   base + SuffixMisses,
		Workbook: base + SuffixWorkbook,
	}
}

// Save writes postings to path, replacing any previous file. The postings are
// validated first; violations are returned alongside a successful write so
// the caller can report them.
func (s *Service) Save(path string, postings []model.Posting) ([]ValidationError, error) {
	verrs := ValidatePostings(postings)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return verrs, fmt.Errorf("creating output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return verrs, fmt.Errorf("creating postings file: %w", err)
	}
	defer f.Close()

	if err := WritePostings(f, postings); err != nil {
		return verrs, fmt.Errorf("writing postings %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return verrs, fmt.Errorf("closing postings %s: %w", path, err)
	}
	return verrs, nil
}

// Load reads a postings file.
func (s *Service) Load(path string) ([]model.Posting, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening postings %s: %w", path, err)
	}
	defer f.Close()

	postings, err := ReadPostings(f)
	if err != nil {
		return nil, fmt.Errorf("reading postings %s: %w", path, err)
	}
	return postings, nil
}
