package commands_test

import (
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/cleared-dev/fatura/internal/journal"
	"github.com/cleared-dev/fatura/internal/misslog"
	"github.com/cleared-dev/fatura/internal/model"
	"github.com/cleared-dev/fatura/internal/scanner"
)

// copyFixture copies a testdata file into dir.
func copyFixture(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "testdata", name))
	require.NoError(t, err)
	dst := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
	return dst
}

func readPostings(t *testing.T, path string) []model.Posting {
	t.Helper()
	postings, err := journal.NewService("").Load(path)
	require.NoError(t, err)
	return postings
}

func TestScan_Fixture(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")

	out, err := runFatura(t, "scan", stmt)
	require.NoError(t, err, out)
	assert.Contains(t, out, "fatura_202505.txt: 8 postings, accuracy 84.6%")

	postings := readPostings(t, filepath.Join(dir, "fatura_202505_done.csv"))
	require.Len(t, postings, 8)
	assert.Empty(t, journal.ValidatePostings(postings))

	byCat := map[model.Category]int{}
	for _, p := range postings {
		byCat[p.Category]++
		assert.Equal(t, "1234", p.CardLast4)
	}
	assert.Equal(t, 1, byCat[model.CategoryPayment])
	assert.Equal(t, 1, byCat[model.CategoryFX])
	assert.Equal(t, 1, byCat[model.CategoryIOF])
	assert.Equal(t, 1, byCat[model.CategoryCharges])

	fx := postings[4]
	assert.Equal(t, "2025-04-10", fx.PostDate)
	assert.Equal(t, "USD", fx.OrigCurrency)
	assert.Equal(t, "SEATTLE", fx.MerchantCity)
	assert.Equal(t, "2025-04-10", postings[5].PostDate, "IOF carries the FX date")

	// No side file without --verbose.
	_, err = os.Stat(filepath.Join(dir, "fatura_202505_faltantes.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestScan_HeaderFirst(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")
	_, err := runFatura(t, "scan", stmt)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "fatura_202505_done.csv"))
	require.NoError(t, err)
	first, _, _ := strings.Cut(string(data), "\n")
	assert.Equal(t, journal.Header, first)
}

func TestScan_VerboseWritesMisses(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")

	out, err := runFatura(t, "scan", "--verbose", stmt)
	require.NoError(t, err, out)

	misses, err := misslog.Read(filepath.Join(dir, "fatura_202505_faltantes.txt"))
	require.NoError(t, err)
	require.Len(t, misses, 2)
	assert.Equal(t, scanner.Miss{
		Line: 1,
		Text: "Itaú Personnalité Visa Infinite",
		Next: "Lançamentos: compras e saques",
	}, misses[0])
	assert.Equal(t, 16, misses[1].Line)

	// Rescanning replaces the side file like the CSV.
	out, err = runFatura(t, "scan", "--verbose", stmt)
	require.NoError(t, err, out)
	misses, err = misslog.Read(filepath.Join(dir, "fatura_202505_faltantes.txt"))
	require.NoError(t, err)
	assert.Len(t, misses, 2)
}

func TestScan_OutDirAndXLSX(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	stmt := copyFixture(t, dir, "fatura_202505.txt")

	out, err := runFatura(t, "scan", "--out", outDir, "--xlsx", stmt)
	require.NoError(t, err, out)

	assert.FileExists(t, filepath.Join(outDir, "fatura_202505_done.csv"))

	f, err := excelize.OpenFile(filepath.Join(outDir, "fatura_202505_done.xlsx"))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Lançamentos")
	require.NoError(t, err)
	assert.Len(t, rows, 9)
}

func TestScan_Reference(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")
	ref := copyFixture(t, dir, "reference.yaml")

	out, err := runFatura(t, "scan", "--json", "--reference", ref, stmt)
	require.NoError(t, err, out)
	assert.Contains(t, out, `"matched":12`)
	assert.Contains(t, out, `"total":12`)
	assert.NotContains(t, out, "reconcile_mismatch")
	// Matches and unmatched lines are not anomalies.
	assert.Contains(t, out, `"anomalies":0`)
}

func TestScan_Directory(t *testing.T) {
	dir := t.TempDir()
	copyFixture(t, dir, "fatura_202505.txt")
	data, err := os.ReadFile(filepath.Join(dir, "fatura_202505.txt"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "fatura_202506.txt"), data, 0o644))

	out, err := runFatura(t, "scan", dir)
	require.NoError(t, err, out)
	assert.Contains(t, out, "total: 2 files, 16 postings")
	assert.FileExists(t, filepath.Join(dir, "fatura_202506_done.csv"))
}

func TestScan_Archive(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")

	_, err := runFatura(t, "scan", "--archive", stmt)
	require.NoError(t, err)

	assert.NoFileExists(t, stmt)
	assert.FileExists(t, filepath.Join(dir, "processed", "fatura_202505.txt"))
	assert.FileExists(t, filepath.Join(dir, "fatura_202505_done.csv"))
}

func TestScan_ConfigRecipientCode(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")
	cfg := filepath.Join(dir, "fatura.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("payment:\n  recipient_code: \"9999\"\n"), 0o644))

	out, err := runFatura(t, "scan", "--config", cfg, stmt)
	require.NoError(t, err, out)

	// The 7117 payment line no longer matches and falls through to the
	// domestic rule.
	for _, p := range readPostings(t, filepath.Join(dir, "fatura_202505_done.csv")) {
		assert.NotEqual(t, model.CategoryPayment, p.Category, p.Description)
	}
}

func TestScan_NoInput(t *testing.T) {
	out, err := runFatura(t, "scan", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, out, "no statement files")
}

func TestScan_BadConfig(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")
	cfg := filepath.Join(dir, "fatura.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("payment:\n  recipient_code: \"\"\n"), 0o644))

	out, err := runFatura(t, "scan", "--config", cfg, stmt)
	require.Error(t, err)
	assert.Contains(t, out, "recipient_code")
}

func TestScan_CommitsOutputs(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not available")
	}
	dir := t.TempDir()
	_, err := runFatura(t, "init", dir, "--git")
	require.NoError(t, err)
	stmt := copyFixture(t, dir, "fatura_202505.txt")
	cfg := filepath.Join(dir, "fatura.yaml")

	out, err := runFatura(t, "scan", "--config", cfg, stmt)
	require.NoError(t, err, out)
	assert.Contains(t, gitLog(t, dir), "scan: fatura_202505.txt (8 postings)")

	// A rescan of the same statement changes nothing.
	out, err = runFatura(t, "scan", "--config", cfg, stmt)
	require.NoError(t, err, out)
	log := gitLog(t, dir)
	assert.Equal(t, 1, strings.Count(log, "scan: "))
}

func TestScan_CommitOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	stmt := copyFixture(t, dir, "fatura_202505.txt")

	out, err := runFatura(t, "scan", "--commit", stmt)
	require.NoError(t, err, out)
	assert.Contains(t, out, "not a git repository")
}
