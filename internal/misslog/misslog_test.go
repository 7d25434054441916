package misslog

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/fatura/internal/scanner"
)

func testMiss() scanner.Miss {
	return scanner.Miss{
		Line: 42,
		Text: "  something | odd",
		Prev: "03/05 UBER *TRIP 23,90",
		Next: "04/05 IFD*IFOOD 50,00",
	}
}

func TestWrite_Format(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, []scanner.Miss{testMiss(), {Line: 1, Text: "first"}}))

	want := strings.Join([]string{
		"0042|  something | odd",
		"  [prev] 03/05 UBER *TRIP 23,90",
		"  [next] 04/05 IFD*IFOOD 50,00",
		"0001|first",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestSave_NewFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "fatura_faltantes.txt")
	require.NoError(t, Save(path, []scanner.Miss{testMiss()}))

	misses, err := Read(path)
	require.NoError(t, err)
	require.Len(t, misses, 1)
	assert.Equal(t, testMiss(), misses[0])
}

func TestSave_ReplacesPreviousRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fatura_faltantes.txt")
	require.NoError(t, Save(path, []scanner.Miss{testMiss()}))
	require.NoError(t, Save(path, []scanner.Miss{testMiss()}))

	misses, err := Read(path)
	require.NoError(t, err)
	require.Len(t, misses, 1, "a rescan must not duplicate entries")

	require.NoError(t, Save(path, []scanner.Miss{{Line: 7, Text: "other", Prev: "p"}}))
	misses, err = Read(path)
	require.NoError(t, err)
	assert.Equal(t, []scanner.Miss{{Line: 7, Text: "other", Prev: "p"}}, misses)
}

func TestSave_NothingToWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "none.txt")
	require.NoError(t, Save(path, nil))
	assert.NoFileExists(t, path)

	// A stale file from an earlier run is removed.
	require.NoError(t, Save(path, []scanner.Miss{testMiss()}))
	require.NoError(t, Save(path, nil))
	assert.NoFileExists(t, path)

	misses, err := Read(path)
	require.NoError(t, err)
	assert.Empty(t, misses)
}

func TestRead_Malformed(t *testing.T) {
	_, err := readEntries(strings.NewReader("no separator\n"))
	require.Error(t, err)

	_, err = readEntries(strings.NewReader("abc|text\n"))
	require.Error(t, err)
}
