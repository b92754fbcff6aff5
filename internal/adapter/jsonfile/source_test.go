package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const positional = `[
  ["March 18, 1920", "1445", "Near Paris, France", "CMA", "?", "London - Paris", "Breguet 14", "F-ABCD", "?", "3   (passengers:2  crew:1)", "1   (passengers:0  crew:1)", 0, "Crashed in fog."],
  ["July 04, 1920", null, "Lyon", "?", "?", "?", "?", "?", "?", "2", "2", "?", "?"]
]`

const columnar = `{
  "year": [1921, 1921],
  "col1": ["May 1, 1921", "June 2, 1921"],
  "col2": ["0930", "?"],
  "col3": ["Verona, Italy", "?"],
  "col4": ["Military - Italian Army", "?"],
  "col5": ["?", "?"],
  "col6": ["Sightseeing", "?"],
  "col7": ["Caproni Ca.48", "?"],
  "col8": ["?", "?"],
  "col9": ["?", "?"],
  "col10": ["14", "?"],
  "col11": ["14", "?"],
  "col12": ["0", "?"],
  "col13": ["Broke up in flight.", "?"]
}`

func field(t *testing.T, rec domain.RawRecord, name string) string {
	t.Helper()
	v, err := rec.Field(name)
	require.NoError(t, err)
	return v
}

func TestDecode_Positional(t *testing.T) {
	records, err := Decode("data_1920.json", []byte(positional), domain.DefaultRawColumns)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "data_1920.json", records[0].File)
	assert.Equal(t, 1, records[1].Index)
	assert.Equal(t, "March 18, 1920", field(t, records[0], domain.ColDate))
	assert.Equal(t, "London - Paris", field(t, records[0], domain.ColRoute))
	assert.Equal(t, "0", field(t, records[0], domain.ColGround), "numbers keep their literal text")
	assert.Equal(t, "?", field(t, records[1], domain.ColTime), "null becomes the missing marker")
}

func TestDecode_Columnar(t *testing.T) {
	records, err := Decode("data_1921.json", []byte(columnar), domain.DefaultRawColumns)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "May 1, 1921", field(t, records[0], domain.ColDate))
	assert.Equal(t, "0930", field(t, records[0], domain.ColTime))
	assert.Equal(t, "Sightseeing", field(t, records[0], domain.ColRoute))
	assert.Equal(t, "Broke up in flight.", field(t, records[0], domain.ColSummary))
	assert.Equal(t, "June 2, 1921", field(t, records[1], domain.ColDate))
}

func TestDecode_Empty(t *testing.T) {
	for _, data := range []string{"", "  \n", "[]", "{}", `{"year": []}`} {
		records, err := Decode("data_1900.json", []byte(data), domain.DefaultRawColumns)
		require.NoError(t, err, data)
		assert.Empty(t, records, data)
	}
}

func TestDecode_SchemaMismatch(t *testing.T) {
	_, err := Decode("data_1920.json", []byte(`[["March 18, 1920", "1445"]]`), domain.DefaultRawColumns)

	var mismatch *domain.SchemaMismatchError
	require.ErrorAs(t, err, &mismatch)
	assert.Equal(t, 2, mismatch.Got)
	assert.Equal(t, 13, mismatch.Want)
}

func TestDecode_RaggedColumns(t *testing.T) {
	_, err := Decode("data_1921.json", []byte(`{"col1": ["a", "b"], "col2": ["c"]}`), []string{"x", "y"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "col2" has 1 values, want 2`)
}

func TestDecode_Invalid(t *testing.T) {
	tests := map[string]string{
		"scalar":        `"hello"`,
		"broken":        `[["a",`,
		"nested object": `[[{"a": 1}]]`,
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Decode("bad.json", []byte(data), []string{"a"})
			require.Error(t, err)
			assert.Contains(t, err.Error(), "decode bad.json")
		})
	}
}

func TestSource_ListFilesSorted(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"data_1921.json", "data_1908.json", "notes.txt", "data_1920.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("[]"), 0o600))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "archive.json"), 0o750))

	src := NewSource(dir, "*.json", domain.DefaultRawColumns)
	files, err := src.ListFiles(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(dir, "data_1908.json"),
		filepath.Join(dir, "data_1920.json"),
		filepath.Join(dir, "data_1921.json"),
	}, files)
}

func TestSource_ListFilesMissingDir(t *testing.T) {
	src := NewSource(filepath.Join(t.TempDir(), "nope"), "*.json", domain.DefaultRawColumns)
	_, err := src.ListFiles(context.Background())
	require.Error(t, err)
}

func TestSource_Extract(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data_1920.json")
	require.NoError(t, os.WriteFile(path, []byte(positional), 0o600))

	src := NewSource(dir, "*.json", domain.DefaultRawColumns)
	records, err := src.Extract(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "data_1920.json", records[0].File)
}

func TestSource_ExtractCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := NewSource(t.TempDir(), "*.json", domain.DefaultRawColumns)
	_, err := src.Extract(ctx, "whatever.json")
	require.ErrorIs(t, err, context.Canceled)
}
