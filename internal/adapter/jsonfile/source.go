// Package jsonfile reads the per-year raw accident files.
//
// Two encodings are accepted. The first is a JSON array of positional arrays,
// one inner array per accident. The second is the column-oriented object the
// scraper writes, {"year": [...], "col1": [...], ...}, whose keys are bound to
// the configured column names in file order. The scraper's "year" key is
// bookkeeping and is dropped. JSON null becomes the missing marker.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// yearKey is the bookkeeping column the scraper adds to every file.
const yearKey = "year"

// Source lists and decodes raw files from one directory.
type Source struct {
	dir     string
	pattern string
	columns []string
}

// NewSource creates a Source over dir. Only regular files whose name matches
// pattern are considered; columns is the positional binding of raw values.
func NewSource(dir, pattern string, columns []string) *Source {
	return &Source{dir: dir, pattern: pattern, columns: columns}
}

// ListFiles returns the matching files in dir, sorted by name.
func (s *Source) ListFiles(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list input dir: %w", err)
	}

	var files []string
	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if e.IsDir() {
			continue
		}
		ok, err := filepath.Match(s.pattern, e.Name())
		if err != nil {
			return nil, fmt.Errorf("match input pattern: %w", err)
		}
		if ok {
			files = append(files, filepath.Join(s.dir, e.Name()))
		}
	}
	return files, nil
}

// Extract decodes every record of one file. An empty file or an empty array
// yields no records and no error.
func (s *Source) Extract(ctx context.Context, path string) ([]domain.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read raw file: %w", err)
	}
	return Decode(filepath.Base(path), data, s.columns)
}

// Decode parses the content of one raw file named name.
func Decode(name string, data []byte, columns []string) ([]domain.RawRecord, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var (
		rows [][]string
		err  error
	)
	switch data[0] {
	case '[':
		rows, err = decodeRows(dec)
	case '{':
		rows, err = decodeColumns(dec)
	default:
		err = errors.New("expected a JSON array or object")
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	records := make([]domain.RawRecord, 0, len(rows))
	for i, values := range rows {
		rec, err := domain.BindRecord(name, i, columns, values)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeRows(dec *json.Decoder) ([][]string, error) {
	var raw [][]any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	rows := make([][]string, len(raw))
	for i, values := range raw {
		row := make([]string, len(values))
		for j, v := range values {
			s, err := scalar(v)
			if err != nil {
				return nil, fmt.Errorf("record %d value %d: %w", i, j, err)
			}
			row[j] = s
		}
		rows[i] = row
	}
	return rows, nil
}

// decodeColumns walks the object token by token so keys keep their file order.
func decodeColumns(dec *json.Decoder) ([][]string, error) {
	if _, err := dec.Token(); err != nil {
		return nil, err
	}

	var (
		keys    []string
		columns [][]any
	)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected token %v", tok)
		}
		var values []any
		if err := dec.Decode(&values); err != nil {
			return nil, fmt.Errorf("column %q: %w", key, err)
		}
		if key == yearKey {
			continue
		}
		keys = append(keys, key)
		columns = append(columns, values)
	}
	if _, err := dec.Token(); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	if len(columns) == 0 {
		return nil, nil
	}

	n := len(columns[0])
	for i, col := range columns {
		if len(col) != n {
			return nil, fmt.Errorf("column %q has %d values, want %d", keys[i], len(col), n)
		}
	}

	rows := make([][]string, n)
	for i := range n {
		row := make([]string, len(columns))
		for j, col := range columns {
			s, err := scalar(col[i])
			if err != nil {
				return nil, fmt.Errorf("column %q record %d: %w", keys[j], i, err)
			}
			row[j] = s
		}
		rows[i] = row
	}
	return rows, nil
}

func scalar(v any) (string, error) {
	switch x := v.(type) {
	case nil:
		return domain.MissingMarker, nil
	case string:
		return x, nil
	case json.Number:
		return x.String(), nil
	case bool:
		return strconv.FormatBool(x), nil
	default:
		return "", fmt.Errorf("unsupported value of type %T", v)
	}
}
