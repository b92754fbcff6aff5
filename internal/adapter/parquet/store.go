// Package parquet persists the star schema as one Parquet file per table,
// plus a JSON run manifest next to them.
package parquet

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/parquet-go/parquet-go"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// ManifestFile is the name of the run manifest inside the output directory.
const ManifestFile = "_manifest.json"

// Store writes and reads the six tables under one directory.
type Store struct {
	dir   string
	files map[string]string
}

// NewStore creates a Store. files maps a table name to its file name; tables
// missing from the map use "<table>.parquet".
func NewStore(dir string, files map[string]string) *Store {
	resolved := make(map[string]string, len(domain.TableNames))
	for _, table := range domain.TableNames {
		name := files[table]
		if name == "" {
			name = table + ".parquet"
		}
		resolved[table] = name
	}
	return &Store{dir: dir, files: resolved}
}

// Path returns the file a table is written to.
func (s *Store) Path(table string) string {
	return filepath.Join(s.dir, s.files[table])
}

// Dir is the output directory.
func (s *Store) Dir() string { return s.dir }

// Save writes every table, creating the directory if needed. A failing table
// does not stop the others; all failures are returned joined, each as a
// *domain.PersistenceError.
func (s *Store) Save(ctx context.Context, t domain.Tables) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	writes := []struct {
		table string
		write func(path string) error
	}{
		{domain.TableFact, writer(t.Facts)},
		{domain.TableDate, writer(t.Dates)},
		{domain.TableTime, writer(t.Times)},
		{domain.TableAirline, writer(t.Airlines)},
		{domain.TableRoute, writer(t.Routes)},
		{domain.TableAircraftType, writer(t.AircraftTypes)},
	}

	var errs []error
	for _, w := range writes {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		path := s.Path(w.table)
		if err := w.write(path); err != nil {
			errs = append(errs, &domain.PersistenceError{Table: w.table, Path: path, Err: err})
		}
	}
	return errors.Join(errs...)
}

// Load reads the six tables back.
func (s *Store) Load() (domain.Tables, error) {
	var (
		t    domain.Tables
		errs []error
	)
	read(s, domain.TableFact, &t.Facts, &errs)
	read(s, domain.TableDate, &t.Dates, &errs)
	read(s, domain.TableTime, &t.Times, &errs)
	read(s, domain.TableAirline, &t.Airlines, &errs)
	read(s, domain.TableRoute, &t.Routes, &errs)
	read(s, domain.TableAircraftType, &t.AircraftTypes, &errs)
	return t, errors.Join(errs...)
}

// SaveManifest writes the run manifest as indented JSON.
func (s *Store) SaveManifest(m domain.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal manifest: %w", err)
	}
	path := filepath.Join(s.dir, ManifestFile)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}
	return nil
}

// LoadManifest reads the manifest written by the last run.
func (s *Store) LoadManifest() (domain.Manifest, error) {
	var m domain.Manifest
	data, err := os.ReadFile(filepath.Join(s.dir, ManifestFile))
	if err != nil {
		return m, fmt.Errorf("read manifest: %w", err)
	}
	if err := json.Unmarshal(data, &m); err != nil {
		return m, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

func writer[T any](rows []T) func(string) error {
	return func(path string) error {
		return parquet.WriteFile(path, rows)
	}
}

func read[T any](s *Store, table string, dst *[]T, errs *[]error) {
	path := s.Path(table)
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("read %s from %s: %w", table, path, err))
		return
	}
	*dst = rows
}
