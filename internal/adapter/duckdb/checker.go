// Package duckdb cross-checks written Parquet output with SQL, independently
// of the Go readers used by the pipeline.
package duckdb

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/duckdb/duckdb-go/v2"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// foreignKeys maps each fact column to the dimension that owns it.
var foreignKeys = []struct {
	column string
	table  string
}{
	{"date_id", domain.TableDate},
	{"time_id", domain.TableTime},
	{"airline_id", domain.TableAirline},
	{"route_id", domain.TableRoute},
	{"aircraft_type_id", domain.TableAircraftType},
}

var primaryKeys = map[string]string{
	domain.TableFact:         "fact_id",
	domain.TableDate:         "date_id",
	domain.TableTime:         "time_id",
	domain.TableAirline:      "airline_id",
	domain.TableRoute:        "route_id",
	domain.TableAircraftType: "aircraft_type_id",
}

// Report holds per-table counts computed by DuckDB.
type Report struct {
	Rows       map[string]int64 // table -> row count
	Duplicates map[string]int64 // table -> rows sharing a primary key
	Orphans    map[string]int64 // fact column -> non-null keys missing from the dimension
}

// Clean reports whether no duplicate or orphaned key was found.
func (r Report) Clean() bool {
	for _, n := range r.Duplicates {
		if n > 0 {
			return false
		}
	}
	for _, n := range r.Orphans {
		if n > 0 {
			return false
		}
	}
	return true
}

// Checker runs queries against an in-memory DuckDB database.
type Checker struct {
	db *sql.DB
}

// Open starts an in-memory DuckDB instance.
func Open() (*Checker, error) {
	db, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("open duckdb: %w", err)
	}
	return &Checker{db: db}, nil
}

// Close releases the database.
func (c *Checker) Close() error {
	return c.db.Close()
}

// Check inspects the files of one run. paths maps each table name to its
// Parquet file.
func (c *Checker) Check(ctx context.Context, paths map[string]string) (Report, error) {
	r := Report{
		Rows:       make(map[string]int64, len(paths)),
		Duplicates: make(map[string]int64, len(paths)),
		Orphans:    make(map[string]int64, len(foreignKeys)),
	}

	for _, table := range domain.TableNames {
		src := scan(paths[table])
		pk := primaryKeys[table]

		var rows, distinct int64
		q := fmt.Sprintf("SELECT count(*), count(DISTINCT %s) FROM %s", pk, src)
		if err := c.db.QueryRowContext(ctx, q).Scan(&rows, &distinct); err != nil {
			return r, fmt.Errorf("count %s: %w", table, err)
		}
		r.Rows[table] = rows
		r.Duplicates[table] = rows - distinct
	}

	fact := scan(paths[domain.TableFact])
	for _, fk := range foreignKeys {
		q := fmt.Sprintf(
			"SELECT count(*) FROM %s f LEFT JOIN %s d ON f.%[3]s = d.%[3]s WHERE f.%[3]s IS NOT NULL AND d.%[3]s IS NULL",
			fact, scan(paths[fk.table]), fk.column,
		)
		var n int64
		if err := c.db.QueryRowContext(ctx, q).Scan(&n); err != nil {
			return r, fmt.Errorf("orphans %s: %w", fk.column, err)
		}
		r.Orphans[fk.column] = n
	}
	return r, nil
}

func scan(path string) string {
	return "read_parquet('" + strings.ReplaceAll(path, "'", "''") + "')"
}
