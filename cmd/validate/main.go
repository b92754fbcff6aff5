// Command validate checks the output of a pipeline run: it reloads the
// Parquet tables, compares them with the run manifest, verifies referential
// integrity and optionally cross-checks everything with DuckDB SQL and
// against the raw input files.
//
// Configuration comes from the same environment variables as cmd/etl.
//
// Usage:
//
//	OUTPUT_DIR=data/processed go run ./cmd/validate -raw -duckdb
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/duckdb"
	"github.com/couchcryptid/aviation-accident-etl/internal/adapter/jsonfile"
	parquetstore "github.com/couchcryptid/aviation-accident-etl/internal/adapter/parquet"
	"github.com/couchcryptid/aviation-accident-etl/internal/config"
	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name    string
	skipped bool
	errors  []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	raw := flag.Bool("raw", false, "compare record counts against the raw input files")
	useDuckDB := flag.Bool("duckdb", false, "cross-check keys and counts with DuckDB SQL")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load config: %v\n", err)
		os.Exit(1)
	}
	os.Exit(run(context.Background(), cfg, *raw, *useDuckDB))
}

func run(ctx context.Context, cfg *config.Config, raw, useDuckDB bool) int {
	fmt.Println("=== Aviation Accident Output Validation ===")
	fmt.Println()

	store := parquetstore.NewStore(cfg.OutputDir, cfg.OutputFiles)

	manifest, err := store.LoadManifest()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", err)
		return 1
	}
	tables, err := store.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load tables: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCounts(manifest, tables),
		validateIntegrity(tables),
		validateRaw(ctx, cfg, manifest, raw),
		validateSQL(ctx, cfg, manifest, useDuckDB),
	}

	fmt.Printf("Run %s: %s files, %s records read, %s skipped\n",
		manifest.RunID,
		humanize.Comma(int64(len(manifest.Files))),
		humanize.Comma(int64(manifest.RecordsRead)),
		humanize.Comma(int64(manifest.RecordsSkipped)),
	)
	counts := tables.Counts()
	for _, table := range domain.TableNames {
		fmt.Printf("  %-20s %s rows\n", table, humanize.Comma(int64(counts[table])))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		switch {
		case p.skipped:
			status = "SKIP"
		case !p.passed():
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Phase 1: Manifest counts ──

func validateCounts(m domain.Manifest, t domain.Tables) *phase {
	p := &phase{name: "Phase 1: Row counts (Parquet vs manifest)"}

	counts := t.Counts()
	for _, table := range domain.TableNames {
		if counts[table] != m.Tables[table] {
			p.errorf("%s: manifest says %d rows, file has %d", table, m.Tables[table], counts[table])
		}
	}
	if want := m.RecordsRead - m.RecordsSkipped; len(t.Facts) != want {
		p.errorf("fact_accident: %d rows, want one per kept record (%d)", len(t.Facts), want)
	}
	if !m.Deduplicated && len(t.Dates) != len(t.Facts) {
		p.errorf("dim_date: %d rows, want one per fact (%d)", len(t.Dates), len(t.Facts))
	}
	return p
}

// ── Phase 2: Referential integrity ──

func validateIntegrity(t domain.Tables) *phase {
	p := &phase{name: "Phase 2: Referential integrity"}
	for _, err := range domain.CheckIntegrity(t) {
		p.errorf("%v", err)
	}
	return p
}

// ── Phase 3: Raw input parity ──

func validateRaw(ctx context.Context, cfg *config.Config, m domain.Manifest, enabled bool) *phase {
	p := &phase{name: "Phase 3: Raw input parity", skipped: !enabled}
	if !enabled {
		return p
	}

	src := jsonfile.NewSource(cfg.InputDir, cfg.InputPattern, cfg.RawColumns)
	files, err := src.ListFiles(ctx)
	if err != nil {
		p.errorf("%v", err)
		return p
	}

	names := make([]string, 0, len(files))
	total := 0
	for _, path := range files {
		records, err := src.Extract(ctx, path)
		if err != nil {
			p.errorf("%v", err)
			continue
		}
		names = append(names, filepath.Base(path))
		total += len(records)
	}

	if !slices.Equal(names, m.Files) {
		p.errorf("input files %v differ from manifest files %v", names, m.Files)
	}
	if total != m.RecordsRead {
		p.errorf("input holds %d records, manifest read %d", total, m.RecordsRead)
	}
	return p
}

// ── Phase 4: SQL cross-check ──

func validateSQL(ctx context.Context, cfg *config.Config, m domain.Manifest, enabled bool) *phase {
	p := &phase{name: "Phase 4: DuckDB cross-check", skipped: !enabled}
	if !enabled {
		return p
	}

	checker, err := duckdb.Open()
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	defer checker.Close()

	paths := make(map[string]string, len(domain.TableNames))
	for _, table := range domain.TableNames {
		paths[table] = cfg.OutputPath(table)
	}

	report, err := checker.Check(ctx, paths)
	if err != nil {
		p.errorf("%v", err)
		return p
	}
	for _, table := range domain.TableNames {
		if report.Rows[table] != int64(m.Tables[table]) {
			p.errorf("%s: duckdb counts %d rows, manifest %d", table, report.Rows[table], m.Tables[table])
		}
		if n := report.Duplicates[table]; n > 0 {
			p.errorf("%s: %d duplicate primary keys", table, n)
		}
	}
	for column, n := range report.Orphans {
		if n > 0 {
			p.errorf("fact_accident.%s: %d keys without a dimension row", column, n)
		}
	}
	return p
}
