// Command genmock converts a CSV export of the accident database into the
// per-year raw JSON files the pipeline reads. Every generated record is run
// through the domain transformer so fixtures that the pipeline would reject
// are reported before they are checked in.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -csv testdata/accidents.csv \
//	  -out data/raw \
//	  -columnar
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// headerAliases maps lower-cased CSV headers to raw column names.
var headerAliases = map[string]string{
	"date":             domain.ColDate,
	"time":             domain.ColTime,
	"location":         domain.ColLocation,
	"operator":         domain.ColAirlineOperator,
	"airline/operator": domain.ColAirlineOperator,
	"flight #":         domain.ColFlightNo,
	"flight no":        domain.ColFlightNo,
	"route":            domain.ColRoute,
	"type":             domain.ColAircraftType,
	"ac type":          domain.ColAircraftType,
	"aircraft type":    domain.ColAircraftType,
	"registration":     domain.ColICAOReg,
	"cn/in":            domain.ColCnLn,
	"cn/ln":            domain.ColCnLn,
	"aboard":           domain.ColAboard,
	"fatalities":       domain.ColFatalities,
	"ground":           domain.ColGround,
	"summary":          domain.ColSummary,
}

// Split count columns found in some exports, folded back into the scraped
// "N   (passengers:P  crew:C)" form.
var splitCounts = map[string]struct{ passengers, crew []string }{
	domain.ColAboard:     {[]string{"aboard passangers", "aboard passengers"}, []string{"aboard crew"}},
	domain.ColFatalities: {[]string{"fatalities passangers", "fatalities passengers"}, []string{"fatalities crew"}},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	csvPath := flag.String("csv", "", "CSV export to convert")
	outDir := flag.String("out", "", "directory for the generated data_<year>.json files")
	csvLayout := flag.String("date-layout", "01/02/2006", "Go time layout of the CSV date column")
	columnar := flag.Bool("columnar", false, "write the column-oriented scraper format instead of positional rows")
	flag.Parse()

	if *csvPath == "" || *outDir == "" {
		flag.Usage()
		return errors.New("missing required flags: -csv, -out")
	}

	byYear, err := readCSV(*csvPath, *csvLayout)
	if err != nil {
		return fmt.Errorf("processing %s: %w", *csvPath, err)
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		return err
	}

	years := make([]int, 0, len(byYear))
	for y := range byYear {
		years = append(years, y)
	}
	sort.Ints(years)

	total := 0
	for _, y := range years {
		rows := byYear[y]
		var data []byte
		if *columnar {
			data, err = encodeColumns(y, rows)
		} else {
			data, err = json.Marshal(rows)
		}
		if err != nil {
			return fmt.Errorf("encode %d: %w", y, err)
		}
		path := filepath.Join(*outDir, fmt.Sprintf("data_%d.json", y))
		if err := os.WriteFile(path, append(data, '\n'), 0o600); err != nil {
			return err
		}
		total += len(rows)
	}
	log.Printf("wrote %s records in %d files to %s", humanize.Comma(int64(total)), len(years), *outDir)

	printStats(check(byYear))
	return nil
}

// readCSV groups the CSV rows by accident year, each row laid out in
// domain.DefaultRawColumns order with "?" for blank cells.
func readCSV(path, layout string) (map[int][][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) < 2 {
		return nil, errors.New("no data rows")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	rawIdx := map[string]int{}
	for h, i := range colIdx {
		if name, ok := headerAliases[h]; ok {
			rawIdx[name] = i
		}
	}
	if _, ok := rawIdx[domain.ColDate]; !ok {
		return nil, errors.New("csv has no date column")
	}

	byYear := map[int][][]string{}
	for n, row := range rows[1:] {
		out := make([]string, len(domain.DefaultRawColumns))
		for i, name := range domain.DefaultRawColumns {
			out[i] = cell(row, rawIdx, name)
		}

		t, err := time.Parse(layout, out[0])
		if err != nil {
			return nil, fmt.Errorf("row %d: date %q: %w", n+2, out[0], err)
		}
		out[0] = t.Format(domain.DefaultDateLayout)
		out[1] = clockText(out[1])
		out[9] = countText(out[9], row, colIdx, splitCounts[domain.ColAboard])
		out[10] = countText(out[10], row, colIdx, splitCounts[domain.ColFatalities])

		byYear[t.Year()] = append(byYear[t.Year()], out)
	}
	return byYear, nil
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return domain.MissingMarker
	}
	v := strings.TrimSpace(row[i])
	if v == "" {
		return domain.MissingMarker
	}
	return v
}

// clockText turns "9:30" or "17:18" into the HHMM form of the detail pages.
func clockText(s string) string {
	if domain.IsMissing(s) || !strings.Contains(s, ":") {
		return s
	}
	s = strings.ReplaceAll(s, ":", "")
	if len(s) == 3 {
		s = "0" + s
	}
	return s
}

func countText(total string, row []string, idx map[string]int, split struct{ passengers, crew []string }) string {
	passengers := firstCell(row, idx, split.passengers)
	crew := firstCell(row, idx, split.crew)
	if domain.IsMissing(total) || (passengers == "" && crew == "") {
		return total
	}
	if passengers == "" {
		passengers = domain.MissingMarker
	}
	if crew == "" {
		crew = domain.MissingMarker
	}
	return fmt.Sprintf("%s   (passengers:%s  crew:%s)", total, passengers, crew)
}

func firstCell(row []string, idx map[string]int, headers []string) string {
	for _, h := range headers {
		if i, ok := idx[h]; ok && i < len(row) {
			if v := strings.TrimSpace(row[i]); v != "" {
				return v
			}
		}
	}
	return ""
}

// encodeColumns writes {"year": [...], "<column>": [...], ...} with keys in
// raw column order; encoding/json would sort map keys.
func encodeColumns(year int, rows [][]string) ([]byte, error) {
	var buf bytes.Buffer
	years := make([]int, len(rows))
	for i := range years {
		years[i] = year
	}
	yearJSON, err := json.Marshal(years)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`{"year":`)
	buf.Write(yearJSON)

	for c, name := range domain.DefaultRawColumns {
		values := make([]string, len(rows))
		for i, r := range rows {
			values[i] = r[c]
		}
		data, err := json.Marshal(values)
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, ",%q:", name)
		buf.Write(data)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// statsResult holds aggregated counts for printStats reporting.
type statsResult struct {
	yearCounts map[int]int
	rejected   []string
	noTime     int
	noAirline  int
	noRoute    int
	noAircraft int
	geocodable int
}

// check runs every generated record through the domain transformer.
func check(byYear map[int][][]string) statsResult {
	s := statsResult{yearCounts: map[int]int{}}
	tr := domain.NewTransformer(domain.NewSequentialGenerator("mock-"), domain.TransformOptions{})

	for year, rows := range byYear {
		s.yearCounts[year] = len(rows)
		name := fmt.Sprintf("data_%d.json", year)
		for i, values := range rows {
			rec, err := domain.BindRecord(name, i, domain.DefaultRawColumns, values)
			if err == nil {
				var rs domain.RowSet
				rs, err = tr.Transform(rec)
				if err == nil {
					tally(&s, rs)
					continue
				}
			}
			s.rejected = append(s.rejected, fmt.Sprintf("%s[%d]: %v", name, i, err))
		}
	}
	sort.Strings(s.rejected)
	return s
}

func tally(s *statsResult, rs domain.RowSet) {
	if rs.Time == nil {
		s.noTime++
	}
	if rs.Airline == nil {
		s.noAirline++
	}
	if rs.Route == nil {
		s.noRoute++
	}
	if rs.AircraftType == nil {
		s.noAircraft++
	}
	if rs.Fact.Location != nil {
		s.geocodable++
	}
}

func printStats(s statsResult) {
	years := make([]int, 0, len(s.yearCounts))
	for y := range s.yearCounts {
		years = append(years, y)
	}
	sort.Ints(years)

	fmt.Println("\n=== Records by year ===")
	for _, y := range years {
		fmt.Printf("  %d: %s\n", y, humanize.Comma(int64(s.yearCounts[y])))
	}

	fmt.Println("\n=== Missing dimensions ===")
	fmt.Printf("  time:          %s\n", humanize.Comma(int64(s.noTime)))
	fmt.Printf("  airline:       %s\n", humanize.Comma(int64(s.noAirline)))
	fmt.Printf("  route:         %s\n", humanize.Comma(int64(s.noRoute)))
	fmt.Printf("  aircraft type: %s\n", humanize.Comma(int64(s.noAircraft)))
	fmt.Printf("  with location: %s\n", humanize.Comma(int64(s.geocodable)))

	if len(s.rejected) == 0 {
		fmt.Println("\nAll records transform cleanly.")
		return
	}
	fmt.Printf("\n=== Rejected by the transformer (%d) ===\n", len(s.rejected))
	for _, r := range s.rejected {
		fmt.Println("  " + r)
	}
}
