package domain

// Raw column names the transformer reads.
const (
	ColDate            = "date"
	ColTime            = "time"
	ColLocation        = "location"
	ColAirlineOperator = "airline_operator"
	ColFlightNo        = "flight_no"
	ColRoute           = "route"
	ColAircraftType    = "aircraft_type"
	ColICAOReg         = "icao_reg"
	ColCnLn            = "cn_ln"
	ColAboard          = "aboard"
	ColFatalities      = "fatalities"
	ColGround          = "ground"
	ColSummary         = "summary"
)

// DefaultRawColumns is the positional column order of the scraped detail
// pages, used when no column list is configured.
var DefaultRawColumns = []string{
	ColDate, ColTime, ColLocation, ColAirlineOperator, ColFlightNo, ColRoute, ColAircraftType,
	ColICAOReg, ColCnLn, ColAboard, ColFatalities, ColGround, ColSummary,
}

// RawRecord is one accident row with its positional values bound to names.
type RawRecord struct {
	File   string
	Index  int
	fields map[string]string
}

// BindRecord names the positional values of one raw row. The arity must match
// the column list exactly.
func BindRecord(file string, index int, columns, values []string) (RawRecord, error) {
	if len(values) != len(columns) {
		return RawRecord{}, &SchemaMismatchError{File: file, Record: index, Got: len(values), Want: len(columns)}
	}
	fields := make(map[string]string, len(columns))
	for i, name := range columns {
		fields[name] = values[i]
	}
	return RawRecord{File: file, Index: index, fields: fields}, nil
}

// NewRawRecord builds a record from already named fields.
func NewRawRecord(file string, index int, fields map[string]string) RawRecord {
	return RawRecord{File: file, Index: index, fields: fields}
}

// Field returns the raw value of a named column.
func (r RawRecord) Field(name string) (string, error) {
	v, ok := r.fields[name]
	if !ok {
		return "", &MissingFieldError{Field: name, File: r.File, Record: r.Index}
	}
	return v, nil
}

type rawFields struct {
	date, time, location, airline, flightNo, route, aircraftType string
	icaoReg, cnLn, aboard, fatalities, ground, summary           string
}

func (r RawRecord) required() (rawFields, error) {
	var f rawFields
	targets := []struct {
		name string
		dst  *string
	}{
		{ColDate, &f.date},
		{ColTime, &f.time},
		{ColLocation, &f.location},
		{ColAirlineOperator, &f.airline},
		{ColFlightNo, &f.flightNo},
		{ColRoute, &f.route},
		{ColAircraftType, &f.aircraftType},
		{ColICAOReg, &f.icaoReg},
		{ColCnLn, &f.cnLn},
		{ColAboard, &f.aboard},
		{ColFatalities, &f.fatalities},
		{ColGround, &f.ground},
		{ColSummary, &f.summary},
	}
	for _, t := range targets {
		v, err := r.Field(t.name)
		if err != nil {
			return rawFields{}, err
		}
		*t.dst = v
	}
	return f, nil
}
