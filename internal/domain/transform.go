package domain

import (
	"fmt"
)

// RowSet is the output of transforming one raw record: one fact row and at
// most one row per dimension. Date is always present.
type RowSet struct {
	Fact         AccidentFact
	Date         DimDate
	Time         *DimTime
	Airline      *DimAirline
	Route        *DimRoute
	AircraftType *DimAircraftType
}

// TransformOptions configures how raw fields are interpreted.
type TransformOptions struct {
	// DateLayout is a Go time layout; DefaultDateLayout when empty.
	DateLayout string

	// FixRouteDestination takes the route destination from the last segment
	// instead of repeating the source.
	FixRouteDestination bool
}

// Transformer maps raw records to star-schema rows.
type Transformer struct {
	ids        IDGenerator
	dateLayout string
	fixRoute   bool
}

// NewTransformer creates a Transformer minting ids from the given generator.
func NewTransformer(ids IDGenerator, opts TransformOptions) *Transformer {
	layout := opts.DateLayout
	if layout == "" {
		layout = DefaultDateLayout
	}
	return &Transformer{
		ids:        ids,
		dateLayout: layout,
		fixRoute:   opts.FixRouteDestination,
	}
}

// Transform builds the fact row and dimension rows for one record. A missing
// column or an unparseable date or ground count is an error; "?" values are
// not.
func (t *Transformer) Transform(rec RawRecord) (RowSet, error) {
	f, err := rec.required()
	if err != nil {
		return RowSet{}, err
	}

	fact := AccidentFact{FactID: t.ids.NewID()}
	var rs RowSet

	date, err := ParseDate(f.date, t.dateLayout)
	if err != nil {
		return RowSet{}, fmt.Errorf("%s record %d: %w", rec.File, rec.Index, err)
	}
	rs.Date = DimDate{
		DateID:    t.ids.NewID(),
		Day:       date.Day,
		Month:     date.Month,
		Year:      date.Year,
		DayOfWeek: date.DayOfWeek,
	}
	fact.DateID = rs.Date.DateID

	if clock, ok := ParseTime(f.time); ok {
		rs.Time = &DimTime{TimeID: t.ids.NewID(), Hours: clock.Hours, Minutes: clock.Minutes}
		fact.TimeID = ptr(rs.Time.TimeID)
	}

	if name := MissingOrValue(f.airline); name != nil {
		rs.Airline = &DimAirline{AirlineID: t.ids.NewID(), Name: *name}
		fact.AirlineID = ptr(rs.Airline.AirlineID)
	}

	if route, ok := ParseRoute(f.route, t.fixRoute); ok {
		rs.Route = &DimRoute{
			RouteID:     t.ids.NewID(),
			RouteName:   route.Name,
			Source:      route.Source,
			Destination: route.Destination,
		}
		fact.RouteID = ptr(rs.Route.RouteID)
	}

	if typeName := MissingOrValue(f.aircraftType); typeName != nil {
		rs.AircraftType = &DimAircraftType{AircraftTypeID: t.ids.NewID(), TypeName: *typeName}
		fact.AircraftTypeID = ptr(rs.AircraftType.AircraftTypeID)
	}

	fact.Location = MissingOrValue(f.location)
	fact.FlightNo = MissingOrValue(f.flightNo)
	fact.ICAOReg = MissingOrValue(f.icaoReg)
	fact.CnLn = MissingOrValue(f.cnLn)

	if aboard, ok := ParseCount(f.aboard); ok {
		fact.TotalAboard = aboard.Total
		fact.PassengersAboard = aboard.Passengers
		fact.CrewAboard = aboard.Crew
	}
	if fatalities, ok := ParseCount(f.fatalities); ok {
		fact.TotalFatalities = fatalities.Total
		fact.PassengersFatalities = fatalities.Passengers
		fact.CrewFatalities = fatalities.Crew
	}

	ground, err := ParseGround(f.ground)
	if err != nil {
		return RowSet{}, fmt.Errorf("%s record %d: %w", rec.File, rec.Index, err)
	}
	fact.GroundFatalities = ground

	fact.Summary = MissingOrValue(f.summary)

	rs.Fact = fact
	return rs, nil
}

func ptr[T any](v T) *T { return &v }
