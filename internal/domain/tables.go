package domain

// Table names, also used as the default output file stems.
const (
	TableFact         = "fact_accident"
	TableDate         = "dim_date"
	TableTime         = "dim_time"
	TableAirline      = "dim_airline"
	TableRoute        = "dim_route"
	TableAircraftType = "dim_aircraft_type"
)

// TableNames lists the six tables in persistence order.
var TableNames = []string{TableFact, TableDate, TableTime, TableAirline, TableRoute, TableAircraftType}

// AccidentFact is one row of the fact table. Pointer fields are nullable.
type AccidentFact struct {
	FactID         string  `parquet:"fact_id" json:"fact_id"`
	DateID         string  `parquet:"date_id" json:"date_id"`
	TimeID         *string `parquet:"time_id,optional" json:"time_id"`
	AirlineID      *string `parquet:"airline_id,optional" json:"airline_id"`
	RouteID        *string `parquet:"route_id,optional" json:"route_id"`
	AircraftTypeID *string `parquet:"aircraft_type_id,optional" json:"aircraft_type_id"`

	Location *string `parquet:"location,optional" json:"location"`
	FlightNo *string `parquet:"flight_no,optional" json:"flight_no"`
	ICAOReg  *string `parquet:"icao_reg,optional" json:"icao_reg"`
	CnLn     *string `parquet:"cn_ln,optional" json:"cn_ln"`

	TotalAboard          *int64 `parquet:"total_aboard,optional" json:"total_aboard"`
	PassengersAboard     *int64 `parquet:"passengers_aboard,optional" json:"passengers_aboard"`
	CrewAboard           *int64 `parquet:"crew_aboard,optional" json:"crew_aboard"`
	TotalFatalities      *int64 `parquet:"total_fatalities,optional" json:"total_fatalities"`
	PassengersFatalities *int64 `parquet:"passengers_fatalities,optional" json:"passengers_fatalities"`
	CrewFatalities       *int64 `parquet:"crew_fatalities,optional" json:"crew_fatalities"`
	GroundFatalities     *int64 `parquet:"ground_fatalities,optional" json:"ground_fatalities"`

	Summary *string `parquet:"summary,optional" json:"summary"`

	// Geocoding enrichment, only populated when a geocoder is configured.
	Latitude  *float64 `parquet:"latitude,optional" json:"latitude,omitempty"`
	Longitude *float64 `parquet:"longitude,optional" json:"longitude,omitempty"`
}

// DimDate is one row of the date dimension.
type DimDate struct {
	DateID    string `parquet:"date_id" json:"date_id"`
	Day       int    `parquet:"day" json:"day"`
	Month     int    `parquet:"month" json:"month"`
	Year      int    `parquet:"year" json:"year"`
	DayOfWeek string `parquet:"day_of_week" json:"day_of_week"`
}

// DimTime is one row of the time dimension.
type DimTime struct {
	TimeID  string `parquet:"time_id" json:"time_id"`
	Hours   int    `parquet:"hours" json:"hours"`
	Minutes int    `parquet:"minutes" json:"minutes"`
}

// DimAirline is one row of the airline dimension.
type DimAirline struct {
	AirlineID string `parquet:"airline_id" json:"airline_id"`
	Name      string `parquet:"name" json:"name"`
}

// DimRoute is one row of the route dimension. Either RouteName or the
// Source/Destination pair is set.
type DimRoute struct {
	RouteID     string  `parquet:"route_id" json:"route_id"`
	RouteName   *string `parquet:"route_name,optional" json:"route_name"`
	Source      *string `parquet:"source,optional" json:"source"`
	Destination *string `parquet:"destination,optional" json:"destination"`
}

// DimAircraftType is one row of the aircraft type dimension.
type DimAircraftType struct {
	AircraftTypeID string `parquet:"aircraft_type_id" json:"aircraft_type_id"`
	TypeName       string `parquet:"type_name" json:"type_name"`
}

// Tables groups the fact table and its five dimensions. It holds either the
// rows produced from one file or the accumulated rows of a whole run.
type Tables struct {
	Facts         []AccidentFact
	Dates         []DimDate
	Times         []DimTime
	Airlines      []DimAirline
	Routes        []DimRoute
	AircraftTypes []DimAircraftType
}

// Add appends the rows of one transformed record.
func (t *Tables) Add(rs RowSet) {
	t.Facts = append(t.Facts, rs.Fact)
	t.Dates = append(t.Dates, rs.Date)
	if rs.Time != nil {
		t.Times = append(t.Times, *rs.Time)
	}
	if rs.Airline != nil {
		t.Airlines = append(t.Airlines, *rs.Airline)
	}
	if rs.Route != nil {
		t.Routes = append(t.Routes, *rs.Route)
	}
	if rs.AircraftType != nil {
		t.AircraftTypes = append(t.AircraftTypes, *rs.AircraftType)
	}
}

// Counts returns the row count of each table keyed by table name.
func (t Tables) Counts() map[string]int {
	return map[string]int{
		TableFact:         len(t.Facts),
		TableDate:         len(t.Dates),
		TableTime:         len(t.Times),
		TableAirline:      len(t.Airlines),
		TableRoute:        len(t.Routes),
		TableAircraftType: len(t.AircraftTypes),
	}
}
