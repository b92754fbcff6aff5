package domain

import "fmt"

// CheckIntegrity verifies the invariants of a finished star schema: unique
// surrogate ids per table, every non-null fact foreign key resolving to a
// dimension row, value ranges, and route exclusivity. It returns one error
// per violation.
func CheckIntegrity(t Tables) []error {
	var errs []error
	report := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	idSet(t.Facts, func(f AccidentFact) string { return f.FactID }, TableFact, report)
	dates := idSet(t.Dates, func(d DimDate) string { return d.DateID }, TableDate, report)
	times := idSet(t.Times, func(d DimTime) string { return d.TimeID }, TableTime, report)
	airlines := idSet(t.Airlines, func(d DimAirline) string { return d.AirlineID }, TableAirline, report)
	routes := idSet(t.Routes, func(d DimRoute) string { return d.RouteID }, TableRoute, report)
	aircraftTypes := idSet(t.AircraftTypes, func(d DimAircraftType) string { return d.AircraftTypeID }, TableAircraftType, report)

	for _, f := range t.Facts {
		if !dates[f.DateID] {
			report("%s %s: date_id %s not in %s", TableFact, f.FactID, f.DateID, TableDate)
		}
		checkRef(f.FactID, "time_id", f.TimeID, times, TableTime, report)
		checkRef(f.FactID, "airline_id", f.AirlineID, airlines, TableAirline, report)
		checkRef(f.FactID, "route_id", f.RouteID, routes, TableRoute, report)
		checkRef(f.FactID, "aircraft_type_id", f.AircraftTypeID, aircraftTypes, TableAircraftType, report)
	}

	for _, d := range t.Dates {
		if d.Day < 1 || d.Day > 31 || d.Month < 1 || d.Month > 12 {
			report("%s %s: invalid date %d-%02d-%02d", TableDate, d.DateID, d.Year, d.Month, d.Day)
		}
	}
	for _, tm := range t.Times {
		if tm.Hours < 0 || tm.Hours > 23 || tm.Minutes < 0 || tm.Minutes > 59 {
			report("%s %s: invalid time %02d:%02d", TableTime, tm.TimeID, tm.Hours, tm.Minutes)
		}
	}
	for _, r := range t.Routes {
		named := r.RouteName != nil
		split := r.Source != nil || r.Destination != nil
		if named == split {
			report("%s %s: exactly one of route_name or source/destination must be set", TableRoute, r.RouteID)
		}
	}

	return errs
}

func idSet[R any](rows []R, id func(R) string, table string, report func(string, ...any)) map[string]bool {
	seen := make(map[string]bool, len(rows))
	for _, row := range rows {
		k := id(row)
		if seen[k] {
			report("%s: duplicate id %s", table, k)
		}
		seen[k] = true
	}
	return seen
}

func checkRef(factID, column string, ref *string, ids map[string]bool, table string, report func(string, ...any)) {
	if ref == nil || ids[*ref] {
		return
	}
	report("%s %s: %s %s not in %s", TableFact, factID, column, *ref, table)
}
