package domain

// Accumulator owns the global tables of a run and merges per-file batches
// into them.
//
// Without deduplication every batch row is appended as-is, so repeated
// real-world values (the same airline twice) keep their own surrogate ids.
// With deduplication each dimension is indexed by its natural key; a repeated
// value is dropped and the facts referencing it are pointed at the id that
// was stored first.
type Accumulator struct {
	tables Tables
	dedup  bool

	dates         map[dateKey]string
	times         map[timeKey]string
	airlines      map[string]string
	routes        map[routeKey]string
	aircraftTypes map[string]string
}

type dateKey struct{ day, month, year int }

type timeKey struct{ hours, minutes int }

type routeKey struct {
	named                     bool
	name, source, destination string
}

// NewAccumulator creates an empty Accumulator.
func NewAccumulator(dedup bool) *Accumulator {
	return &Accumulator{
		dedup:         dedup,
		dates:         make(map[dateKey]string),
		times:         make(map[timeKey]string),
		airlines:      make(map[string]string),
		routes:        make(map[routeKey]string),
		aircraftTypes: make(map[string]string),
	}
}

// Merge appends a batch, preserving the order its rows were produced in.
// Existing rows are never modified. An empty batch is a no-op.
func (a *Accumulator) Merge(batch Tables) {
	if !a.dedup {
		a.tables.Facts = append(a.tables.Facts, batch.Facts...)
		a.tables.Dates = append(a.tables.Dates, batch.Dates...)
		a.tables.Times = append(a.tables.Times, batch.Times...)
		a.tables.Airlines = append(a.tables.Airlines, batch.Airlines...)
		a.tables.Routes = append(a.tables.Routes, batch.Routes...)
		a.tables.AircraftTypes = append(a.tables.AircraftTypes, batch.AircraftTypes...)
		return
	}

	remap := make(map[string]string)

	a.tables.Dates = mergeUnique(a.tables.Dates, batch.Dates, a.dates, remap,
		func(d DimDate) (dateKey, string) { return dateKey{d.Day, d.Month, d.Year}, d.DateID })
	a.tables.Times = mergeUnique(a.tables.Times, batch.Times, a.times, remap,
		func(t DimTime) (timeKey, string) { return timeKey{t.Hours, t.Minutes}, t.TimeID })
	a.tables.Airlines = mergeUnique(a.tables.Airlines, batch.Airlines, a.airlines, remap,
		func(al DimAirline) (string, string) { return al.Name, al.AirlineID })
	a.tables.Routes = mergeUnique(a.tables.Routes, batch.Routes, a.routes, remap,
		func(r DimRoute) (routeKey, string) { return naturalRouteKey(r), r.RouteID })
	a.tables.AircraftTypes = mergeUnique(a.tables.AircraftTypes, batch.AircraftTypes, a.aircraftTypes, remap,
		func(at DimAircraftType) (string, string) { return at.TypeName, at.AircraftTypeID })

	for _, f := range batch.Facts {
		f.DateID = remapID(remap, f.DateID)
		f.TimeID = remapOptional(remap, f.TimeID)
		f.AirlineID = remapOptional(remap, f.AirlineID)
		f.RouteID = remapOptional(remap, f.RouteID)
		f.AircraftTypeID = remapOptional(remap, f.AircraftTypeID)
		a.tables.Facts = append(a.tables.Facts, f)
	}
}

// Tables returns the accumulated tables. The slices are shared with the
// accumulator and must not be modified.
func (a *Accumulator) Tables() Tables {
	return a.tables
}

// mergeUnique appends the rows whose natural key has not been seen yet and
// records an id remapping for the others.
func mergeUnique[R any, K comparable](dst, rows []R, index map[K]string, remap map[string]string, key func(R) (K, string)) []R {
	for _, row := range rows {
		k, id := key(row)
		if existing, ok := index[k]; ok {
			remap[id] = existing
			continue
		}
		index[k] = id
		dst = append(dst, row)
	}
	return dst
}

func naturalRouteKey(r DimRoute) routeKey {
	if r.RouteName != nil {
		return routeKey{named: true, name: *r.RouteName}
	}
	return routeKey{source: deref(r.Source), destination: deref(r.Destination)}
}

func remapID(remap map[string]string, id string) string {
	if to, ok := remap[id]; ok {
		return to
	}
	return id
}

func remapOptional(remap map[string]string, id *string) *string {
	if id == nil {
		return nil
	}
	if to, ok := remap[*id]; ok {
		return &to
	}
	return id
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
