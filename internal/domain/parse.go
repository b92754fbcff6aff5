package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// MissingMarker is the placeholder the source uses for an unknown value.
const MissingMarker = "?"

// DefaultDateLayout matches dates such as "September 17, 1908".
const DefaultDateLayout = "January 2, 2006"

const routeSeparator = "-"

var (
	// timeRe takes the first run of four digits, e.g. "c 1718" -> "1718".
	timeRe = regexp.MustCompile(`\d{4}`)

	// totalRe, passengersRe and crewRe are matched independently against
	// count fields like "154   (passengers:145  crew:9)".
	totalRe      = regexp.MustCompile(`(\d+)`)
	passengersRe = regexp.MustCompile(`(?i)passengers:\s*(\d+)`)
	crewRe       = regexp.MustCompile(`(?i)crew:\s*(\d+)`)
)

// Date is a parsed calendar date with its derived weekday name.
type Date struct {
	Day       int
	Month     int
	Year      int
	DayOfWeek string
}

// Clock is a parsed time of day.
type Clock struct {
	Hours   int
	Minutes int
}

// Count holds the three numbers of an aboard or fatalities field. Each is nil
// when its pattern did not match.
type Count struct {
	Total      *int64
	Passengers *int64
	Crew       *int64
}

// Route is either a named route or a source/destination pair, never both.
type Route struct {
	Name        *string
	Source      *string
	Destination *string
}

// IsMissing reports whether the trimmed text is the missing marker.
func IsMissing(text string) bool {
	return strings.TrimSpace(text) == MissingMarker
}

// MissingOrValue returns the trimmed text, or nil for the missing marker.
func MissingOrValue(text string) *string {
	if IsMissing(text) {
		return nil
	}
	v := strings.TrimSpace(text)
	return &v
}

// ParseDate parses a raw date with the given Go time layout.
func ParseDate(text, layout string) (Date, error) {
	t, err := time.Parse(layout, strings.TrimSpace(text))
	if err != nil {
		return Date{}, &ParseError{Field: ColDate, Value: text, Err: fmt.Errorf("%w: %w", ErrMalformedDate, err)}
	}
	return Date{
		Day:       t.Day(),
		Month:     int(t.Month()),
		Year:      t.Year(),
		DayOfWeek: t.Weekday().String(),
	}, nil
}

// ParseTime parses an HHMM time. It returns false for the missing marker and
// for text without four consecutive digits or with an out-of-range clock.
func ParseTime(text string) (Clock, bool) {
	s := strings.TrimSpace(text)
	if s == MissingMarker {
		return Clock{}, false
	}
	if len(s) < 4 {
		s = "0" + s
	}

	hhmm := timeRe.FindString(s)
	if hhmm == "" {
		return Clock{}, false
	}

	hours, errH := strconv.Atoi(hhmm[:2])
	minutes, errM := strconv.Atoi(hhmm[2:])
	if errH != nil || errM != nil || hours > 23 || minutes > 59 {
		return Clock{}, false
	}
	return Clock{Hours: hours, Minutes: minutes}, true
}

// ParseCount extracts total, passenger and crew numbers. It returns false for
// the missing marker, in which case all three columns stay null.
func ParseCount(text string) (Count, bool) {
	if IsMissing(text) {
		return Count{}, false
	}
	return Count{
		Total:      firstInt(totalRe, text),
		Passengers: firstInt(passengersRe, text),
		Crew:       firstInt(crewRe, text),
	}, true
}

func firstInt(re *regexp.Regexp, text string) *int64 {
	m := re.FindStringSubmatch(text)
	if len(m) != 2 {
		return nil
	}
	n, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return nil
	}
	return &n
}

// ParseRoute splits a route on "-". It returns false for the missing marker.
//
// By default the first segment is used for both source and destination;
// fixDestination takes the destination from the last segment instead.
func ParseRoute(text string, fixDestination bool) (Route, bool) {
	if IsMissing(text) {
		return Route{}, false
	}

	if !strings.Contains(text, routeSeparator) {
		name := strings.TrimSpace(text)
		return Route{Name: &name}, true
	}

	parts := strings.Split(text, routeSeparator)
	source := strings.TrimSpace(parts[0])
	destination := source
	if fixDestination {
		destination = strings.TrimSpace(parts[len(parts)-1])
	}
	return Route{Source: &source, Destination: &destination}, true
}

// ParseGround parses the ground fatalities count. The missing marker yields
// nil without error.
func ParseGround(text string) (*int64, error) {
	if IsMissing(text) {
		return nil, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return nil, &ParseError{Field: ColGround, Value: text, Err: ErrMalformedNumber}
	}
	return &n, nil
}
