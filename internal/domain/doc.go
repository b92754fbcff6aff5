// Package domain models aviation accident records and their star-schema
// normalization.
//
// # Data Source
//
// Raw records are scraped from per-year accident listings. The scraper writes
// one JSON file per year; each accident is a fixed-length row of 13 loosely
// formatted text fields. The files are positional, so column names are bound
// from configuration at load time by [BindRecord].
//
// # Raw Field Conventions
//
// Missing values:
//
//	"?" is the source sentinel for an unknown or unreported value. It is not
//	an error: every parser resolves it to an absent value (nil).
//
// Date format:
//
//	"September 17, 1908" by default (Go layout "January 2, 2006").
//	A date that does not match the layout is a [ParseError] wrapping
//	[ErrMalformedDate].
//
// Time format:
//
//	HHMM in 24-hour notation, e.g. "1718". Values shorter than four characters
//	get a single leading zero: "830" → "0830". The first run of four digits
//	is used; anything else ("c 16:00") yields no time dimension row.
//
// Counts (aboard, fatalities):
//
//	"154   (passengers:145  crew:9)". The total is the first number in the
//	text; passengers and crew are matched independently, so any of the three
//	may be absent.
//
// Routes:
//
//	"Moscow - St. Petersburg" is a source/destination pair; anything without a
//	"-" is a named route ("Sightseeing", "Training"). By default both source
//	and destination are taken from the first segment, matching previously
//	published tables; the corrected split is opt-in, see [ParseRoute].
//
// # Surrogate Keys
//
// Every fact and dimension row gets a surrogate id minted by an
// [IDGenerator] when the row is created. Ids are unique across the whole run,
// not per file. Dimension rows are not deduplicated unless the
// [Accumulator] is built with deduplication enabled.
package domain
