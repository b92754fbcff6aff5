package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding sets the fact's coordinates from its location text. A nil
// geocoder, a null location, a failed lookup or an empty result leave the
// fact unchanged.
func EnrichWithGeocoding(ctx context.Context, fact AccidentFact, geocoder Geocoder, logger *slog.Logger) AccidentFact {
	if geocoder == nil || fact.Location == nil || *fact.Location == "" {
		return fact
	}

	result, err := geocoder.ForwardGeocode(ctx, *fact.Location)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"fact_id", fact.FactID,
			"location", *fact.Location,
			"error", err,
		)
		return fact
	}
	if result.Lat == 0 && result.Lon == 0 {
		return fact
	}

	fact.Latitude = &result.Lat
	fact.Longitude = &result.Lon
	return fact
}
