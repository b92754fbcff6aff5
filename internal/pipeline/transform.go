package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/aviation-accident-etl/internal/domain"
)

// AccidentTransformer implements Transformer using the domain row transformer
// with optional geocoding enrichment.
type AccidentTransformer struct {
	rows     *domain.Transformer
	geocoder domain.Geocoder
	logger   *slog.Logger
}

// NewTransformer creates an AccidentTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(rows *domain.Transformer, geocoder domain.Geocoder, logger *slog.Logger) *AccidentTransformer {
	return &AccidentTransformer{
		rows:     rows,
		geocoder: geocoder,
		logger:   logger,
	}
}

func (t *AccidentTransformer) Transform(ctx context.Context, rec domain.RawRecord) (domain.RowSet, error) {
	rs, err := t.rows.Transform(rec)
	if err != nil {
		return domain.RowSet{}, err
	}
	rs.Fact = domain.EnrichWithGeocoding(ctx, rs.Fact, t.geocoder, t.logger)
	return rs, nil
}
