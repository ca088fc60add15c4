package pipeline

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/solar-sizing-service/internal/domain"
	"github.com/couchcryptid/solar-sizing-service/internal/observability"
)

// SizingTransformer implements Transformer: parse, validate, normalize,
// resolve the site, size and serialize.
type SizingTransformer struct {
	sizer    domain.Sizer
	geocoder domain.Geocoder
	metrics  *observability.Metrics
	logger   *slog.Logger
}

// NewTransformer creates a SizingTransformer. Pass a nil geocoder to disable
// site geocoding.
func NewTransformer(sizer domain.Sizer, geocoder domain.Geocoder, metrics *observability.Metrics, logger *slog.Logger) *SizingTransformer {
	return &SizingTransformer{
		sizer:    sizer,
		geocoder: geocoder,
		metrics:  metrics,
		logger:   logger,
	}
}

func (t *SizingTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.OutputEvent, error) {
	req, err := domain.ParseRawEvent(raw)
	if err != nil {
		return domain.OutputEvent{}, err
	}
	if err := domain.ValidateRequest(req); err != nil {
		return domain.OutputEvent{}, fmt.Errorf("request %s: %w", string(raw.Key), err)
	}

	req = domain.NormalizeRequest(req)
	req = domain.ResolveSite(ctx, req, t.geocoder, t.logger)

	report := domain.BuildReport(req, t.sizer)
	t.metrics.RecordSizing("kafka", report.Result.Locale, len(report.Result.Warnings))

	return domain.SerializeReport(report)
}
