package metrics

import (
	"context"
	"errors"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

// Fanout рассылает данные нескольким publisher'ам (Prometheus + CloudWatch).
type Fanout []port.MetricsPublisher

// NewFanout пропускает nil publisher'ы
func NewFanout(publishers ...port.MetricsPublisher) Fanout {
	out := make(Fanout, 0, len(publishers))
	for _, p := range publishers {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}

func (f Fanout) PublishSingle(ctx context.Context, datum port.MetricDatum) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishSingle(ctx, datum); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) PublishBatch(ctx context.Context, data []port.MetricDatum) error {
	var errs []error
	for _, p := range f {
		if err := p.PublishBatch(ctx, data); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f Fanout) Flush(ctx context.Context) error {
	var errs []error
	for _, p := range f {
		if err := p.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
