package metrics

import (
	"context"
	"time"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

// InstrumentedMediaStore измеряет вызовы media store.
// Латентность дополнительно отправляется во внешний publisher (CloudWatch StoreLatency).
type InstrumentedMediaStore struct {
	next      port.MediaStore
	backend   string
	metrics   *Metrics
	publisher port.MetricsPublisher
}

func InstrumentMediaStore(next port.MediaStore, backend string, m *Metrics, publisher port.MetricsPublisher) *InstrumentedMediaStore {
	return &InstrumentedMediaStore{
		next:      next,
		backend:   backend,
		metrics:   m,
		publisher: publisher,
	}
}

func (s *InstrumentedMediaStore) Upload(ctx context.Context, upload port.MediaUpload) (port.StoredMedia, error) {
	startedAt := time.Now()
	stored, err := s.next.Upload(ctx, upload)
	s.observe(ctx, "upload", time.Since(startedAt), err)
	return stored, err
}

func (s *InstrumentedMediaStore) Search(ctx context.Context, query port.MediaQuery) (port.MediaPage, error) {
	startedAt := time.Now()
	page, err := s.next.Search(ctx, query)
	s.observe(ctx, "search", time.Since(startedAt), err)
	return page, err
}

func (s *InstrumentedMediaStore) observe(ctx context.Context, operation string, duration time.Duration, err error) {
	if s.metrics != nil {
		s.metrics.ObserveStore(s.backend, operation, duration, err)
	}
	if s.publisher != nil {
		_ = s.publisher.PublishSingle(ctx, port.MetricDatum{
			Name:  "StoreLatency",
			Value: float64(duration.Milliseconds()),
			Unit:  port.UnitMilliseconds,
			Dimensions: map[string]string{
				"Backend":   s.backend,
				"Operation": operation,
			},
			Timestamp: time.Now().UTC(),
		})
	}
}
