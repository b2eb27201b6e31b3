package metrics

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

func TestNormalizeRoute(t *testing.T) {
	tests := map[string]string{
		"/":                "/",
		"/api/upload":      "/api/upload",
		"/api/get-photos":  "/api/get-photos",
		"/static/js/a.js":  "/static/*",
		"/media/x/y.jpg":   "/media/*",
		"/ws":              "/ws",
		"/wp-login.php":    "other",
		"/api/get-photos/": "other",
	}
	for path, want := range tests {
		if got := normalizeRoute(path); got != want {
			t.Errorf("normalizeRoute(%q) = %q, want %q", path, got, want)
		}
	}
}

func TestMiddlewareCountsRequests(t *testing.T) {
	m := New(prometheus.NewRegistry())
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/upload", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/upload", "GET", "405")); got != 1 {
		t.Fatalf("expected 1 request counted, got %v", got)
	}
}

func TestPublishSingleMapsDatums(t *testing.T) {
	m := New(prometheus.NewRegistry())
	ctx := context.Background()

	_ = m.PublishBatch(ctx, []port.MetricDatum{
		{Name: "PhotoUploaded", Value: 1},
		{Name: "PhotoUploaded", Value: 1},
		{Name: "PhotoUploadFailed", Value: 1},
		{Name: "PhotoUploadBytes", Value: 3},
		{Name: "PhotoListServed", Value: 1},
		{Name: "Unknown", Value: 100},
	})

	if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("success")); got != 2 {
		t.Fatalf("success uploads = %v", got)
	}
	if got := testutil.ToFloat64(m.UploadsTotal.WithLabelValues("failure")); got != 1 {
		t.Fatalf("failed uploads = %v", got)
	}
	if got := testutil.ToFloat64(m.UploadBytesTotal); got != 3 {
		t.Fatalf("upload bytes = %v", got)
	}
	if got := testutil.ToFloat64(m.ListingsServed); got != 1 {
		t.Fatalf("listings = %v", got)
	}
}

type stubStore struct {
	err error
}

func (s stubStore) Upload(context.Context, port.MediaUpload) (port.StoredMedia, error) {
	return port.StoredMedia{PublicID: "x"}, s.err
}

func (s stubStore) Search(context.Context, port.MediaQuery) (port.MediaPage, error) {
	return port.MediaPage{}, s.err
}

type recordingPublisher struct {
	data []port.MetricDatum
	err  error
}

func (r *recordingPublisher) PublishSingle(_ context.Context, d port.MetricDatum) error {
	r.data = append(r.data, d)
	return r.err
}

func (r *recordingPublisher) PublishBatch(ctx context.Context, data []port.MetricDatum) error {
	for _, d := range data {
		_ = r.PublishSingle(ctx, d)
	}
	return r.err
}

func (r *recordingPublisher) Flush(context.Context) error { return r.err }

func TestInstrumentedMediaStore(t *testing.T) {
	m := New(prometheus.NewRegistry())
	publisher := &recordingPublisher{}

	ok := InstrumentMediaStore(stubStore{}, "cloudinary", m, publisher)
	failing := InstrumentMediaStore(stubStore{err: errors.New("boom")}, "cloudinary", m, nil)

	_, _ = ok.Upload(context.Background(), port.MediaUpload{})
	_, _ = ok.Search(context.Background(), port.MediaQuery{})
	if _, err := failing.Search(context.Background(), port.MediaQuery{}); err == nil {
		t.Fatal("errors must pass through")
	}

	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("cloudinary", "search", "failure")); got != 1 {
		t.Fatalf("failed searches = %v", got)
	}
	if got := testutil.ToFloat64(m.StoreOperations.WithLabelValues("cloudinary", "upload", "success")); got != 1 {
		t.Fatalf("uploads = %v", got)
	}
	if len(publisher.data) != 2 || publisher.data[0].Name != "StoreLatency" {
		t.Fatalf("expected StoreLatency data, got %+v", publisher.data)
	}
}

func TestFanoutSkipsNilAndJoinsErrors(t *testing.T) {
	a := &recordingPublisher{}
	b := &recordingPublisher{err: errors.New("cloudwatch down")}
	fanout := NewFanout(a, nil, b)

	if len(fanout) != 2 {
		t.Fatalf("expected nil publisher skipped, got %d", len(fanout))
	}
	err := fanout.PublishSingle(context.Background(), port.MetricDatum{Name: "PhotoUploaded"})
	if err == nil || len(a.data) != 1 || len(b.data) != 1 {
		t.Fatalf("expected both called and error joined, err=%v", err)
	}
}
