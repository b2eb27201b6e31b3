package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/domain/service"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

func storedItems() []port.StoredMedia {
	created := time.Date(2024, 6, 1, 10, 0, 0, 0, time.FixedZone("MSK", 3*3600))
	return []port.StoredMedia{
		{PublicID: "gallery_uploads/c", SecureURL: "https://cdn/c.jpg", FileName: "c.jpg", CreatedAt: created},
		{PublicID: "gallery_uploads/b", SecureURL: "https://cdn/b.jpg", CreatedAt: created},
		{PublicID: "", SecureURL: "https://cdn/broken.jpg", CreatedAt: created},
	}
}

func newListUseCase(store *mockMediaStore, cache port.Cache) (*ListPhotosUseCase, *mockMetricsPublisher) {
	metrics := &mockMetricsPublisher{}
	return NewListPhotosUseCase(store, cache, metrics, service.NewPagePolicy(30, 100), ListPhotosConfig{
		Folder: "gallery_uploads",
	}, logger.New("error")), metrics
}

func TestListPhotosUseCase_MapsDescriptors(t *testing.T) {
	store := &mockMediaStore{
		items:       storedItems(),
		pageCursors: map[string]string{"": "cursor-2"},
		totalCount:  7,
	}
	uc, metrics := newListUseCase(store, nil)

	res, err := uc.Execute(context.Background(), ListPhotosQuery{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	if len(res.Photos) != 2 {
		t.Fatalf("expected 2 photos (empty id skipped), got %d", len(res.Photos))
	}
	if res.Photos[0].FileName != "c.jpg" {
		t.Fatalf("expected stored file name, got %s", res.Photos[0].FileName)
	}
	if res.Photos[1].FileName != "gallery_uploads/b" {
		t.Fatalf("expected public id fallback, got %s", res.Photos[1].FileName)
	}
	if res.Photos[0].CreatedAt != "2024-06-01T07:00:00Z" {
		t.Fatalf("expected RFC 3339 UTC, got %s", res.Photos[0].CreatedAt)
	}
	if res.NextCursor == nil || *res.NextCursor != "cursor-2" {
		t.Fatalf("unexpected next cursor: %v", res.NextCursor)
	}
	if res.TotalCount != 7 {
		t.Fatalf("total count must be passed through, got %d", res.TotalCount)
	}
	if store.searches[0].Limit != 30 || store.searches[0].Folder != "gallery_uploads" {
		t.Fatalf("unexpected query: %+v", store.searches[0])
	}
	if got := metrics.names(); len(got) != 1 || got[0] != MetricPhotoListServed {
		t.Fatalf("unexpected metrics: %v", got)
	}
}

func TestListPhotosUseCase_ClampsLimitAndPassesCursor(t *testing.T) {
	store := &mockMediaStore{}
	uc, _ := newListUseCase(store, nil)

	res, err := uc.Execute(context.Background(), ListPhotosQuery{Limit: 1000, Cursor: "  opaque==  "})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if store.searches[0].Limit != 100 {
		t.Fatalf("expected limit clamped to 100, got %d", store.searches[0].Limit)
	}
	if store.searches[0].Cursor != "opaque==" {
		t.Fatalf("cursor must pass through trimmed, got %q", store.searches[0].Cursor)
	}
	if res.Photos == nil || len(res.Photos) != 0 {
		t.Fatalf("expected empty non-nil photos, got %#v", res.Photos)
	}
	if res.NextCursor != nil {
		t.Fatalf("expected null cursor at end, got %v", *res.NextCursor)
	}
}

func TestListPhotosUseCase_StoreFailure(t *testing.T) {
	store := &mockMediaStore{searchErr: errStoreDown}
	uc, _ := newListUseCase(store, nil)

	_, err := uc.Execute(context.Background(), ListPhotosQuery{})
	var storeErr *StoreError
	if !errors.As(err, &storeErr) || storeErr.Op != "search" {
		t.Fatalf("expected search StoreError, got %v", err)
	}
}

func TestListPhotosUseCase_UsesCache(t *testing.T) {
	store := &mockMediaStore{items: storedItems()[:1]}
	cache := newMockCache()
	uc, _ := newListUseCase(store, cache)

	first, err := uc.Execute(context.Background(), ListPhotosQuery{Limit: 5})
	if err != nil {
		t.Fatalf("first Execute() error = %v", err)
	}
	second, err := uc.Execute(context.Background(), ListPhotosQuery{Limit: 5})
	if err != nil {
		t.Fatalf("second Execute() error = %v", err)
	}

	if len(store.searches) != 1 {
		t.Fatalf("expected second call served from cache, got %d searches", len(store.searches))
	}
	if len(second.Photos) != 1 || second.Photos[0] != first.Photos[0] {
		t.Fatalf("cached page differs: %+v vs %+v", second.Photos, first.Photos)
	}
	if _, ok := cache.data["gallery:photos:gallery_uploads:5:first"]; !ok {
		t.Fatalf("unexpected cache keys: %v", cache.data)
	}
}

func TestListPhotosUseCase_CacheFailureFallsThrough(t *testing.T) {
	store := &mockMediaStore{items: storedItems()[:1]}
	cache := newMockCache()
	cache.getErr = errors.New("redis: connection refused")
	cache.setErr = errors.New("redis: connection refused")
	uc, _ := newListUseCase(store, cache)

	res, err := uc.Execute(context.Background(), ListPhotosQuery{})
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	if len(res.Photos) != 1 || len(store.searches) != 1 {
		t.Fatal("expected store fallback")
	}
}

func TestListPhotosUseCase_ParseLimit(t *testing.T) {
	uc, _ := newListUseCase(&mockMediaStore{}, nil)
	if uc.ParseLimit("nope") != 30 || uc.ParseLimit("101") != 100 || uc.ParseLimit("7") != 7 {
		t.Fatal("unexpected limit parsing")
	}
}
