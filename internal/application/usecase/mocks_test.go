package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/application/port"
)

type mockMediaStore struct {
	mu          sync.Mutex
	uploads     []port.MediaUpload
	searches    []port.MediaQuery
	uploadErr   error
	searchErr   error
	emptyID     bool
	items       []port.StoredMedia
	pageCursors map[string]string
	totalCount  int
}

func (m *mockMediaStore) Upload(_ context.Context, upload port.MediaUpload) (port.StoredMedia, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.uploads = append(m.uploads, upload)
	if m.uploadErr != nil {
		return port.StoredMedia{}, m.uploadErr
	}
	id := upload.Folder + "/" + upload.PublicID
	if m.emptyID {
		id = ""
	}
	return port.StoredMedia{
		PublicID:  id,
		SecureURL: "https://cdn.example.com/" + id + ".jpg",
		CreatedAt: time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}, nil
}

func (m *mockMediaStore) Search(_ context.Context, query port.MediaQuery) (port.MediaPage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches = append(m.searches, query)
	if m.searchErr != nil {
		return port.MediaPage{}, m.searchErr
	}
	return port.MediaPage{
		Items:      m.items,
		NextCursor: m.pageCursors[query.Cursor],
		TotalCount: m.totalCount,
	}, nil
}

type mockCache struct {
	mu       sync.Mutex
	data     map[string][]byte
	getErr   error
	setErr   error
	patterns []string
}

func newMockCache() *mockCache {
	return &mockCache{data: make(map[string][]byte)}
}

func (c *mockCache) Get(_ context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return c.getErr
	}
	raw, ok := c.data[key]
	if !ok {
		return port.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *mockCache) Set(_ context.Context, key string, value interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = raw
	return nil
}

func (c *mockCache) Delete(_ context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *mockCache) DeletePattern(_ context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.patterns = append(c.patterns, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.data {
		if strings.HasPrefix(key, prefix) {
			delete(c.data, key)
		}
	}
	return nil
}

func (c *mockCache) Close() error { return nil }

type publishedEvent struct {
	subject string
	event   interface{}
}

type mockEventPublisher struct {
	events []publishedEvent
	err    error
}

func (p *mockEventPublisher) PublishEvent(_ context.Context, subject string, event interface{}) error {
	p.events = append(p.events, publishedEvent{subject: subject, event: event})
	return p.err
}

func (p *mockEventPublisher) Close() error { return nil }

type mockNotifier struct {
	events []*dto.PhotoUploadedEvent
}

func (n *mockNotifier) BroadcastPhotoUploaded(event *dto.PhotoUploadedEvent) {
	n.events = append(n.events, event)
}

func (n *mockNotifier) ClientCount() int { return len(n.events) }

type mockMetricsPublisher struct {
	mu   sync.Mutex
	data []port.MetricDatum
}

func (m *mockMetricsPublisher) PublishBatch(_ context.Context, data []port.MetricDatum) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append(m.data, data...)
	return nil
}

func (m *mockMetricsPublisher) PublishSingle(ctx context.Context, datum port.MetricDatum) error {
	return m.PublishBatch(ctx, []port.MetricDatum{datum})
}

func (m *mockMetricsPublisher) Flush(context.Context) error { return nil }

func (m *mockMetricsPublisher) names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.data))
	for _, d := range m.data {
		names = append(names, d.Name)
	}
	sort.Strings(names)
	return names
}

var errStoreDown = errors.New("cloudinary: quota exceeded")
