package cloudwatch

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

type fakeLogs struct {
	mu            sync.Mutex
	batches       [][]types.InputLogEvent
	groupsCreated int
	streamExists  bool
	failures      int
}

func (f *fakeLogs) PutLogEvents(_ context.Context, params *cloudwatchlogs.PutLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.PutLogEventsOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("throttled")
	}
	f.batches = append(f.batches, params.LogEvents)
	return &cloudwatchlogs.PutLogEventsOutput{}, nil
}

func (f *fakeLogs) CreateLogGroup(context.Context, *cloudwatchlogs.CreateLogGroupInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogGroupOutput, error) {
	f.groupsCreated++
	return &cloudwatchlogs.CreateLogGroupOutput{}, nil
}

func (f *fakeLogs) CreateLogStream(context.Context, *cloudwatchlogs.CreateLogStreamInput, ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.CreateLogStreamOutput, error) {
	if f.streamExists {
		return nil, &types.ResourceAlreadyExistsException{Message: aws.String("exists")}
	}
	return &cloudwatchlogs.CreateLogStreamOutput{}, nil
}

func (f *fakeLogs) messages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, batch := range f.batches {
		for _, event := range batch {
			var line logLine
			_ = json.Unmarshal([]byte(*event.Message), &line)
			out = append(out, line.Message)
		}
	}
	return out
}

func newTestLogsPublisher(t *testing.T, client *fakeLogs, cfg LogsPublisherConfig) *LogsPublisher {
	t.Helper()
	cfg.LogGroupName = "/event-gallery/test"
	cfg.LogStreamName = "test-stream"
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Hour
	}
	p, err := newLogsPublisher(context.Background(), client, cfg)
	if err != nil {
		t.Fatalf("newLogsPublisher() error = %v", err)
	}
	return p
}

func TestEncodeLogEvent(t *testing.T) {
	timestamp := time.Date(2026, 2, 8, 12, 0, 0, 0, time.UTC)
	event := encodeLogEvent(port.LogEntry{
		Timestamp: timestamp,
		Level:     port.LogLevelInfo,
		Message:   "Photo uploaded",
		Fields: map[string]interface{}{
			"public_id": "gallery_uploads/photo1",
			"size":      42,
		},
	})

	if event.Timestamp == nil || *event.Timestamp != timestamp.UnixMilli() {
		t.Errorf("unexpected timestamp %v", event.Timestamp)
	}

	var line map[string]interface{}
	if err := json.Unmarshal([]byte(*event.Message), &line); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if line["level"] != "INFO" || line["message"] != "Photo uploaded" || line["time"] != "2026-02-08T12:00:00Z" {
		t.Errorf("unexpected log line: %v", line)
	}

	fields, ok := line["fields"].(map[string]interface{})
	if !ok {
		t.Fatal("expected fields map")
	}
	if fields["public_id"] != "gallery_uploads/photo1" {
		t.Errorf("unexpected public_id: %v", fields["public_id"])
	}
	if size, ok := fields["size"].(float64); !ok || size != 42 {
		t.Errorf("unexpected size: %v", fields["size"])
	}
}

func TestEncodeLogEventKeepsLineWhenFieldsFailToEncode(t *testing.T) {
	event := encodeLogEvent(port.LogEntry{
		Timestamp: time.Now(),
		Level:     port.LogLevelWarn,
		Message:   "Upload rejected",
		Fields:    map[string]interface{}{"bad": make(chan int)},
	})

	var line logLine
	if err := json.Unmarshal([]byte(*event.Message), &line); err != nil {
		t.Fatalf("message is not JSON: %v", err)
	}
	if line.Message != "Upload rejected" || line.Fields["fields_error"] == nil {
		t.Fatalf("unexpected fallback line %+v", line)
	}
}

func TestEncodeLogEventTruncates(t *testing.T) {
	event := encodeLogEvent(port.LogEntry{
		Timestamp: time.Now(),
		Level:     port.LogLevelError,
		Message:   strings.Repeat("x", maxLogEventSize+1000),
	})

	msg := *event.Message
	if len(msg) > maxLogEventSize {
		t.Errorf("expected truncation to %d bytes, got %d", maxLogEventSize, len(msg))
	}
	if !strings.HasSuffix(msg, "...") {
		t.Error("expected truncation marker")
	}
}

func TestLogsPublisherFlushSortsChronologically(t *testing.T) {
	client := &fakeLogs{}
	p := newTestLogsPublisher(t, client, LogsPublisherConfig{BufferSize: 10})
	defer p.Close(context.Background())

	now := time.Now()
	entries := []port.LogEntry{
		{Timestamp: now.Add(5 * time.Second), Level: port.LogLevelInfo, Message: "Third"},
		{Timestamp: now, Level: port.LogLevelInfo, Message: "First"},
		{Timestamp: now.Add(2 * time.Second), Level: port.LogLevelInfo, Message: "Second"},
	}
	if err := p.PublishBatch(context.Background(), entries); err != nil {
		t.Fatalf("PublishBatch() error = %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	got := client.messages()
	if len(client.batches) != 1 {
		t.Fatalf("expected a single batch, got %d", len(client.batches))
	}
	for i, want := range []string{"First", "Second", "Third"} {
		if got[i] != want {
			t.Fatalf("event %d: expected %s, got %v", i, want, got)
		}
	}
}

func TestLogsPublisherSplitsBatchesBySize(t *testing.T) {
	client := &fakeLogs{}
	p := newTestLogsPublisher(t, client, LogsPublisherConfig{BufferSize: 2})

	now := time.Now()
	for i := 0; i < 5; i++ {
		_ = p.Publish(context.Background(), port.LogEntry{Timestamp: now.Add(time.Duration(i) * time.Millisecond), Level: port.LogLevelInfo, Message: "line"})
	}
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if n := len(client.messages()); n != 5 {
		t.Fatalf("expected 5 events shipped, got %d", n)
	}
	for _, batch := range client.batches {
		if len(batch) > 2 {
			t.Fatalf("batch exceeds size: %d", len(batch))
		}
	}
}

func TestLogsPublisherDropsWhenQueueFullAndReportsIt(t *testing.T) {
	// Без worker'а очередь не разбирается
	p := &LogsPublisher{queue: make(chan port.LogEntry, 1), done: make(chan struct{})}

	if err := p.Publish(context.Background(), port.LogEntry{Message: "kept"}); err != nil {
		t.Fatalf("first Publish() error = %v", err)
	}
	if err := p.Publish(context.Background(), port.LogEntry{Message: "lost"}); !errors.Is(err, ErrLogQueueFull) {
		t.Fatalf("expected ErrLogQueueFull, got %v", err)
	}
	if p.dropped.Load() != 1 {
		t.Fatalf("expected one dropped entry, got %d", p.dropped.Load())
	}

	client := &fakeLogs{}
	p.client = client
	if err := p.ship(context.Background(), []port.LogEntry{<-p.queue}); err != nil {
		t.Fatalf("ship() error = %v", err)
	}

	got := client.messages()
	if len(got) != 2 || got[0] != "kept" || got[1] != "Log entries dropped, queue was full" {
		t.Fatalf("unexpected shipped lines %v", got)
	}
	if p.dropped.Load() != 0 {
		t.Fatal("dropped counter must reset after reporting")
	}
}

func TestLogsPublisherRejectsAfterClose(t *testing.T) {
	client := &fakeLogs{}
	p := newTestLogsPublisher(t, client, LogsPublisherConfig{})

	_ = p.Publish(context.Background(), port.LogEntry{Timestamp: time.Now(), Level: port.LogLevelInfo, Message: "last words"})
	if err := p.Close(context.Background()); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	if got := client.messages(); len(got) != 1 || got[0] != "last words" {
		t.Fatalf("expected queue drained on close, got %v", got)
	}
	if err := p.Publish(context.Background(), port.LogEntry{Message: "late"}); !errors.Is(err, ErrLogPublisherClosed) {
		t.Fatalf("expected ErrLogPublisherClosed, got %v", err)
	}
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() after Close error = %v", err)
	}
}

func TestLogsPublisherDoesNotRetainFailedBatch(t *testing.T) {
	client := &fakeLogs{failures: maxRetries}
	p := newTestLogsPublisher(t, client, LogsPublisherConfig{})
	defer p.Close(context.Background())

	_ = p.Publish(context.Background(), port.LogEntry{Timestamp: time.Now(), Message: "lost"})
	if err := p.Flush(context.Background()); err == nil {
		t.Fatal("expected Flush() error when CloudWatch rejects the batch")
	}

	_ = p.Publish(context.Background(), port.LogEntry{Timestamp: time.Now(), Message: "next"})
	if err := p.Flush(context.Background()); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if got := client.messages(); len(got) != 1 || got[0] != "next" {
		t.Fatalf("expected only the new line, got %v", got)
	}
}

func TestLogsPublisherAutoCreateToleratesExisting(t *testing.T) {
	client := &fakeLogs{streamExists: true}
	p := newTestLogsPublisher(t, client, LogsPublisherConfig{AutoCreate: true})
	defer p.Close(context.Background())

	if client.groupsCreated != 1 {
		t.Fatalf("expected log group creation, got %d", client.groupsCreated)
	}
}

func TestLogsConfigValidation(t *testing.T) {
	tests := []struct {
		name      string
		config    LogsPublisherConfig
		expectErr bool
	}{
		{name: "valid", config: LogsPublisherConfig{LogGroupName: "/g", LogStreamName: "s", Region: "us-east-1"}},
		{name: "missing log group", config: LogsPublisherConfig{LogStreamName: "s", Region: "us-east-1"}, expectErr: true},
		{name: "missing log stream", config: LogsPublisherConfig{LogGroupName: "/g", Region: "us-east-1"}, expectErr: true},
		{name: "missing region", config: LogsPublisherConfig{LogGroupName: "/g", LogStreamName: "s"}, expectErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := tt.config
			err := cfg.validate()
			if (err != nil) != tt.expectErr {
				t.Fatalf("validate() error = %v, expectErr %v", err, tt.expectErr)
			}
			if err == nil && (cfg.BufferSize != 50 || cfg.QueueSize != 1000 || cfg.FlushInterval != 5*time.Second) {
				t.Fatalf("defaults not applied: %+v", cfg)
			}
		})
	}
}
