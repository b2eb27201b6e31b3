package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

type recordingPublisher struct {
	mu      sync.Mutex
	entries []port.LogEntry
}

func (p *recordingPublisher) Publish(_ context.Context, entry port.LogEntry) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.entries = append(p.entries, entry)
	return nil
}

func (p *recordingPublisher) PublishBatch(ctx context.Context, entries []port.LogEntry) error {
	for _, entry := range entries {
		_ = p.Publish(ctx, entry)
	}
	return nil
}

func (p *recordingPublisher) Flush(_ context.Context) error { return nil }

func TestLoggerWritesKeyValueFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf, false)

	log.Info("photo uploaded", "public_id", "gallery/photo1", "size", 3)

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("expected json line, got %q: %v", buf.String(), err)
	}
	if line["message"] != "photo uploaded" {
		t.Fatalf("unexpected message: %v", line["message"])
	}
	if line["level"] != "info" {
		t.Fatalf("unexpected level: %v", line["level"])
	}
	if line["public_id"] != "gallery/photo1" {
		t.Fatalf("unexpected public_id: %v", line["public_id"])
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("warn", &buf, false)

	log.Debug("debug")
	log.Info("info")
	if buf.Len() != 0 {
		t.Fatalf("expected debug/info to be filtered, got %q", buf.String())
	}

	log.Warn("warn")
	if buf.Len() == 0 {
		t.Fatal("expected warn to be written")
	}
}

func TestLoggerErrorAddsErrorField(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("error", &buf, false)

	log.Error("store failed", errors.New("quota exceeded"), "backend", "cloudinary")

	var line map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if line["error"] != "quota exceeded" {
		t.Fatalf("expected error field, got %v", line["error"])
	}
}

func TestLoggerForwardsToPublisher(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithOutput("info", &buf, false)
	publisher := &recordingPublisher{}
	log.SetLogPublisher(publisher)

	child := log.With("component", "upload")
	child.Warn("rate limited", "ip", "10.0.0.1")
	child.Debug("dropped")

	if len(publisher.entries) != 1 {
		t.Fatalf("expected 1 published entry, got %d", len(publisher.entries))
	}
	entry := publisher.entries[0]
	if entry.Level != port.LogLevelWarn {
		t.Fatalf("unexpected level: %s", entry.Level)
	}
	if entry.Fields["component"] != "upload" || entry.Fields["ip"] != "10.0.0.1" {
		t.Fatalf("unexpected fields: %v", entry.Fields)
	}
}

func TestParseLevelDefaultsToInfo(t *testing.T) {
	if parseLevel("") != INFO {
		t.Fatal("expected INFO for empty level")
	}
	if parseLevel("DEBUG") != DEBUG {
		t.Fatal("expected case-insensitive parsing")
	}
}
