package postgres

import (
	"errors"
	"testing"

	"github.com/dreschagin/event-gallery/internal/domain/repository"
)

func TestCursorRoundTrip(t *testing.T) {
	cursor := encodeCursor("gallery_uploads/photo 1")
	got, err := decodeCursor(cursor)
	if err != nil {
		t.Fatalf("decodeCursor() error = %v", err)
	}
	if got != "gallery_uploads/photo 1" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	for _, cursor := range []string{"%%%", " "} {
		if _, err := decodeCursor(cursor); !errors.Is(err, repository.ErrInvalidCursor) {
			t.Fatalf("cursor %q: expected ErrInvalidCursor, got %v", cursor, err)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := migrationsFS.ReadDir("migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected up and down migration, got %d files", len(entries))
	}
}
