package local

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/dreschagin/event-gallery/pkg/logger"
)

func newTestStorage(t *testing.T) (*PhotoStorage, string) {
	t.Helper()
	dir := t.TempDir()
	storage, err := NewPhotoStorage(dir, "http://localhost:8080/media", logger.New("error"))
	if err != nil {
		t.Fatalf("NewPhotoStorage() error = %v", err)
	}
	return storage, dir
}

func TestPutObjectWritesFileAndReturnsURL(t *testing.T) {
	storage, dir := newTestStorage(t)

	url, err := storage.PutObject(context.Background(), "gallery_uploads/photo1.jpg", "image/jpeg", []byte{0xff, 0xd8})
	if err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}
	if url != "http://localhost:8080/media/gallery_uploads/photo1.jpg" {
		t.Fatalf("unexpected url %s", url)
	}

	data, err := os.ReadFile(filepath.Join(dir, "gallery_uploads", "photo1.jpg"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(data) != 2 {
		t.Fatalf("unexpected content %v", data)
	}

	entries, _ := os.ReadDir(filepath.Join(dir, "gallery_uploads"))
	if len(entries) != 1 {
		t.Fatalf("temp file must not be left behind, got %d entries", len(entries))
	}
}

func TestPutObjectRejectsTraversal(t *testing.T) {
	storage, _ := newTestStorage(t)

	for _, key := range []string{"../escape.jpg", "a/../../b.jpg", "", "/"} {
		if _, err := storage.PutObject(context.Background(), key, "image/jpeg", []byte("x")); !errors.Is(err, ErrInvalidKey) {
			t.Fatalf("key %q: expected ErrInvalidKey, got %v", key, err)
		}
	}
}

func TestHandlerServesStoredFiles(t *testing.T) {
	storage, _ := newTestStorage(t)
	if _, err := storage.PutObject(context.Background(), "gallery_uploads/a.png", "image/png", []byte("png-bytes")); err != nil {
		t.Fatalf("PutObject() error = %v", err)
	}

	rec := httptest.NewRecorder()
	storage.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/gallery_uploads/a.png", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	if string(body) != "png-bytes" {
		t.Fatalf("unexpected body %q", body)
	}
}

func TestGetObjectURLWithoutBaseURL(t *testing.T) {
	storage := &PhotoStorage{basePath: t.TempDir()}
	url, err := storage.GetObjectURL(context.Background(), "gallery_uploads/x.jpg")
	if err != nil || url != "/media/gallery_uploads/x.jpg" {
		t.Fatalf("unexpected url %q err %v", url, err)
	}
}
