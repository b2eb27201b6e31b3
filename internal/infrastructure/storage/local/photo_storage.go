package local

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/dreschagin/event-gallery/pkg/logger"
)

var ErrInvalidKey = errors.New("invalid object key")

// PhotoStorage хранит фотографии на локальном диске; сервер отдает их по /media/.
// Реализует port.ObjectStorage
type PhotoStorage struct {
	basePath string
	baseURL  string
	logger   *logger.Logger
}

func NewPhotoStorage(basePath, baseURL string, log *logger.Logger) (*PhotoStorage, error) {
	basePath = strings.TrimSpace(basePath)
	if basePath == "" {
		return nil, fmt.Errorf("local media directory is required")
	}

	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create local storage directory: %w", err)
	}

	log.Info("Local photo storage initialized", "path", basePath, "base_url", baseURL)

	return &PhotoStorage{
		basePath: basePath,
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		logger:   log,
	}, nil
}

func (s *PhotoStorage) resolve(key string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean("/" + strings.TrimSpace(key)))
	if clean == "/" || strings.Contains(key, "..") {
		return "", ErrInvalidKey
	}
	return filepath.Join(s.basePath, filepath.FromSlash(strings.TrimPrefix(clean, "/"))), nil
}

// PutObject атомарно записывает файл через временный файл и rename
func (s *PhotoStorage) PutObject(ctx context.Context, key, contentType string, body []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fullPath, err := s.resolve(key)
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(fullPath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(fullPath), ".upload-*")
	if err != nil {
		return "", fmt.Errorf("failed to create file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close file: %w", err)
	}
	if err := os.Rename(tmp.Name(), fullPath); err != nil {
		return "", fmt.Errorf("failed to move file into place: %w", err)
	}

	s.logger.Debug("Photo written to local storage", "key", key, "bytes", len(body), "content_type", contentType)

	return s.GetObjectURL(ctx, key)
}

func (s *PhotoStorage) GetObjectURL(_ context.Context, key string) (string, error) {
	if _, err := s.resolve(key); err != nil {
		return "", err
	}
	urlKey := strings.TrimPrefix(filepath.ToSlash(strings.TrimSpace(key)), "/")
	if s.baseURL == "" {
		return "/media/" + urlKey, nil
	}
	return s.baseURL + "/" + urlKey, nil
}

// Handler отдает сохраненные файлы; монтируется под /media/
func (s *PhotoStorage) Handler() http.Handler {
	return http.StripPrefix("/media/", http.FileServer(http.Dir(s.basePath)))
}

// Ping проверяет, что каталог доступен
func (s *PhotoStorage) Ping(context.Context) error {
	info, err := os.Stat(s.basePath)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", s.basePath)
	}
	return nil
}
