package gallery

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const (
	placeholderMessage = "No photos yet. Upload some!"
	captionDateLayout  = "02 Jan 2006 15:04"
)

// PhotoSource - часть API клиента, нужная рендереру
type PhotoSource interface {
	ListPhotos(ctx context.Context, limit int, cursor string) (*dto.ListPhotosResponse, error)
	Download(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Renderer выводит первую страницу галереи. Каждый Refresh начинает с первой страницы.
type Renderer struct {
	source   PhotoSource
	out      io.Writer
	pageSize int
	location *time.Location
	logger   *logger.Logger

	mu       sync.RWMutex
	rendered []dto.PhotoDescriptor
}

func NewRenderer(source PhotoSource, out io.Writer, pageSize int, log *logger.Logger) *Renderer {
	return &Renderer{
		source:   source,
		out:      out,
		pageSize: pageSize,
		location: time.Local,
		logger:   log,
	}
}

// Refresh очищает прошлый вывод и рендерит первую страницу.
// Ошибка листинга выводится строкой вместо сетки и возвращается без повтора.
func (r *Renderer) Refresh(ctx context.Context) error {
	r.mu.Lock()
	r.rendered = nil
	r.mu.Unlock()

	page, err := r.source.ListPhotos(ctx, r.pageSize, "")
	if err != nil {
		r.logger.Warn("Failed to load gallery", "error", err.Error())
		fmt.Fprintf(r.out, "Error loading photos: %v\n", err)
		return err
	}

	r.mu.Lock()
	r.rendered = append([]dto.PhotoDescriptor(nil), page.Photos...)
	r.mu.Unlock()

	if len(page.Photos) == 0 {
		fmt.Fprintln(r.out, placeholderMessage)
		return nil
	}

	for i, photo := range page.Photos {
		fmt.Fprintf(r.out, "%3d. %s\n     %s\n", i+1, r.Caption(photo), photo.ImageURL)
	}
	if page.NextCursor != nil {
		fmt.Fprintf(r.out, "showing %d of %d\n", len(page.Photos), page.TotalCount)
	}
	return nil
}

// Caption - имя файла и локализованная дата загрузки
func (r *Renderer) Caption(photo dto.PhotoDescriptor) string {
	name := photo.FileName
	if name == "" {
		name = photo.PublicID
	}
	created, err := time.Parse(time.RFC3339, photo.CreatedAt)
	if err != nil {
		return name
	}
	return fmt.Sprintf("%s (%s)", name, created.In(r.location).Format(captionDateLayout))
}

// Rendered возвращает фотографии последнего успешного Refresh
func (r *Renderer) Rendered() []dto.PhotoDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]dto.PhotoDescriptor(nil), r.rendered...)
}

// Find ищет фото последнего рендера по public id
func (r *Renderer) Find(publicID string) (dto.PhotoDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, photo := range r.rendered {
		if photo.PublicID == publicID {
			return photo, true
		}
	}
	return dto.PhotoDescriptor{}, false
}

// Download скачивает байты во временный файл в dir и переименовывает его в имя фото.
// Временный файл удаляется в любом случае.
func (r *Renderer) Download(ctx context.Context, photo dto.PhotoDescriptor, dir string) (string, error) {
	if photo.ImageURL == "" {
		return "", errors.New("photo has no image url")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create download dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".gallery-download-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	_, err = r.source.Download(ctx, photo.ImageURL, tmp)
	closeErr := tmp.Close()
	if err != nil {
		return "", err
	}
	if closeErr != nil {
		return "", fmt.Errorf("close temp file: %w", closeErr)
	}

	target := filepath.Join(dir, downloadName(photo))
	if err := os.Rename(tmpPath, target); err != nil {
		return "", fmt.Errorf("save download: %w", err)
	}

	r.logger.Debug("Photo downloaded", "public_id", photo.PublicID, "path", target)
	return target, nil
}

// downloadName - базовое имя файла; без расширения берем расширение из URL
func downloadName(photo dto.PhotoDescriptor) string {
	name := photo.FileName
	if name == "" {
		name = photo.PublicID
	}
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		name = "photo"
	}

	if path.Ext(name) == "" {
		if parsed, err := url.Parse(photo.ImageURL); err == nil {
			name += path.Ext(parsed.Path)
		}
	}
	return name
}
