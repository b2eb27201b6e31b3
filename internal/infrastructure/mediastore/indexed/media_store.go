package indexed

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/domain/repository"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const (
	defaultContentType = "application/octet-stream"
	defaultExtension   = ".jpg"

	maxIDAttempts = 3
)

// MediaStore хранит байты в ObjectStorage, а порядок и метаданные в PhotoIndex.
// Реализует port.MediaStore для backend'ов s3, minio и local
type MediaStore struct {
	objects port.ObjectStorage
	index   repository.PhotoIndex
	ids     *idGenerator
	now     func() time.Time
	logger  *logger.Logger
}

func NewMediaStore(objects port.ObjectStorage, index repository.PhotoIndex, log *logger.Logger) *MediaStore {
	return &MediaStore{
		objects: objects,
		index:   index,
		ids:     newIDGenerator(),
		now:     func() time.Time { return time.Now().UTC() },
		logger:  log,
	}
}

func (s *MediaStore) Upload(ctx context.Context, upload port.MediaUpload) (port.StoredMedia, error) {
	folder := strings.Trim(strings.TrimSpace(upload.Folder), "/")
	if folder == "" {
		return port.StoredMedia{}, fmt.Errorf("folder is required")
	}

	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(upload.Payload))
	if err != nil {
		return port.StoredMedia{}, fmt.Errorf("invalid base64 payload: %w", err)
	}

	contentType, ext := detectType(data)
	createdAt := s.now()

	publicID, err := s.choosePublicID(ctx, folder, strings.TrimSpace(upload.PublicID), createdAt)
	if err != nil {
		return port.StoredMedia{}, err
	}

	// Ключ объекта уникален независимо от public id: проигравшая гонку за id
	// загрузка не может перезаписать байты чужой записи
	objectKey := publicID + "-" + s.ids.New(createdAt) + ext
	url, err := s.objects.PutObject(ctx, objectKey, contentType, data)
	if err != nil {
		return port.StoredMedia{}, fmt.Errorf("failed to store object: %w", err)
	}

	for attempt := 1; ; attempt++ {
		record := repository.PhotoRecord{
			PublicID:    publicID,
			Folder:      folder,
			ObjectKey:   objectKey,
			URL:         url,
			FileName:    path.Base(publicID) + ext,
			ContentType: contentType,
			SizeBytes:   int64(len(data)),
			CreatedAt:   createdAt,
		}

		err = s.index.Put(ctx, record)
		if err == nil {
			return port.StoredMedia{
				PublicID:  record.PublicID,
				SecureURL: record.URL,
				FileName:  record.FileName,
				CreatedAt: record.CreatedAt,
			}, nil
		}
		if !errors.Is(err, repository.ErrPhotoExists) || attempt >= maxIDAttempts {
			s.logger.Warn("Photo object left without index record", "key", objectKey)
			return port.StoredMedia{}, fmt.Errorf("failed to index photo: %w", err)
		}

		// Параллельная загрузка заняла id между Exists и Put
		s.logger.Warn("Public id taken concurrently, assigning a new one", "public_id", publicID)
		publicID = publicID + "_" + s.ids.New(createdAt)
	}
}

// choosePublicID возвращает <folder>/<suggested>, а при конфликте или без подсказки
// назначает идентификатор сам
func (s *MediaStore) choosePublicID(ctx context.Context, folder, suggested string, now time.Time) (string, error) {
	if suggested == "" {
		return folder + "/" + s.ids.New(now), nil
	}

	publicID := folder + "/" + suggested
	exists, err := s.index.Exists(ctx, folder, publicID)
	if err != nil {
		return "", fmt.Errorf("failed to check public id: %w", err)
	}
	if exists {
		return publicID + "_" + s.ids.New(now), nil
	}
	return publicID, nil
}

func (s *MediaStore) Search(ctx context.Context, query port.MediaQuery) (port.MediaPage, error) {
	folder := strings.Trim(strings.TrimSpace(query.Folder), "/")

	page, err := s.index.Page(ctx, repository.PhotoPageQuery{
		Folder: folder,
		Limit:  query.Limit,
		Cursor: query.Cursor,
	})
	if err != nil {
		return port.MediaPage{}, err
	}

	total, err := s.index.Count(ctx, folder)
	if err != nil {
		return port.MediaPage{}, err
	}

	items := make([]port.StoredMedia, 0, len(page.Items))
	for _, record := range page.Items {
		items = append(items, port.StoredMedia{
			PublicID:  record.PublicID,
			SecureURL: s.resolveURL(ctx, record),
			FileName:  record.FileName,
			CreatedAt: record.CreatedAt,
		})
	}

	return port.MediaPage{
		Items:      items,
		NextCursor: page.NextCursor,
		TotalCount: total,
	}, nil
}

// resolveURL обновляет presigned ссылку; при ошибке отдаем сохраненный URL
func (s *MediaStore) resolveURL(ctx context.Context, record repository.PhotoRecord) string {
	url, err := s.objects.GetObjectURL(ctx, record.ObjectKey)
	if err != nil || url == "" {
		if err != nil {
			s.logger.Warn("Failed to refresh object url", "key", record.ObjectKey, "error", err.Error())
		}
		return record.URL
	}
	return url
}

func detectType(data []byte) (string, string) {
	detected := mimetype.Detect(data)
	contentType := detected.String()
	ext := detected.Extension()
	if contentType == "" {
		contentType = defaultContentType
	}
	if ext == "" || mimetype.EqualsAny(contentType, defaultContentType) {
		ext = defaultExtension
	}
	return contentType, ext
}
