package cloudinary

import (
	"context"
	"fmt"
	"strings"

	cld "github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/admin"
	"github.com/cloudinary/cloudinary-go/v2/api/admin/search"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"

	"github.com/dreschagin/event-gallery/internal/application/port"
)

type Config struct {
	CloudName string
	APIKey    string
	APISecret string
}

type uploadAPI interface {
	Upload(ctx context.Context, file interface{}, uploadParams uploader.UploadParams) (*uploader.UploadResult, error)
}

type adminAPI interface {
	Search(ctx context.Context, searchQuery search.Query) (*admin.SearchResult, error)
	Ping(ctx context.Context) (*admin.PingResult, error)
}

// MediaStore проксирует загрузку и поиск в Cloudinary. Реализует port.MediaStore
type MediaStore struct {
	uploader uploadAPI
	admin    adminAPI
}

func NewMediaStore(cfg Config) (*MediaStore, error) {
	if strings.TrimSpace(cfg.CloudName) == "" || strings.TrimSpace(cfg.APIKey) == "" || strings.TrimSpace(cfg.APISecret) == "" {
		return nil, fmt.Errorf("cloudinary cloud name, api key and api secret are required")
	}

	client, err := cld.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloudinary client: %w", err)
	}

	return newMediaStore(&client.Upload, &client.Admin), nil
}

func newMediaStore(up uploadAPI, adm adminAPI) *MediaStore {
	return &MediaStore{uploader: up, admin: adm}
}

// Upload отправляет изображение как data URI
func (s *MediaStore) Upload(ctx context.Context, upload port.MediaUpload) (port.StoredMedia, error) {
	resourceType := upload.ResourceType
	if resourceType == "" {
		resourceType = port.ResourceTypeImage
	}

	result, err := s.uploader.Upload(ctx, "data:image/jpeg;base64,"+upload.Payload, uploader.UploadParams{
		PublicID:     upload.PublicID,
		Folder:       upload.Folder,
		ResourceType: resourceType,
	})
	if err != nil {
		return port.StoredMedia{}, err
	}
	if result == nil {
		return port.StoredMedia{}, fmt.Errorf("cloudinary returned empty upload result")
	}
	if result.Error.Message != "" {
		return port.StoredMedia{}, fmt.Errorf("%s", result.Error.Message)
	}

	return port.StoredMedia{
		PublicID:  result.PublicID,
		SecureURL: result.SecureURL,
		CreatedAt: result.CreatedAt,
	}, nil
}

// Search ищет объекты папки, сортируя по public id по убыванию
func (s *MediaStore) Search(ctx context.Context, query port.MediaQuery) (port.MediaPage, error) {
	result, err := s.admin.Search(ctx, search.Query{
		Expression: "folder:" + query.Folder,
		SortBy:     []search.SortByField{{"public_id": search.Descending}},
		MaxResults: query.Limit,
		NextCursor: query.Cursor,
	})
	if err != nil {
		return port.MediaPage{}, err
	}
	if result == nil {
		return port.MediaPage{}, fmt.Errorf("cloudinary returned empty search result")
	}
	if result.Error.Message != "" {
		return port.MediaPage{}, fmt.Errorf("%s", result.Error.Message)
	}

	items := make([]port.StoredMedia, 0, len(result.Assets))
	for _, asset := range result.Assets {
		items = append(items, port.StoredMedia{
			PublicID:  asset.PublicID,
			SecureURL: asset.SecureURL,
			FileName:  asset.Filename,
			CreatedAt: asset.CreatedAt,
		})
	}

	return port.MediaPage{
		Items:      items,
		NextCursor: result.NextCursor,
		TotalCount: result.TotalCount,
	}, nil
}

// Ping проверяет доступность Admin API для readiness probe
func (s *MediaStore) Ping(ctx context.Context) error {
	result, err := s.admin.Ping(ctx)
	if err != nil {
		return err
	}
	if result != nil && result.Error.Message != "" {
		return fmt.Errorf("%s", result.Error.Message)
	}
	return nil
}
