package usecase

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/domain/entity"
	"github.com/dreschagin/event-gallery/internal/domain/service"
	"github.com/dreschagin/event-gallery/internal/domain/valueobject"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

type ListPhotosQuery struct {
	Limit  int
	Cursor string
}

type ListPhotosConfig struct {
	Folder string
}

// ListPhotosUseCase возвращает страницу фотографий папки по убыванию public id
type ListPhotosUseCase struct {
	store   port.MediaStore
	cache   port.Cache
	metrics port.MetricsPublisher
	policy  *service.PagePolicy
	config  ListPhotosConfig
	logger  *logger.Logger
}

func NewListPhotosUseCase(
	store port.MediaStore,
	cache port.Cache,
	metrics port.MetricsPublisher,
	policy *service.PagePolicy,
	config ListPhotosConfig,
	log *logger.Logger,
) *ListPhotosUseCase {
	if policy == nil {
		policy = service.NewPagePolicy(service.DefaultPageSize, service.MaxPageSize)
	}
	return &ListPhotosUseCase{
		store:   store,
		cache:   cache,
		metrics: metrics,
		policy:  policy,
		config:  config,
		logger:  log,
	}
}

// ParseLimit разбирает query-параметр limit по политике страниц
func (uc *ListPhotosUseCase) ParseLimit(raw string) int {
	return uc.policy.Parse(raw)
}

// Execute выполняет выборку страницы с кэшированием
func (uc *ListPhotosUseCase) Execute(ctx context.Context, query ListPhotosQuery) (*dto.ListPhotosResponse, error) {
	limit := uc.policy.Clamp(query.Limit)
	cursor := valueobject.NewCursor(query.Cursor)

	ctx, span := tracer().Start(ctx, "ListPhotos", trace.WithAttributes(
		attribute.String("gallery.folder", uc.config.Folder),
		attribute.Int("gallery.limit", limit),
		attribute.Bool("gallery.has_cursor", !cursor.IsEnd()),
	))
	defer span.End()

	if uc.store == nil {
		recordSpanError(span, ErrStoreNotConfigured)
		return nil, ErrStoreNotConfigured
	}

	cacheKey := listCacheKey(uc.config.Folder, limit, cursor.String())
	if uc.cache != nil {
		var cached dto.ListPhotosResponse
		err := uc.cache.Get(ctx, cacheKey, &cached)
		if err == nil {
			uc.logger.Debug("Cache hit for photo listing", "key", cacheKey, "count", len(cached.Photos))
			if cached.Photos == nil {
				cached.Photos = []dto.PhotoDescriptor{}
			}
			return &cached, nil
		}
		if !errors.Is(err, port.ErrCacheMiss) {
			uc.logger.Warn("Cache read failed, falling back to store", "key", cacheKey, "error", err.Error())
		}
	}

	page, err := uc.store.Search(ctx, port.MediaQuery{
		Folder: uc.config.Folder,
		Limit:  limit,
		Cursor: cursor.String(),
	})
	if err != nil {
		recordSpanError(span, err)
		uc.logger.Error("Failed to fetch photos", err, "folder", uc.config.Folder, "limit", limit)
		return nil, &StoreError{Op: "search", Err: err}
	}

	photos := make([]*entity.Photo, 0, len(page.Items))
	for _, item := range page.Items {
		photo, err := entity.NewPhoto(item.PublicID, item.SecureURL, item.FileName, item.CreatedAt)
		if err != nil {
			uc.logger.Warn("Skipping store item without public id", "url", item.SecureURL)
			continue
		}
		photos = append(photos, photo)
	}

	response := &dto.ListPhotosResponse{
		Success:    true,
		Photos:     dto.ToPhotoDescriptors(photos),
		NextCursor: valueobject.NewCursor(page.NextCursor).Ptr(),
		TotalCount: page.TotalCount,
	}
	span.SetAttributes(attribute.Int("gallery.returned", len(response.Photos)))

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, cacheKey, response); err != nil {
			uc.logger.Warn("Failed to cache photo listing", "key", cacheKey, "error", err.Error())
		}
	}

	if uc.metrics != nil {
		err := uc.metrics.PublishSingle(ctx, port.MetricDatum{
			Name:       MetricPhotoListServed,
			Value:      1,
			Unit:       port.UnitCount,
			Dimensions: map[string]string{"Folder": uc.config.Folder},
			Timestamp:  time.Now().UTC(),
		})
		if err != nil {
			uc.logger.Warn("Failed to publish metric", "metric", MetricPhotoListServed, "error", err.Error())
		}
	}

	return response, nil
}
