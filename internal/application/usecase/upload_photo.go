package usecase

import (
	"context"
	"encoding/base64"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/domain/entity"
	"github.com/dreschagin/event-gallery/internal/domain/valueobject"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const (
	MetricPhotoUploaded     = "PhotoUploaded"
	MetricPhotoUploadFailed = "PhotoUploadFailed"
	MetricPhotoUploadBytes  = "PhotoUploadBytes"
	MetricPhotoListServed   = "PhotoListServed"
)

type UploadPhotoCommand struct {
	PhotoData string
	FileName  string
}

type UploadPhotoConfig struct {
	Folder       string
	EventSubject string
}

// UploadPhotoUseCase сохраняет одну фотографию в фиксированную папку хранилища
type UploadPhotoUseCase struct {
	store    port.MediaStore
	cache    port.Cache
	events   port.EventPublisher
	notifier port.NotificationService
	metrics  port.MetricsPublisher
	config   UploadPhotoConfig
	logger   *logger.Logger
}

// NewUploadPhotoUseCase создает use case. Все порты кроме store опциональны (nil).
func NewUploadPhotoUseCase(
	store port.MediaStore,
	cache port.Cache,
	events port.EventPublisher,
	notifier port.NotificationService,
	metrics port.MetricsPublisher,
	config UploadPhotoConfig,
	log *logger.Logger,
) *UploadPhotoUseCase {
	return &UploadPhotoUseCase{
		store:    store,
		cache:    cache,
		events:   events,
		notifier: notifier,
		metrics:  metrics,
		config:   config,
		logger:   log,
	}
}

// Execute выполняет загрузку. Отказ хранилища не повторяется.
func (uc *UploadPhotoUseCase) Execute(ctx context.Context, cmd UploadPhotoCommand) (*dto.UploadPhotoResponse, error) {
	ctx, span := tracer().Start(ctx, "UploadPhoto", trace.WithAttributes(
		attribute.String("gallery.folder", uc.config.Folder),
		attribute.String("gallery.file_name", cmd.FileName),
	))
	defer span.End()

	// 1. Валидация до любого обращения к хранилищу
	payload, err := valueobject.NewPhotoPayload(cmd.PhotoData)
	if err != nil {
		return nil, ErrMissingPhotoData
	}

	if uc.store == nil {
		recordSpanError(span, ErrStoreNotConfigured)
		return nil, ErrStoreNotConfigured
	}

	// 2. Загружаем в хранилище
	stored, err := uc.store.Upload(ctx, port.MediaUpload{
		Folder:       uc.config.Folder,
		Payload:      payload.Base64(),
		PublicID:     valueobject.SuggestPublicID(cmd.FileName),
		ResourceType: port.ResourceTypeImage,
	})
	if err != nil {
		recordSpanError(span, err)
		uc.logger.Error("Failed to upload photo", err,
			"folder", uc.config.Folder,
			"file_name", cmd.FileName,
		)
		uc.publishMetric(ctx, MetricPhotoUploadFailed, 1, port.UnitCount)
		return nil, &StoreError{Op: "upload", Err: err}
	}

	photo, err := entity.NewPhoto(stored.PublicID, stored.SecureURL, stored.FileName, stored.CreatedAt)
	if err != nil {
		recordSpanError(span, err)
		uc.publishMetric(ctx, MetricPhotoUploadFailed, 1, port.UnitCount)
		return nil, &StoreError{Op: "upload", Err: err}
	}

	span.SetAttributes(attribute.String("gallery.public_id", photo.PublicID()))
	uc.logger.Info("Photo uploaded",
		"public_id", photo.PublicID(),
		"file_name", cmd.FileName,
	)

	// 3. Побочные эффекты best-effort, ответ от них не зависит
	uc.afterUpload(ctx, photo, payload)

	return &dto.UploadPhotoResponse{
		Success:  true,
		Message:  "photo uploaded successfully",
		ImageURL: photo.URL(),
		PublicID: photo.PublicID(),
		FileName: cmd.FileName,
	}, nil
}

func (uc *UploadPhotoUseCase) afterUpload(ctx context.Context, photo *entity.Photo, payload valueobject.PhotoPayload) {
	if uc.cache != nil {
		if err := uc.cache.DeletePattern(ctx, listCachePattern(uc.config.Folder)); err != nil {
			uc.logger.Warn("Failed to invalidate listing cache", "error", err.Error())
		}
	}

	event := &dto.PhotoUploadedEvent{
		Folder:     uc.config.Folder,
		Photo:      dto.ToPhotoDescriptor(photo),
		UploadedAt: time.Now().UTC().Format(time.RFC3339),
	}

	if uc.events != nil && uc.config.EventSubject != "" {
		if err := uc.events.PublishEvent(ctx, uc.config.EventSubject, event); err != nil {
			uc.logger.Warn("Failed to publish upload event",
				"subject", uc.config.EventSubject,
				"error", err.Error(),
			)
		}
	}

	if uc.notifier != nil {
		uc.notifier.BroadcastPhotoUploaded(event)
		uc.logger.Debug("Upload broadcasted to clients", "client_count", uc.notifier.ClientCount())
	}

	uc.publishMetric(ctx, MetricPhotoUploaded, 1, port.UnitCount)
	uc.publishMetric(ctx, MetricPhotoUploadBytes, float64(base64.StdEncoding.DecodedLen(payload.Len())), port.UnitBytes)
}

func (uc *UploadPhotoUseCase) publishMetric(ctx context.Context, name string, value float64, unit string) {
	if uc.metrics == nil {
		return
	}
	err := uc.metrics.PublishSingle(ctx, port.MetricDatum{
		Name:       name,
		Value:      value,
		Unit:       unit,
		Dimensions: map[string]string{"Folder": uc.config.Folder},
		Timestamp:  time.Now().UTC(),
	})
	if err != nil {
		uc.logger.Warn("Failed to publish metric", "metric", name, "error", err.Error())
	}
}
