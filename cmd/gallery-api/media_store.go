package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"

	applicationPort "github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/domain/repository"
	"github.com/dreschagin/event-gallery/internal/infrastructure/mediastore/cloudinary"
	"github.com/dreschagin/event-gallery/internal/infrastructure/mediastore/indexed"
	dynamodbRepo "github.com/dreschagin/event-gallery/internal/infrastructure/persistence/dynamodb"
	"github.com/dreschagin/event-gallery/internal/infrastructure/persistence/postgres"
	"github.com/dreschagin/event-gallery/internal/infrastructure/storage/local"
	minioStorage "github.com/dreschagin/event-gallery/internal/infrastructure/storage/minio"
	s3storage "github.com/dreschagin/event-gallery/internal/infrastructure/storage/s3"
	"github.com/dreschagin/event-gallery/pkg/config"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

// mediaStack - собранное хранилище и то, что нужно роутеру и shutdown'у
type mediaStack struct {
	store   applicationPort.MediaStore
	backend string
	checks  map[string]func(context.Context) error
	media   http.Handler
	db      *sql.DB
}

func (m *mediaStack) addCheck(name string, p pinger) {
	if m.checks == nil {
		m.checks = make(map[string]func(context.Context) error)
	}
	m.checks[name] = p.Ping
}

func (m *mediaStack) Close() {
	if m.db != nil {
		_ = m.db.Close()
	}
}

func buildMediaStack(ctx context.Context, cfg *config.Config, log *logger.Logger) (*mediaStack, error) {
	stack := &mediaStack{backend: cfg.MediaStore.Backend}

	if cfg.MediaStore.Backend == config.MediaBackendCloudinary {
		store, err := cloudinary.NewMediaStore(cloudinary.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
		})
		if err != nil {
			return nil, fmt.Errorf("init cloudinary: %w", err)
		}
		stack.store = store
		stack.addCheck("cloudinary", store)
		log.Info("Media store initialized", "backend", "cloudinary", "cloud_name", cfg.Cloudinary.CloudName)
		return stack, nil
	}

	objects, err := buildObjectStorage(ctx, cfg, stack, log)
	if err != nil {
		return nil, err
	}

	index, err := buildPhotoIndex(ctx, cfg, stack, log)
	if err != nil {
		stack.Close()
		return nil, err
	}

	stack.store = indexed.NewMediaStore(objects, index, log)
	stack.backend = cfg.MediaStore.Backend + "+" + cfg.MediaStore.Index
	log.Info("Media store initialized", "backend", cfg.MediaStore.Backend, "index", cfg.MediaStore.Index)
	return stack, nil
}

func buildObjectStorage(ctx context.Context, cfg *config.Config, stack *mediaStack, log *logger.Logger) (applicationPort.ObjectStorage, error) {
	switch cfg.MediaStore.Backend {
	case config.MediaBackendS3:
		storage, err := s3storage.NewPhotoStorage(ctx, s3storage.Config{
			Bucket:          cfg.S3.Bucket,
			Region:          cfg.S3.Region,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			UsePathStyle:    cfg.S3.UsePathStyle,
			URLMode:         s3storage.URLMode(cfg.S3.URLMode),
			PresignedTTL:    cfg.S3.PresignedTTL,
		})
		if err != nil {
			return nil, fmt.Errorf("init s3 storage: %w", err)
		}
		stack.addCheck("s3", storage)
		return storage, nil

	case config.MediaBackendMinIO:
		storage, err := minioStorage.NewPhotoStorage(ctx, minioStorage.Config{
			Endpoint:   cfg.MinIO.Endpoint,
			AccessKey:  cfg.MinIO.AccessKey,
			SecretKey:  cfg.MinIO.SecretKey,
			Bucket:     cfg.MinIO.Bucket,
			PublicBase: cfg.MinIO.PublicBase,
			UseSSL:     cfg.MinIO.UseSSL,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("init minio storage: %w", err)
		}
		stack.addCheck("minio", storage)
		return storage, nil

	case config.MediaBackendLocal:
		storage, err := local.NewPhotoStorage(cfg.Local.Dir, cfg.Local.PublicBaseURL, log)
		if err != nil {
			return nil, fmt.Errorf("init local storage: %w", err)
		}
		stack.addCheck("local", storage)
		stack.media = storage.Handler()
		return storage, nil
	}

	return nil, fmt.Errorf("unsupported media backend: %s", cfg.MediaStore.Backend)
}

func buildPhotoIndex(ctx context.Context, cfg *config.Config, stack *mediaStack, log *logger.Logger) (repository.PhotoIndex, error) {
	switch cfg.MediaStore.Index {
	case config.IndexBackendDynamoDB:
		index, err := dynamodbRepo.NewPhotoIndex(ctx, dynamodbRepo.Config{
			TableName:       cfg.Dynamo.TableName,
			Region:          cfg.Dynamo.Region,
			Endpoint:        cfg.Dynamo.Endpoint,
			AccessKeyID:     cfg.Dynamo.AccessKeyID,
			SecretAccessKey: cfg.Dynamo.SecretAccessKey,
			StrongReads:     cfg.Dynamo.StrongReads,
		})
		if err != nil {
			return nil, fmt.Errorf("init dynamodb index: %w", err)
		}
		stack.addCheck("dynamodb", index)
		return index, nil

	case config.IndexBackendPostgres:
		if err := postgres.Migrate(cfg.Database.URL()); err != nil {
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		log.Info("Database migrations applied")

		db, err := postgres.Open(cfg.Database.DSN(), postgres.PoolConfig{
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		})
		if err != nil {
			return nil, err
		}
		stack.db = db
		index := postgres.NewPhotoIndex(db)
		stack.addCheck("postgres", index)
		log.Info("Database connected successfully")
		return index, nil
	}

	return nil, fmt.Errorf("unsupported photo index: %s", cfg.MediaStore.Index)
}
