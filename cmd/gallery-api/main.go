package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	// Application
	applicationPort "github.com/dreschagin/event-gallery/internal/application/port"
	"github.com/dreschagin/event-gallery/internal/application/usecase"

	// Domain
	"github.com/dreschagin/event-gallery/internal/domain/service"

	// Infrastructure
	redisCache "github.com/dreschagin/event-gallery/internal/infrastructure/cache/redis"
	natsInfra "github.com/dreschagin/event-gallery/internal/infrastructure/messaging/nats"
	wsInfra "github.com/dreschagin/event-gallery/internal/infrastructure/notification/websocket"
	"github.com/dreschagin/event-gallery/internal/infrastructure/observability/cloudwatch"
	"github.com/dreschagin/event-gallery/internal/infrastructure/observability/metrics"

	// Interfaces
	httpInterface "github.com/dreschagin/event-gallery/internal/interfaces/http"
	"github.com/dreschagin/event-gallery/internal/interfaces/http/handler"
	"github.com/dreschagin/event-gallery/internal/interfaces/http/middleware"
	"github.com/dreschagin/event-gallery/internal/interfaces/view"

	// Shared
	"github.com/dreschagin/event-gallery/pkg/config"
	"github.com/dreschagin/event-gallery/pkg/logger"
	"github.com/dreschagin/event-gallery/pkg/telemetry"
)

func main() {
	// 1. Загружаем конфигурацию
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 2. Инициализируем logger
	log := logger.New(os.Getenv("LOG_LEVEL"))
	log.Info("Starting Event Gallery API")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Observability: CloudWatch, Prometheus, OpenTelemetry

	// CloudWatch Logs Publisher
	var logsPublisher *cloudwatch.LogsPublisher
	if cfg.CloudWatch.LogsEnabled {
		publisherImpl, initErr := cloudwatch.NewLogsPublisher(ctx,
			cloudwatch.LogsPublisherConfig{
				LogGroupName:    cfg.CloudWatch.LogGroupName,
				LogStreamName:   cfg.CloudWatch.LogStreamName,
				Region:          cfg.CloudWatch.Region,
				Endpoint:        cfg.CloudWatch.Endpoint,
				AccessKeyID:     cfg.CloudWatch.AccessKeyID,
				SecretAccessKey: cfg.CloudWatch.SecretAccessKey,
				BufferSize:      cfg.CloudWatch.LogsBufferSize,
				FlushInterval:   cfg.CloudWatch.LogsFlushInterval,
				AutoCreate:      true,
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch logs publisher", initErr)
			os.Exit(1)
		}
		logsPublisher = publisherImpl
		log.SetLogPublisher(logsPublisher)
		log.Info("CloudWatch logs publisher initialized")
	} else {
		log.Warn("CloudWatch logs publishing is disabled")
	}

	// CloudWatch Metrics Publisher
	var cloudwatchMetrics applicationPort.MetricsPublisher
	if cfg.CloudWatch.MetricsEnabled {
		publisherImpl, initErr := cloudwatch.NewMetricsPublisher(ctx,
			cloudwatch.MetricsPublisherConfig{
				Namespace:         cfg.CloudWatch.MetricsNamespace,
				Region:            cfg.CloudWatch.Region,
				Endpoint:          cfg.CloudWatch.Endpoint,
				AccessKeyID:       cfg.CloudWatch.AccessKeyID,
				SecretAccessKey:   cfg.CloudWatch.SecretAccessKey,
				DefaultDimensions: cfg.CloudWatch.MetricsDimensions,
				BufferSize:        cfg.CloudWatch.MetricsBufferSize,
				FlushInterval:     cfg.CloudWatch.MetricsFlushInterval,
				StorageResolution: 60,
				OnFlushError: func(flushErr error) {
					log.Warn("CloudWatch metrics flush failed", "error", flushErr.Error())
				},
			})
		if initErr != nil {
			log.Error("Failed to initialize CloudWatch metrics publisher", initErr)
			os.Exit(1)
		}
		cloudwatchMetrics = publisherImpl
		log.Info("CloudWatch metrics publisher initialized")
	} else {
		log.Warn("CloudWatch metrics publishing is disabled")
	}

	// Prometheus
	registry := prometheus.NewRegistry()
	promMetrics := metrics.New(registry)
	metricsPublisher := metrics.NewFanout(promMetrics, cloudwatchMetrics)

	// OpenTelemetry
	tracing, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.TracingEnabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: cfg.Telemetry.ServiceVersion,
		Environment:    cfg.Telemetry.Environment,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		Insecure:       cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		log.Warn("Failed to initialize tracing, continuing without it", "error", err.Error())
	} else if tracing.Enabled() {
		log.Info("Tracing initialized", "endpoint", cfg.Telemetry.OTLPEndpoint)
	}

	// 4. Dependency Injection - Infrastructure Layer

	// Media store
	media, err := buildMediaStack(ctx, cfg, log)
	if err != nil {
		log.Error("Failed to initialize media store", err, "backend", cfg.MediaStore.Backend)
		os.Exit(1)
	}
	defer media.Close()

	var mediaStore applicationPort.MediaStore = metrics.InstrumentMediaStore(media.store, media.backend, promMetrics, cloudwatchMetrics)

	// Redis listing cache
	var cache applicationPort.Cache
	var redisImpl *redisCache.RedisCache
	if cfg.Redis.Enabled {
		cacheImpl, initErr := redisCache.NewRedisCache(redisCache.Config{
			Host:         cfg.Redis.Host,
			Port:         cfg.Redis.Port,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			TTL:          cfg.Gallery.ListCacheTTL,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		})
		if initErr != nil {
			log.Warn("Failed to connect to Redis, continuing without listing cache", "error", initErr.Error())
		} else {
			redisImpl = cacheImpl
			cache = cacheImpl
			log.Info("Redis listing cache initialized", "ttl", cfg.Gallery.ListCacheTTL.String())
		}
	} else {
		log.Warn("Redis listing cache is disabled")
	}

	// NATS Event Publisher
	var eventPublisher applicationPort.EventPublisher
	if cfg.NATS.Enabled {
		publisherImpl, initErr := natsInfra.NewNATSPublisher(natsInfra.Config{
			URL:      cfg.NATS.URL,
			Stream:   cfg.Gallery.EventStream,
			Subjects: []string{cfg.Gallery.EventSubject},
			MaxAge:   7 * 24 * time.Hour,
		}, log)
		if initErr != nil {
			log.Warn("Failed to connect to NATS, continuing without event publishing", "error", initErr.Error())
		} else {
			eventPublisher = publisherImpl
			log.Info("NATS event publisher initialized", "url", cfg.NATS.URL)
		}
	} else {
		log.Warn("NATS event publishing is disabled")
	}

	// WebSocket Hub
	hub := wsInfra.NewHub(log)

	// 5. Dependency Injection - Application Layer (Use Cases)

	pagePolicy := service.NewPagePolicy(cfg.Gallery.DefaultPageSize, cfg.Gallery.MaxPageSize)

	uploadPhotoUC := usecase.NewUploadPhotoUseCase(
		mediaStore,
		cache,          // Can be nil if Redis disabled
		eventPublisher, // Can be nil if NATS disabled
		hub,
		metricsPublisher,
		usecase.UploadPhotoConfig{
			Folder:       cfg.Gallery.Folder,
			EventSubject: cfg.Gallery.EventSubject,
		},
		log,
	)

	listPhotosUC := usecase.NewListPhotosUseCase(
		mediaStore,
		cache,
		metricsPublisher,
		pagePolicy,
		usecase.ListPhotosConfig{Folder: cfg.Gallery.Folder},
		log,
	)

	// 6. Dependency Injection - Interfaces Layer (HTTP Handlers)

	pageHandler := handler.NewGalleryPageHandler(view.PageData{
		Title:    "Event Gallery",
		Folder:   cfg.Gallery.Folder,
		PageSize: pagePolicy.Default(),
	}, log)
	photoAPIHandler := handler.NewPhotoAPIHandler(uploadPhotoUC, listPhotosUC, cfg.Gallery.MaxPayloadBytes, log)
	websocketHandler := handler.NewWebSocketHandler(hub, cfg.Security.AllowedOrigins, log)

	uploadLimiter := middleware.NewIPRateLimiter(cfg.Gallery.UploadRatePerMinute, cfg.Gallery.UploadRateBurst)
	defer uploadLimiter.Close()

	// Router
	router := httpInterface.NewRouter(
		pageHandler,
		photoAPIHandler,
		websocketHandler,
		cfg.Security,
		log,
	).
		WithMetrics(promMetrics, registry).
		WithUploadLimiter(uploadLimiter)

	if media.media != nil {
		router = router.WithMedia(media.media)
	}
	for name, check := range media.checks {
		router = router.WithReadinessCheck(name, check)
	}
	if redisImpl != nil {
		router = router.WithReadinessCheck("redis", redisImpl.Ping)
	}

	// 7. Запускаем фоновые процессы

	go hub.Run(ctx)
	log.Info("WebSocket hub started")

	// 8. Настраиваем HTTP сервер

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Канал для получения сигналов ОС
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info("HTTP server starting", "port", cfg.Server.Port, "folder", cfg.Gallery.Folder)
		log.Info("Gallery available at http://localhost:" + cfg.Server.Port)

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("HTTP server failed", err)
			os.Exit(1)
		}
	}()

	// 9. Ожидаем сигнал для graceful shutdown

	<-sigChan
	log.Info("Shutdown signal received, starting graceful shutdown...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	// Останавливаем hub после HTTP сервера, чтобы не терять broadcast'ы
	cancel()

	if eventPublisher != nil {
		if err := eventPublisher.Close(); err != nil {
			log.Warn("Failed to close NATS connection", "error", err.Error())
		}
	}
	if redisImpl != nil {
		if err := redisImpl.Close(); err != nil {
			log.Warn("Failed to close Redis client", "error", err.Error())
		}
	}

	// Flush CloudWatch buffers before exit
	if cloudwatchMetrics != nil {
		log.Info("Flushing CloudWatch metrics buffer...")
		if err := cloudwatchMetrics.Flush(shutdownCtx); err != nil {
			log.Error("Failed to flush CloudWatch metrics", err)
		}
	}

	if tracing != nil {
		if err := tracing.Shutdown(shutdownCtx); err != nil {
			log.Warn("Failed to shutdown tracing", "error", err.Error())
		}
	}

	log.Info("Server stopped gracefully")

	if logsPublisher != nil {
		if err := logsPublisher.Close(shutdownCtx); err != nil {
			fmt.Fprintf(os.Stderr, "Failed to flush CloudWatch logs: %v\n", err)
		}
	}
}
