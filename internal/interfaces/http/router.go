package http

import (
	"context"
	"encoding/json"
	"io/fs"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dreschagin/event-gallery/internal/infrastructure/observability/metrics"
	"github.com/dreschagin/event-gallery/internal/interfaces/http/handler"
	"github.com/dreschagin/event-gallery/internal/interfaces/http/middleware"
	"github.com/dreschagin/event-gallery/pkg/config"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// ReadinessCheck проверяет зависимость для /readyz
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// Router настраивает маршруты приложения
type Router struct {
	mux              *http.ServeMux
	pageHandler      *handler.GalleryPageHandler
	photoAPIHandler  *handler.PhotoAPIHandler
	websocketHandler *handler.WebSocketHandler
	uploadLimiter    *middleware.IPRateLimiter
	metrics          *metrics.Metrics
	gatherer         prometheus.Gatherer
	mediaHandler     http.Handler
	readiness        []ReadinessCheck
	security         config.SecurityConfig
	logger           *logger.Logger
}

// NewRouter создает новый router
func NewRouter(
	pageHandler *handler.GalleryPageHandler,
	photoAPIHandler *handler.PhotoAPIHandler,
	websocketHandler *handler.WebSocketHandler,
	security config.SecurityConfig,
	logger *logger.Logger,
) *Router {
	return &Router{
		mux:              http.NewServeMux(),
		pageHandler:      pageHandler,
		photoAPIHandler:  photoAPIHandler,
		websocketHandler: websocketHandler,
		security:         security,
		logger:           logger,
	}
}

// WithMetrics включает /metrics и HTTP метрики
func (rt *Router) WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) *Router {
	rt.metrics = m
	rt.gatherer = gatherer
	return rt
}

// WithUploadLimiter ограничивает частоту загрузок по IP
func (rt *Router) WithUploadLimiter(limiter *middleware.IPRateLimiter) *Router {
	rt.uploadLimiter = limiter
	return rt
}

// WithMedia монтирует раздачу локально сохраненных файлов под /media/
func (rt *Router) WithMedia(h http.Handler) *Router {
	rt.mediaHandler = h
	return rt
}

func (rt *Router) WithReadinessCheck(name string, check func(ctx context.Context) error) *Router {
	rt.readiness = append(rt.readiness, ReadinessCheck{Name: name, Check: check})
	return rt
}

// Setup настраивает все маршруты
func (rt *Router) Setup() http.Handler {
	// Static assets are embedded into the binary.
	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic("failed to initialize embedded static assets: " + err.Error())
	}
	rt.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServerFS(staticFS)))

	rt.mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	rt.mux.HandleFunc("/readyz", rt.ready)

	if rt.gatherer != nil {
		rt.mux.Handle("/metrics", promhttp.HandlerFor(rt.gatherer, promhttp.HandlerOpts{}))
	}

	if rt.mediaHandler != nil {
		rt.mux.Handle("/media/", rt.mediaHandler)
	}

	// Gallery page
	rt.mux.HandleFunc("/", rt.pageHandler.ShowGallery)

	// WebSocket
	rt.mux.HandleFunc("/ws", rt.websocketHandler.HandleConnection)

	// API endpoints
	var upload http.Handler = http.HandlerFunc(rt.photoAPIHandler.Upload)
	if rt.uploadLimiter != nil {
		var onDrop func()
		if rt.metrics != nil {
			onDrop = rt.metrics.RateLimitDropped.Inc
		}
		upload = middleware.RateLimit(rt.uploadLimiter, onDrop)(upload)
	}
	rt.mux.Handle("/api/upload", upload)
	rt.mux.HandleFunc("/api/get-photos", rt.photoAPIHandler.ListPhotos)

	// Применяем middleware (последний - внешний)
	var handler http.Handler = rt.mux
	handler = middleware.Compression(handler)
	handler = cors.Handler(cors.Options{
		AllowedOrigins: rt.security.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders: []string{middleware.RequestIDHeader},
		MaxAge:         300,
	})(handler)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(handler)
	}
	handler = middleware.Logger(rt.logger)(handler)
	handler = middleware.Recovery(rt.logger)(handler)
	handler = middleware.RequestID(handler)

	return handler
}

func (rt *Router) ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	failures := make(map[string]string)
	for _, check := range rt.readiness {
		if err := check.Check(ctx); err != nil {
			failures[check.Name] = err.Error()
		}
	}

	if len(failures) > 0 {
		rt.logger.Warn("Readiness check failed", "failures", failures)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"status":   "not ready",
			"failures": failures,
		})
		return
	}

	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
