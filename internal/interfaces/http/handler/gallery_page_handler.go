package handler

import (
	"net/http"

	"github.com/dreschagin/event-gallery/internal/interfaces/view"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

// GalleryPageHandler отдает HTML оболочку галереи
type GalleryPageHandler struct {
	page   view.PageData
	logger *logger.Logger
}

// NewGalleryPageHandler создает новый handler
func NewGalleryPageHandler(page view.PageData, logger *logger.Logger) *GalleryPageHandler {
	return &GalleryPageHandler{
		page:   page,
		logger: logger,
	}
}

// ShowGallery отображает главную страницу
func (h *GalleryPageHandler) ShowGallery(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		http.Error(w, "Method Not Allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	// Рендерим Templ компонент
	if err := view.GalleryPage(h.page).Render(r.Context(), w); err != nil {
		h.logger.Error("Failed to render gallery page", err)
		http.Error(w, "Failed to render page", http.StatusInternalServerError)
		return
	}
}
