package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/application/usecase"
	"github.com/dreschagin/event-gallery/internal/interfaces/http/middleware"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

const defaultMaxPayloadBytes = 25 * 1024 * 1024

// PhotoAPIHandler обслуживает POST /api/upload и GET /api/get-photos
type PhotoAPIHandler struct {
	uploadPhotoUC   *usecase.UploadPhotoUseCase
	listPhotosUC    *usecase.ListPhotosUseCase
	maxPayloadBytes int64
	logger          *logger.Logger
}

func NewPhotoAPIHandler(
	uploadPhotoUC *usecase.UploadPhotoUseCase,
	listPhotosUC *usecase.ListPhotosUseCase,
	maxPayloadBytes int64,
	log *logger.Logger,
) *PhotoAPIHandler {
	if maxPayloadBytes <= 0 {
		maxPayloadBytes = defaultMaxPayloadBytes
	}

	return &PhotoAPIHandler{
		uploadPhotoUC:   uploadPhotoUC,
		listPhotosUC:    listPhotosUC,
		maxPayloadBytes: maxPayloadBytes,
		logger:          log,
	}
}

// Upload сохраняет одну фотографию из JSON тела {photoData, fileName}
func (h *PhotoAPIHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeMethodNotAllowed(w, http.MethodPost)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxPayloadBytes)
	defer r.Body.Close()

	var req dto.UploadPhotoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large", nil)
			return
		}
		writeError(w, http.StatusBadRequest, "invalid request body", nil)
		return
	}

	response, err := h.uploadPhotoUC.Execute(r.Context(), usecase.UploadPhotoCommand{
		PhotoData: req.PhotoData,
		FileName:  req.FileName,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrMissingPhotoData) {
			writeError(w, http.StatusBadRequest, "missing photo data", nil)
			return
		}

		h.logger.Error("Failed to upload photo", err,
			"file_name", req.FileName,
			"client_ip", middleware.ClientIP(r),
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "failed to upload photo", err)
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

// ListPhotos возвращает страницу фотографий: ?limit=&next_cursor=
func (h *PhotoAPIHandler) ListPhotos(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeMethodNotAllowed(w, http.MethodGet)
		return
	}

	query := r.URL.Query()
	response, err := h.listPhotosUC.Execute(r.Context(), usecase.ListPhotosQuery{
		Limit:  h.listPhotosUC.ParseLimit(query.Get("limit")),
		Cursor: strings.TrimSpace(query.Get("next_cursor")),
	})
	if err != nil {
		h.logger.Error("Failed to fetch photos", err,
			"request_id", middleware.RequestIDFromContext(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "failed to fetch photos", err)
		return
	}

	h.writeJSON(w, http.StatusOK, response)
}

func (h *PhotoAPIHandler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", err)
	}
}

func writeMethodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed", nil)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	body := dto.ErrorResponse{Success: false, Message: message}
	if err != nil {
		body.Error = err.Error()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
