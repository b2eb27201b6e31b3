package galleryapi

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/dreschagin/event-gallery/internal/application/dto"
)

const defaultTimeout = 60 * time.Second

// APIError - не-2xx ответ сервера галереи
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Detail != "" {
		return fmt.Sprintf("gallery api error (%d): %s: %s", e.StatusCode, msg, e.Detail)
	}
	return fmt.Sprintf("gallery api error (%d): %s", e.StatusCode, msg)
}

// Client ходит в Upload и Listing endpoints
type Client struct {
	baseURL    string
	httpClient *resty.Client
}

// UploadRequest - одна фотография, photoData уже в виде data URI
type UploadRequest struct {
	PhotoData string
	FileName  string
}

func NewClient(baseURL string) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetHeader("User-Agent", "event-gallery-cli/1.0").
		SetTimeout(defaultTimeout)

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) BaseURL() string {
	return c.baseURL
}

func (c *Client) UploadPhoto(ctx context.Context, req UploadRequest) (*dto.UploadPhotoResponse, error) {
	var result dto.UploadPhotoResponse
	var failure dto.ErrorResponse

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(dto.UploadPhotoRequest{PhotoData: req.PhotoData, FileName: req.FileName}).
		SetResult(&result).
		SetError(&failure).
		Post("/api/upload")
	if err != nil {
		return nil, fmt.Errorf("upload request failed: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), failure)
	}
	if !result.Success {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: result.Message}
	}
	return &result, nil
}

// ListPhotos запрашивает одну страницу. limit <= 0 оставляет размер на усмотрение сервера.
func (c *Client) ListPhotos(ctx context.Context, limit int, cursor string) (*dto.ListPhotosResponse, error) {
	var result dto.ListPhotosResponse
	var failure dto.ErrorResponse

	req := c.httpClient.R().
		SetContext(ctx).
		SetResult(&result).
		SetError(&failure)
	if limit > 0 {
		req.SetQueryParam("limit", strconv.Itoa(limit))
	}
	if cursor != "" {
		req.SetQueryParam("next_cursor", cursor)
	}

	resp, err := req.Get("/api/get-photos")
	if err != nil {
		return nil, fmt.Errorf("list request failed: %w", err)
	}
	if resp.IsError() {
		return nil, newAPIError(resp.StatusCode(), failure)
	}
	if !result.Success {
		return nil, &APIError{StatusCode: resp.StatusCode(), Message: "listing reported failure"}
	}
	if result.Photos == nil {
		result.Photos = []dto.PhotoDescriptor{}
	}
	return &result, nil
}

// Download копирует байты изображения в w. Относительные URL (локальное хранилище)
// разрешаются относительно адреса сервера.
func (c *Client) Download(ctx context.Context, url string, w io.Writer) (int64, error) {
	if strings.HasPrefix(url, "/") {
		url = c.baseURL + url
	}

	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(url)
	if err != nil {
		return 0, fmt.Errorf("download request failed: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return 0, &APIError{StatusCode: resp.StatusCode(), Message: "download failed"}
	}

	written, err := io.Copy(w, body)
	if err != nil {
		return written, fmt.Errorf("read image body: %w", err)
	}
	return written, nil
}

func newAPIError(status int, body dto.ErrorResponse) *APIError {
	return &APIError{
		StatusCode: status,
		Message:    body.Message,
		Detail:     body.Error,
	}
}
