package orchestrator

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gabriel-vasile/mimetype"

	"github.com/dreschagin/event-gallery/internal/application/dto"
	"github.com/dreschagin/event-gallery/internal/client/galleryapi"
	"github.com/dreschagin/event-gallery/pkg/logger"
)

// ErrNoFilesSelected - отправка без файлов, сеть не трогаем
var ErrNoFilesSelected = errors.New("please select at least one photo")

// Level - визуальный уровень итогового сообщения
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Uploader отправляет одну фотографию
type Uploader interface {
	UploadPhoto(ctx context.Context, req galleryapi.UploadRequest) (*dto.UploadPhotoResponse, error)
}

// Refresher перерисовывает галерею после пакета загрузок
type Refresher interface {
	Refresh(ctx context.Context) error
}

// FileResult - исход загрузки одного файла
type FileResult struct {
	Path     string
	PublicID string
	Err      error
}

// Summary - итог пакета загрузок
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
	Level     Level
	Message   string
	Results   []FileResult
}

// UploadOrchestrator загружает набор файлов параллельно и ждет завершения всех
type UploadOrchestrator struct {
	uploader  Uploader
	refresher Refresher
	reset     func()
	readFile  func(string) ([]byte, error)
	logger    *logger.Logger
}

// New создает оркестратор. refresher и reset могут быть nil.
func New(uploader Uploader, refresher Refresher, reset func(), log *logger.Logger) *UploadOrchestrator {
	return &UploadOrchestrator{
		uploader:  uploader,
		refresher: refresher,
		reset:     reset,
		readFile:  os.ReadFile,
		logger:    log,
	}
}

// Run загружает все paths. Ошибка одного файла не отменяет остальные.
// После завершения всех загрузок один раз вызывается Refresh и reset, независимо от итога.
func (o *UploadOrchestrator) Run(ctx context.Context, paths []string) (Summary, error) {
	if len(paths) == 0 {
		return Summary{Level: LevelError, Message: "Please select at least one photo."}, ErrNoFilesSelected
	}

	results := make([]FileResult, len(paths))
	var wg sync.WaitGroup
	for i, p := range paths {
		wg.Add(1)
		go func(i int, p string) {
			defer wg.Done()
			results[i] = o.uploadOne(ctx, p)
		}(i, p)
	}
	wg.Wait()

	summary := summarize(results)

	if o.refresher != nil {
		if err := o.refresher.Refresh(ctx); err != nil {
			o.logger.Warn("Gallery refresh after upload failed", "error", err.Error())
		}
	}
	if o.reset != nil {
		o.reset()
	}

	return summary, nil
}

func (o *UploadOrchestrator) uploadOne(ctx context.Context, path string) FileResult {
	result := FileResult{Path: path}

	// upload начинается только после чтения файла
	dataURI, err := o.encode(path)
	if err != nil {
		result.Err = err
		o.logger.Error("Failed to read photo", err, "path", path)
		return result
	}

	res, err := o.uploader.UploadPhoto(ctx, galleryapi.UploadRequest{
		PhotoData: dataURI,
		FileName:  filepath.Base(path),
	})
	if err != nil {
		result.Err = err
		o.logger.Error("Upload failed", err, "path", path)
		return result
	}

	result.PublicID = res.PublicID
	return result
}

func (o *UploadOrchestrator) encode(path string) (string, error) {
	data, err := o.readFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	contentType := mimetype.Detect(data).String()
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func summarize(results []FileResult) Summary {
	summary := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Err != nil {
			summary.Failed++
		} else {
			summary.Succeeded++
		}
	}

	switch {
	case summary.Failed == 0:
		summary.Level = LevelInfo
		summary.Message = fmt.Sprintf("Uploaded %d of %d photo(s).", summary.Succeeded, summary.Total)
	case summary.Succeeded == 0:
		summary.Level = LevelError
		summary.Message = fmt.Sprintf("All %d upload(s) failed.", summary.Total)
	default:
		summary.Level = LevelWarning
		summary.Message = fmt.Sprintf("Uploaded %d photo(s), %d failed.", summary.Succeeded, summary.Failed)
	}
	return summary
}
