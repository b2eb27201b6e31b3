package port

import "context"

// ObjectStorage определяет интерфейс хранения байтов фотографий.
type ObjectStorage interface {
	// PutObject загружает объект и возвращает URL для чтения.
	PutObject(ctx context.Context, key, contentType string, body []byte) (string, error)

	// GetObjectURL возвращает актуальный URL объекта (например, свежую presigned ссылку).
	GetObjectURL(ctx context.Context, key string) (string, error)
}
