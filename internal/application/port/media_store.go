package port

import (
	"context"
	"time"
)

// ResourceTypeImage - единственный тип ресурсов галереи
const ResourceTypeImage = "image"

// MediaUpload описывает запрос на сохранение одного изображения.
type MediaUpload struct {
	Folder string
	// Payload - сырой base64 без data-URI заголовка.
	Payload string
	// PublicID - желаемый идентификатор; хранилище может назначить свой.
	PublicID     string
	ResourceType string
}

// StoredMedia описывает объект, сохраненный в хранилище.
type StoredMedia struct {
	PublicID  string
	SecureURL string
	// FileName может быть пустым.
	FileName  string
	CreatedAt time.Time
}

// MediaQuery определяет выборку объектов папки по убыванию public id.
type MediaQuery struct {
	Folder string
	Limit  int
	Cursor string
}

// MediaPage - страница выборки. Пустой NextCursor означает конец.
// TotalCount передается как есть и не гарантирует точность.
type MediaPage struct {
	Items      []StoredMedia
	NextCursor string
	TotalCount int
}

// MediaStore - внешнее хранилище медиа (Cloudinary или собственный индекс + object storage).
type MediaStore interface {
	Upload(ctx context.Context, upload MediaUpload) (StoredMedia, error)
	Search(ctx context.Context, query MediaQuery) (MediaPage, error)
}
