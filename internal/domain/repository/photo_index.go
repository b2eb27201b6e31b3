package repository

import (
	"context"
	"errors"
	"time"
)

// ErrPhotoExists возвращается при попытке записать уже существующий public id
var ErrPhotoExists = errors.New("photo already exists")

// ErrInvalidCursor возвращается для курсора, выданного другой выборкой или поврежденного
var ErrInvalidCursor = errors.New("invalid cursor")

// PhotoRecord - запись индекса о сохраненном объекте
type PhotoRecord struct {
	PublicID    string
	Folder      string
	ObjectKey   string
	URL         string
	FileName    string
	ContentType string
	SizeBytes   int64
	CreatedAt   time.Time
}

// PhotoPageQuery определяет параметры выборки страницы
type PhotoPageQuery struct {
	Folder string
	Limit  int
	Cursor string
}

// PhotoRecordPage содержит записи в порядке убывания public id и курсор следующей страницы
type PhotoRecordPage struct {
	Items      []PhotoRecord
	NextCursor string
}

// PhotoIndex определяет интерфейс упорядоченного индекса фотографий (Port)
// Реализация будет в Infrastructure слое (DynamoDB, PostgreSQL)
type PhotoIndex interface {
	// Put сохраняет запись, ErrPhotoExists если public id уже занят
	Put(ctx context.Context, record PhotoRecord) error

	// Exists проверяет, занят ли public id
	Exists(ctx context.Context, folder, publicID string) (bool, error)

	// Page возвращает страницу записей папки по убыванию public id
	Page(ctx context.Context, query PhotoPageQuery) (PhotoRecordPage, error)

	// Count возвращает количество записей в папке
	Count(ctx context.Context, folder string) (int, error)
}
