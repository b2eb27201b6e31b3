package entity

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyPublicID = errors.New("photo public id is empty")

// Photo представляет фотографию, хранящуюся в media store (Aggregate Root)
type Photo struct {
	publicID  string
	url       string
	fileName  string
	createdAt time.Time
}

// NewPhoto создает фотографию из данных, выданных хранилищем
func NewPhoto(publicID, url, fileName string, createdAt time.Time) (*Photo, error) {
	publicID = strings.TrimSpace(publicID)
	if publicID == "" {
		return nil, ErrEmptyPublicID
	}

	return &Photo{
		publicID:  publicID,
		url:       url,
		fileName:  strings.TrimSpace(fileName),
		createdAt: createdAt.UTC(),
	}, nil
}

// PublicID возвращает идентификатор, назначенный хранилищем
func (p *Photo) PublicID() string {
	return p.publicID
}

// URL возвращает адрес для скачивания
func (p *Photo) URL() string {
	return p.url
}

// FileName возвращает сохраненное имя файла (может быть пустым)
func (p *Photo) FileName() string {
	return p.fileName
}

// CreatedAt возвращает время загрузки
func (p *Photo) CreatedAt() time.Time {
	return p.createdAt
}

// DisplayName возвращает имя для подписи: сохраненное имя файла, иначе public id
func (p *Photo) DisplayName() string {
	if p.fileName != "" {
		return p.fileName
	}
	return p.publicID
}
