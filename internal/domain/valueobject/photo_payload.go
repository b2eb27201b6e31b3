package valueobject

import (
	"errors"
	"strings"
)

const base64Marker = ";base64,"

var ErrEmptyPayload = errors.New("missing photo data")

// PhotoPayload хранит base64 содержимое фотографии без data-URI заголовка (Value Object)
type PhotoPayload struct {
	data string
}

// NewPhotoPayload отрезает data-URI заголовок (все до последнего ";base64,")
// и проверяет, что полезная нагрузка не пуста.
func NewPhotoPayload(raw string) (PhotoPayload, error) {
	data := strings.TrimSpace(raw)
	if idx := strings.LastIndex(data, base64Marker); idx >= 0 {
		data = data[idx+len(base64Marker):]
	}
	data = strings.TrimSpace(data)
	if data == "" {
		return PhotoPayload{}, ErrEmptyPayload
	}
	return PhotoPayload{data: data}, nil
}

// Base64 возвращает сырой base64 текст
func (p PhotoPayload) Base64() string {
	return p.data
}

// Len возвращает длину base64 текста
func (p PhotoPayload) Len() int {
	return len(p.data)
}
