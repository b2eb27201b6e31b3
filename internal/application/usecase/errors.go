package usecase

import "errors"

var (
	// ErrMissingPhotoData - пустой photoData, хранилище не вызывается
	ErrMissingPhotoData = errors.New("missing photo data")

	// ErrStoreNotConfigured - media store не подключен
	ErrStoreNotConfigured = errors.New("media store is not configured")
)

// StoreError оборачивает отказ внешнего хранилища.
// Error() возвращает текст хранилища без изменений, он уходит клиенту в поле "error".
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return e.Op + " failed"
	}
	return e.Err.Error()
}

func (e *StoreError) Unwrap() error {
	return e.Err
}
