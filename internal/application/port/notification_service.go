package port

import "github.com/dreschagin/event-gallery/internal/application/dto"

// NotificationService определяет интерфейс для push-уведомлений браузерам (Port)
// Реализация будет в Infrastructure слое (WebSocket Hub)
type NotificationService interface {
	// BroadcastPhotoUploaded сообщает всем подключенным клиентам о новой фотографии
	BroadcastPhotoUploaded(event *dto.PhotoUploadedEvent)

	// ClientCount возвращает количество подключенных клиентов
	ClientCount() int
}
