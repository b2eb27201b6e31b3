package dto

// PhotoDescriptor - описание фотографии на проводе
type PhotoDescriptor struct {
	ImageURL  string `json:"imageUrl"`
	PublicID  string `json:"publicId"`
	FileName  string `json:"fileName"`
	CreatedAt string `json:"createdAt"`
}

// UploadPhotoRequest - тело POST /api/upload
type UploadPhotoRequest struct {
	PhotoData string `json:"photoData"`
	FileName  string `json:"fileName,omitempty"`
}

// UploadPhotoResponse - ответ на успешную загрузку
type UploadPhotoResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
	ImageURL string `json:"imageUrl"`
	PublicID string `json:"publicId"`
	FileName string `json:"fileName"`
}

// ListPhotosResponse - ответ GET /api/get-photos.
// NextCursor равен nil (JSON null), когда следующей страницы нет.
type ListPhotosResponse struct {
	Success    bool              `json:"success"`
	Photos     []PhotoDescriptor `json:"photos"`
	NextCursor *string           `json:"next_cursor"`
	TotalCount int               `json:"total_count"`
}

// ErrorResponse - тело любого неуспешного ответа
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// PhotoUploadedEvent публикуется в NATS и рассылается по WebSocket
type PhotoUploadedEvent struct {
	Folder     string          `json:"folder"`
	Photo      PhotoDescriptor `json:"photo"`
	UploadedAt string          `json:"uploadedAt"`
}
