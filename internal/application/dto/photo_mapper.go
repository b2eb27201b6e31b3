package dto

import (
	"time"

	"github.com/dreschagin/event-gallery/internal/domain/entity"
)

// ToPhotoDescriptor конвертирует Domain Entity в DTO
func ToPhotoDescriptor(photo *entity.Photo) PhotoDescriptor {
	return PhotoDescriptor{
		ImageURL:  photo.URL(),
		PublicID:  photo.PublicID(),
		FileName:  photo.DisplayName(),
		CreatedAt: photo.CreatedAt().UTC().Format(time.RFC3339),
	}
}

// ToPhotoDescriptors конвертирует список; результат никогда не nil
func ToPhotoDescriptors(photos []*entity.Photo) []PhotoDescriptor {
	descriptors := make([]PhotoDescriptor, 0, len(photos))
	for _, photo := range photos {
		descriptors = append(descriptors, ToPhotoDescriptor(photo))
	}
	return descriptors
}
