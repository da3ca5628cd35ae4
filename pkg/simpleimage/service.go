package simpleimage

import (
	"context"

	"github.com/google/uuid"
)

// Service defines the main interface for the simple-image library
type Service interface {
	// Image operations
	UploadImage(ctx context.Context, req UploadImageRequest) (*Image, error)
	GetImage(ctx context.Context, id uuid.UUID) (*Image, error)
	ListImages(ctx context.Context, ownerID uuid.UUID) ([]*Image, error)
	DeleteImage(ctx context.Context, id uuid.UUID) error

	// URL operations
	ImageURL(objectKey string, preset string) (string, error)
	ImageURLs(image *Image) map[string]string
	ProxyPath(objectKey string, preset string) (string, error)

	// Storage backend operations
	GetBackend(name string) (BlobStore, error)
}
