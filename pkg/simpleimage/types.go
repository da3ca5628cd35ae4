package simpleimage

import (
	"io"
	"time"

	"github.com/google/uuid"
)

// Purpose groups images by where they are used. It is also the first segment of the object key.
type Purpose string

const (
	PurposeAvatar Purpose = "avatars"
	PurposePost   Purpose = "posts"
)

// IsValid reports whether p is a known purpose
func (p Purpose) IsValid() bool {
	switch p {
	case PurposeAvatar, PurposePost:
		return true
	}
	return false
}

// Image is a stored image record
type Image struct {
	ID                 uuid.UUID  `json:"id"`
	OwnerID            uuid.UUID  `json:"owner_id"`
	Purpose            Purpose    `json:"purpose"`
	ObjectKey          string     `json:"object_key"`
	FileName           string     `json:"file_name"`
	ContentType        string     `json:"content_type"`
	Size               int64      `json:"size"`
	StorageBackendName string     `json:"storage_backend_name"`
	CreatedAt          time.Time  `json:"created_at"`
	DeletedAt          *time.Time `json:"deleted_at,omitempty"`
}

// UploadImageRequest contains parameters for uploading an image
type UploadImageRequest struct {
	OwnerID     uuid.UUID
	Purpose     Purpose
	FileName    string
	ContentType string
	Size        int64
	Reader      io.Reader
}

// AllowedContentTypes lists the image types accepted for upload
var AllowedContentTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// DefaultMaxUploadBytes is the upload size limit when none is configured
const DefaultMaxUploadBytes int64 = 5 << 20
