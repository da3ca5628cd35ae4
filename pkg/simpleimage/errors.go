package simpleimage

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

// Error types
var (
	// ErrImageNotFound indicates an image record was not found
	ErrImageNotFound = errors.New("image not found")

	// ErrObjectNotFound indicates an object was not found in storage
	ErrObjectNotFound = errors.New("object not found")

	// ErrStorageBackendNotFound indicates a storage backend was not found
	ErrStorageBackendNotFound = errors.New("storage backend not found")

	// ErrInvalidPurpose indicates an unknown image purpose
	ErrInvalidPurpose = errors.New("invalid image purpose")

	// ErrUnsupportedContentType indicates the upload is not an accepted image type
	ErrUnsupportedContentType = errors.New("unsupported content type")

	// ErrFileTooLarge indicates the upload exceeds the size limit
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnknownPreset indicates a transform preset name that does not exist
	ErrUnknownPreset = errors.New("unknown preset")

	// ErrURLUnavailable indicates no image URL could be built, usually because no image host is configured
	ErrURLUnavailable = errors.New("image url unavailable")

	// ErrUploadFailed indicates an upload operation failed
	ErrUploadFailed = errors.New("upload failed")
)

// ImageError represents an error related to image operations
type ImageError struct {
	ImageID uuid.UUID
	Op      string
	Err     error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image operation %s failed for image %s: %v", e.Op, e.ImageID, e.Err)
}

func (e *ImageError) Unwrap() error {
	return e.Err
}

// IsValidationError returns true if err was caused by invalid upload input
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidPurpose) ||
		errors.Is(err, ErrUnsupportedContentType) ||
		errors.Is(err, ErrFileTooLarge)
}
