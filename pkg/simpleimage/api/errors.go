package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"
	"github.com/tendant/simple-image/pkg/simpleimage"
)

// ErrorBody is the JSON error envelope returned by the image API
type ErrorBody struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail describes a single API error
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	render.Status(r, status)
	render.JSON(w, r, ErrorBody{Error: ErrorDetail{Code: code, Message: message}})
}

// writeServiceError maps service errors onto HTTP status codes
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, simpleimage.ErrImageNotFound):
		writeError(w, r, http.StatusNotFound, "not_found", "Image not found")
	case errors.Is(err, simpleimage.ErrInvalidPurpose):
		writeError(w, r, http.StatusBadRequest, "invalid_purpose", err.Error())
	case errors.Is(err, simpleimage.ErrUnsupportedContentType):
		writeError(w, r, http.StatusUnsupportedMediaType, "unsupported_content_type", err.Error())
	case errors.Is(err, simpleimage.ErrFileTooLarge):
		writeError(w, r, http.StatusRequestEntityTooLarge, "file_too_large", err.Error())
	case errors.Is(err, simpleimage.ErrUnknownPreset):
		writeError(w, r, http.StatusBadRequest, "unknown_preset", err.Error())
	default:
		writeError(w, r, http.StatusInternalServerError, "internal_error", "An internal server error occurred")
	}
}
