package api

import (
	"bufio"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/go-chi/render"
	"github.com/google/uuid"
	"github.com/tendant/simple-image/pkg/simpleimage"
	"github.com/tendant/simple-image/pkg/simpleimage/presets"
)

// multipartOverhead allows for boundaries and form fields around the file part
const multipartOverhead = 1 << 20

// ImagesHandler serves the image upload and lookup endpoints
type ImagesHandler struct {
	service        simpleimage.Service
	logger         *slog.Logger
	maxUploadBytes int64
}

func NewImagesHandler(service simpleimage.Service, logger *slog.Logger, maxUploadBytes int64) *ImagesHandler {
	if logger == nil {
		logger = slog.Default()
	}
	if maxUploadBytes <= 0 {
		maxUploadBytes = simpleimage.DefaultMaxUploadBytes
	}
	return &ImagesHandler{
		service:        service,
		logger:         logger,
		maxUploadBytes: maxUploadBytes,
	}
}

// ImageResponse is an image record plus its rendered URLs
type ImageResponse struct {
	ID          string            `json:"id"`
	OwnerID     string            `json:"owner_id"`
	Purpose     string            `json:"purpose"`
	ObjectKey   string            `json:"object_key"`
	FileName    string            `json:"file_name"`
	ContentType string            `json:"content_type"`
	Size        int64             `json:"size"`
	CreatedAt   time.Time         `json:"created_at"`
	URLs        map[string]string `json:"urls"`
	Paths       map[string]string `json:"paths"`
}

// ListImagesResponse wraps a list of images
type ListImagesResponse struct {
	Images []ImageResponse `json:"images"`
}

func (h *ImagesHandler) toResponse(image *simpleimage.Image) ImageResponse {
	paths := make(map[string]string)
	for _, name := range presets.ForPurpose(string(image.Purpose)) {
		if p, err := h.service.ProxyPath(image.ObjectKey, name); err == nil {
			paths[name] = p
		}
	}
	return ImageResponse{
		ID:          image.ID.String(),
		OwnerID:     image.OwnerID.String(),
		Purpose:     string(image.Purpose),
		ObjectKey:   image.ObjectKey,
		FileName:    image.FileName,
		ContentType: image.ContentType,
		Size:        image.Size,
		CreatedAt:   image.CreatedAt,
		URLs:        h.service.ImageURLs(image),
		Paths:       paths,
	}
}

func (h *ImagesHandler) toListResponse(images []*simpleimage.Image) ListImagesResponse {
	resp := ListImagesResponse{Images: make([]ImageResponse, 0, len(images))}
	for _, image := range images {
		resp.Images = append(resp.Images, h.toResponse(image))
	}
	return resp
}

// UploadImage accepts a multipart form with a "file" part and a "purpose" field
func (h *ImagesHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or invalid subject")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+multipartOverhead)
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, http.StatusRequestEntityTooLarge, "file_too_large", "Upload exceeds size limit")
			return
		}
		writeError(w, r, http.StatusBadRequest, "invalid_form", "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "missing_file", "Form field \"file\" is required")
		return
	}
	defer file.Close()

	// Browsers often send application/octet-stream, so sniff the leading bytes.
	reader := bufio.NewReader(file)
	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		head, _ := reader.Peek(512)
		contentType = http.DetectContentType(head)
	}

	image, err := h.service.UploadImage(r.Context(), simpleimage.UploadImageRequest{
		OwnerID:     ownerID,
		Purpose:     simpleimage.Purpose(r.FormValue("purpose")),
		FileName:    header.Filename,
		ContentType: contentType,
		Size:        header.Size,
		Reader:      reader,
	})
	if err != nil {
		if !simpleimage.IsValidationError(err) {
			h.logger.Error("Failed to upload image",
				"request_id", middleware.GetReqID(r.Context()),
				"owner_id", ownerID.String(),
				"err", err)
		}
		writeServiceError(w, r, err)
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, h.toResponse(image))
}

// GetImage returns an image record and its URLs
func (h *ImagesHandler) GetImage(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "Invalid image ID")
		return
	}

	image, err := h.service.GetImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	render.JSON(w, r, h.toResponse(image))
}

// ListMyImages lists the caller's images, newest first
func (h *ImagesHandler) ListMyImages(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or invalid subject")
		return
	}
	h.listImages(w, r, ownerID)
}

// ListOwnerImages lists any owner's images for administrators
func (h *ImagesHandler) ListOwnerImages(w http.ResponseWriter, r *http.Request) {
	ownerID, err := uuid.Parse(chi.URLParam(r, "ownerID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "Invalid owner ID")
		return
	}
	h.listImages(w, r, ownerID)
}

func (h *ImagesHandler) listImages(w http.ResponseWriter, r *http.Request, ownerID uuid.UUID) {
	images, err := h.service.ListImages(r.Context(), ownerID)
	if err != nil {
		h.logger.Error("Failed to list images", "owner_id", ownerID.String(), "err", err)
		writeServiceError(w, r, err)
		return
	}
	render.JSON(w, r, h.toListResponse(images))
}

// DeleteImage deletes one of the caller's images
func (h *ImagesHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := ownerFromContext(r)
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or invalid subject")
		return
	}

	id, err := uuid.Parse(chi.URLParam(r, "imageID"))
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid_id", "Invalid image ID")
		return
	}

	image, err := h.service.GetImage(r.Context(), id)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if image.OwnerID != ownerID {
		writeError(w, r, http.StatusForbidden, "forbidden", "Image belongs to another owner")
		return
	}

	if err := h.service.DeleteImage(r.Context(), id); err != nil {
		h.logger.Error("Failed to delete image", "image_id", id.String(), "err", err)
		writeServiceError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ownerFromContext reads the owner ID from the verified JWT "sub" claim
func ownerFromContext(r *http.Request) (uuid.UUID, bool) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return uuid.Nil, false
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return uuid.Nil, false
	}
	ownerID, err := uuid.Parse(sub)
	if err != nil {
		return uuid.Nil, false
	}
	return ownerID, true
}
