package simpleimage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
	"github.com/tendant/simple-image/pkg/simpleimage/objectkey"
	"github.com/tendant/simple-image/pkg/simpleimage/presets"
)

// ProxyPrefix is the route prefix served by imagor.Handlers
const ProxyPrefix = "/images/"

// service implements the Service interface
type service struct {
	repository     Repository
	blobStores     map[string]BlobStore
	defaultBackend string
	signer         *imagor.Signer
	keyGenerator   objectkey.Generator
	maxUploadBytes int64
	logger         *slog.Logger
	now            func() time.Time
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRepository sets the repository for the service
func WithRepository(repo Repository) Option {
	return func(s *service) {
		s.repository = repo
	}
}

// WithBlobStore adds a blob storage backend. The first backend added becomes
// the default unless WithDefaultBackend is used.
func WithBlobStore(name string, store BlobStore) Option {
	return func(s *service) {
		if s.blobStores == nil {
			s.blobStores = make(map[string]BlobStore)
		}
		s.blobStores[name] = store
		if s.defaultBackend == "" {
			s.defaultBackend = name
		}
	}
}

// WithDefaultBackend selects the backend new uploads are written to
func WithDefaultBackend(name string) Option {
	return func(s *service) {
		s.defaultBackend = name
	}
}

// WithSigner sets the URL signer used for image URLs
func WithSigner(signer *imagor.Signer) Option {
	return func(s *service) {
		s.signer = signer
	}
}

// WithKeyGenerator sets the object key generation strategy
func WithKeyGenerator(gen objectkey.Generator) Option {
	return func(s *service) {
		s.keyGenerator = gen
	}
}

// WithMaxUploadBytes sets the upload size limit
func WithMaxUploadBytes(n int64) Option {
	return func(s *service) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithLogger sets the logger for the service
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New creates a new image service with the given options
func New(options ...Option) (Service, error) {
	s := &service{
		blobStores:     make(map[string]BlobStore),
		keyGenerator:   objectkey.NewOwnerScopedGenerator(),
		maxUploadBytes: DefaultMaxUploadBytes,
		logger:         slog.Default(),
		now:            time.Now,
	}

	for _, option := range options {
		option(s)
	}

	if s.repository == nil {
		return nil, errors.New("repository is required")
	}
	if len(s.blobStores) == 0 {
		return nil, errors.New("at least one blob store is required")
	}
	if _, ok := s.blobStores[s.defaultBackend]; !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, s.defaultBackend)
	}
	if s.signer == nil {
		s.signer = imagor.New()
	}

	return s, nil
}

func (s *service) UploadImage(ctx context.Context, req UploadImageRequest) (*Image, error) {
	if !req.Purpose.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPurpose, req.Purpose)
	}
	contentType := normalizeContentType(req.ContentType)
	if _, ok := AllowedContentTypes[contentType]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedContentType, req.ContentType)
	}
	if req.Size > s.maxUploadBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds %d", ErrFileTooLarge, req.Size, s.maxUploadBytes)
	}
	if req.Reader == nil {
		return nil, fmt.Errorf("%w: no content", ErrUploadFailed)
	}

	store := s.blobStores[s.defaultBackend]
	id := uuid.New()
	objectKey := s.keyGenerator.GenerateKey(id, &objectkey.KeyMetadata{
		Purpose:     string(req.Purpose),
		OwnerID:     req.OwnerID.String(),
		FileName:    req.FileName,
		ContentType: contentType,
	})

	size := req.Size
	if size <= 0 {
		size = -1
	}
	counter := &countingReader{reader: io.LimitReader(req.Reader, s.maxUploadBytes+1)}
	err := store.UploadWithParams(ctx, counter, UploadParams{
		ObjectKey: objectKey,
		MimeType:  contentType,
		Size:      size,
	})
	if err != nil {
		s.logger.Error("Failed to upload image", "object_key", objectKey, "err", err)
		return nil, &ImageError{ImageID: id, Op: "upload", Err: fmt.Errorf("%w: %v", ErrUploadFailed, err)}
	}

	if counter.n > s.maxUploadBytes {
		s.deleteBlob(ctx, store, objectKey)
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrFileTooLarge, s.maxUploadBytes)
	}

	image := &Image{
		ID:                 id,
		OwnerID:            req.OwnerID,
		Purpose:            req.Purpose,
		ObjectKey:          objectKey,
		FileName:           req.FileName,
		ContentType:        contentType,
		Size:               counter.n,
		StorageBackendName: s.defaultBackend,
		CreatedAt:          s.now().UTC(),
	}

	if err := s.repository.CreateImage(ctx, image); err != nil {
		s.deleteBlob(ctx, store, objectKey)
		return nil, &ImageError{ImageID: id, Op: "create", Err: err}
	}

	s.logger.Info("Image uploaded", "image_id", id.String(), "object_key", objectKey, "size", image.Size)
	return image, nil
}

func (s *service) GetImage(ctx context.Context, id uuid.UUID) (*Image, error) {
	return s.repository.GetImage(ctx, id)
}

func (s *service) ListImages(ctx context.Context, ownerID uuid.UUID) ([]*Image, error) {
	return s.repository.ListImagesByOwner(ctx, ownerID)
}

func (s *service) DeleteImage(ctx context.Context, id uuid.UUID) error {
	image, err := s.repository.GetImage(ctx, id)
	if err != nil {
		return err
	}

	store, err := s.GetBackend(image.StorageBackendName)
	if err != nil {
		return &ImageError{ImageID: id, Op: "delete", Err: err}
	}
	if err := store.Delete(ctx, image.ObjectKey); err != nil && !errors.Is(err, ErrObjectNotFound) {
		return &ImageError{ImageID: id, Op: "delete", Err: err}
	}

	if err := s.repository.DeleteImage(ctx, id); err != nil {
		return &ImageError{ImageID: id, Op: "delete", Err: err}
	}

	s.logger.Info("Image deleted", "image_id", id.String(), "object_key", image.ObjectKey)
	return nil
}

func (s *service) ImageURL(objectKey string, preset string) (string, error) {
	opts, ok := presets.Get(preset)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	url := s.signer.Sign(objectKey, opts)
	if url == "" {
		return "", ErrURLUnavailable
	}
	return url, nil
}

// ImageURLs returns signed URLs for every preset that applies to the image's
// purpose. Presets that cannot be signed are left out.
func (s *service) ImageURLs(image *Image) map[string]string {
	urls := make(map[string]string)
	if image == nil {
		return urls
	}
	for _, name := range presets.ForPurpose(string(image.Purpose)) {
		if url, err := s.ImageURL(image.ObjectKey, name); err == nil {
			urls[name] = url
		}
	}
	return urls
}

// ProxyPath returns the relative /images/... path that redirects to the
// signed URL. It does not need an image host, so pages can embed it even
// when signing is configured only on the proxy.
func (s *service) ProxyPath(objectKey string, preset string) (string, error) {
	if objectKey == "" {
		return "", ErrURLUnavailable
	}
	opts, ok := presets.Get(preset)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownPreset, preset)
	}
	return ProxyPrefix + imagor.CanonicalPath(objectKey, opts), nil
}

func (s *service) GetBackend(name string) (BlobStore, error) {
	store, ok := s.blobStores[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStorageBackendNotFound, name)
	}
	return store, nil
}

func (s *service) deleteBlob(ctx context.Context, store BlobStore, objectKey string) {
	if err := store.Delete(ctx, objectKey); err != nil {
		s.logger.Warn("Failed to clean up uploaded object", "object_key", objectKey, "err", err)
	}
}

func normalizeContentType(contentType string) string {
	mediaType, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mediaType))
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}
