package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/tendant/simple-image/pkg/simpleimage"
)

// Repository implements simpleimage.Repository using in-memory storage
type Repository struct {
	mu      sync.RWMutex
	images  map[uuid.UUID]*simpleimage.Image
	byOwner map[uuid.UUID][]uuid.UUID // owner_id -> []image_id
}

// New creates a new in-memory repository
func New() *Repository {
	return &Repository{
		images:  make(map[uuid.UUID]*simpleimage.Image),
		byOwner: make(map[uuid.UUID][]uuid.UUID),
	}
}

func (r *Repository) CreateImage(ctx context.Context, image *simpleimage.Image) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Create a copy to avoid external modifications
	imageCopy := *image
	if _, exists := r.images[image.ID]; !exists {
		r.byOwner[image.OwnerID] = append(r.byOwner[image.OwnerID], image.ID)
	}
	r.images[image.ID] = &imageCopy

	return nil
}

func (r *Repository) GetImage(ctx context.Context, id uuid.UUID) (*simpleimage.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	image, exists := r.images[id]
	if !exists || image.DeletedAt != nil {
		return nil, simpleimage.ErrImageNotFound
	}

	imageCopy := *image
	return &imageCopy, nil
}

// ListImagesByOwner returns the owner's images, newest first
func (r *Repository) ListImagesByOwner(ctx context.Context, ownerID uuid.UUID) ([]*simpleimage.Image, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []*simpleimage.Image
	for _, id := range r.byOwner[ownerID] {
		image := r.images[id]
		if image == nil || image.DeletedAt != nil {
			continue
		}
		imageCopy := *image
		result = append(result, &imageCopy)
	}

	sort.SliceStable(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	return result, nil
}

// DeleteImage soft-deletes an image record
func (r *Repository) DeleteImage(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	image, exists := r.images[id]
	if !exists || image.DeletedAt != nil {
		return simpleimage.ErrImageNotFound
	}

	now := time.Now().UTC()
	image.DeletedAt = &now
	return nil
}
