package objectkey

import (
	"fmt"
	"path"
	"strings"

	"github.com/google/uuid"
)

// Generator defines the interface for object key generation strategies
type Generator interface {
	// GenerateKey creates an object key for storage backends
	GenerateKey(imageID uuid.UUID, metadata *KeyMetadata) string
}

// KeyMetadata contains information that influences key generation
type KeyMetadata struct {
	Purpose     string // "avatars", "posts"
	OwnerID     string
	FileName    string
	ContentType string
}

var extByContentType = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

// OwnerScopedGenerator groups objects by purpose and owner:
// {purpose}/{owner}/{imageID}{ext}, e.g. avatars/<user-id>/<image-id>.jpg
type OwnerScopedGenerator struct {
	DefaultPurpose string
}

func NewOwnerScopedGenerator() *OwnerScopedGenerator {
	return &OwnerScopedGenerator{DefaultPurpose: "images"}
}

func (g *OwnerScopedGenerator) GenerateKey(imageID uuid.UUID, metadata *KeyMetadata) string {
	purpose := g.DefaultPurpose
	owner := "anonymous"
	ext := ""
	if metadata != nil {
		if metadata.Purpose != "" {
			purpose = sanitizePathComponent(metadata.Purpose)
		}
		if metadata.OwnerID != "" {
			owner = sanitizePathComponent(metadata.OwnerID)
		}
		ext = extension(metadata)
	}
	return fmt.Sprintf("%s/%s/%s%s", purpose, owner, imageID, ext)
}

// ShardedGenerator spreads objects over two-character shard directories:
// {purpose}/objects/ab/cd1234ef5678{ext}
type ShardedGenerator struct {
	// ShardLength controls how many characters to use for sharding (default: 2)
	ShardLength int
}

func NewShardedGenerator() *ShardedGenerator {
	return &ShardedGenerator{ShardLength: 2}
}

func (g *ShardedGenerator) GenerateKey(imageID uuid.UUID, metadata *KeyMetadata) string {
	id := strings.ReplaceAll(imageID.String(), "-", "")

	shardLength := g.ShardLength
	if shardLength <= 0 || shardLength >= len(id) {
		shardLength = 2
	}

	purpose := "images"
	ext := ""
	if metadata != nil {
		if metadata.Purpose != "" {
			purpose = sanitizePathComponent(metadata.Purpose)
		}
		ext = extension(metadata)
	}
	return fmt.Sprintf("%s/objects/%s/%s%s", purpose, id[:shardLength], id[shardLength:], ext)
}

// extension prefers a known image extension from the file name and falls
// back to the content type.
func extension(metadata *KeyMetadata) string {
	ext := strings.ToLower(path.Ext(metadata.FileName))
	switch ext {
	case ".jpeg":
		return ".jpg"
	case ".jpg", ".png", ".webp", ".gif":
		return ext
	}
	return extByContentType[strings.ToLower(metadata.ContentType)]
}

// sanitizePathComponent keeps a single path segment safe for object keys
func sanitizePathComponent(s string) string {
	s = strings.TrimSpace(strings.ToLower(s))
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_"
	}
	return b.String()
}
