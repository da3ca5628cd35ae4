package memory_test

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-image/pkg/simpleimage"
	memorystorage "github.com/tendant/simple-image/pkg/simpleimage/storage/memory"
)

func TestMemoryBackend(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()
	testKey := "avatars/u1/f.jpg"
	testData := "not really a jpeg"

	t.Run("UploadWithParams", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, strings.NewReader(testData), simpleimage.UploadParams{
			ObjectKey: testKey,
			MimeType:  "image/jpeg",
			Size:      int64(len(testData)),
		})
		require.NoError(t, err)
	})

	t.Run("GetObjectMeta", func(t *testing.T) {
		meta, err := backend.GetObjectMeta(ctx, testKey)
		require.NoError(t, err)
		assert.Equal(t, testKey, meta.Key)
		assert.Equal(t, int64(len(testData)), meta.Size)
		assert.Equal(t, "image/jpeg", meta.ContentType)
		assert.False(t, meta.UpdatedAt.IsZero())
	})

	t.Run("Bytes", func(t *testing.T) {
		data, ok := backend.Bytes(testKey)
		require.True(t, ok)
		assert.Equal(t, testData, string(data))
	})

	t.Run("default content type", func(t *testing.T) {
		err := backend.UploadWithParams(ctx, strings.NewReader("x"), simpleimage.UploadParams{ObjectKey: "k"})
		require.NoError(t, err)
		meta, err := backend.GetObjectMeta(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "application/octet-stream", meta.ContentType)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, backend.Delete(ctx, testKey))

		_, err := backend.GetObjectMeta(ctx, testKey)
		assert.ErrorIs(t, err, simpleimage.ErrObjectNotFound)

		assert.ErrorIs(t, backend.Delete(ctx, testKey), simpleimage.ErrObjectNotFound)
	})
}

func TestMemoryBackendConcurrency(t *testing.T) {
	backend := memorystorage.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("posts/u/%d.png", i)
			assert.NoError(t, backend.UploadWithParams(ctx, strings.NewReader("data"), simpleimage.UploadParams{ObjectKey: key, MimeType: "image/png"}))
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 20, backend.Len())
}
