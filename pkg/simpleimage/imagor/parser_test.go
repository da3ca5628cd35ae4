package imagor

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePath(t *testing.T) {
	tests := []struct {
		name        string
		path        string
		expectedKey string
		expected    Options
	}{
		{
			name:        "all segments",
			path:        "256x256/smart/filters:quality(85)/avatars/u1/f.jpg",
			expectedKey: "avatars/u1/f.jpg",
			expected:    Options{Width: 256, Height: 256, Smart: true, Filters: []string{"quality(85)"}},
		},
		{
			name:        "key only",
			path:        "avatars/u1/f.jpg",
			expectedKey: "avatars/u1/f.jpg",
		},
		{
			name:        "bare key",
			path:        "f.jpg",
			expectedKey: "f.jpg",
		},
		{
			name:        "smart without size",
			path:        "smart/a.jpg",
			expectedKey: "a.jpg",
			expected:    Options{Smart: true},
		},
		{
			name:        "filters without size",
			path:        "filters:quality(85):format(webp)/a.jpg",
			expectedKey: "a.jpg",
			expected:    Options{Filters: []string{"quality(85)", "format(webp)"}},
		},
		{
			name:        "fit-in",
			path:        "fit-in/1200x630/filters:format(webp)/posts/p1/c.png",
			expectedKey: "posts/p1/c.png",
			expected:    Options{Width: 1200, Height: 630, Fit: FitIn, Filters: []string{"format(webp)"}},
		},
		{
			name:        "zero size placeholder",
			path:        "0x0/a.jpg",
			expectedKey: "a.jpg",
		},
		{
			name:        "leading slash ignored",
			path:        "/10x20/a.jpg",
			expectedKey: "a.jpg",
			expected:    Options{Width: 10, Height: 20},
		},
		{
			name:        "grammar words later in the key are part of the key",
			path:        "10x10/avatars/smart/a.jpg",
			expectedKey: "avatars/smart/a.jpg",
			expected:    Options{Width: 10, Height: 10},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, opts, err := ParsePath(tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.expectedKey, key)
			assert.Equal(t, tt.expected, opts)
		})
	}
}

func TestParsePathBadFormat(t *testing.T) {
	tests := []struct {
		name string
		path string
	}{
		{name: "empty", path: ""},
		{name: "only slash", path: "/"},
		{name: "malformed size", path: "256xA/avatars/u.jpg"},
		{name: "missing height", path: "256x/avatars/u.jpg"},
		{name: "size without key", path: "256x256/"},
		{name: "smart without key", path: "256x256/smart/"},
		{name: "empty filters", path: "filters:/a.jpg"},
		{name: "filters without key", path: "filters:quality(85)/"},
		{name: "overflowing width", path: "99999999999999999999999x1/a.jpg"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParsePath(tt.path)
			assert.ErrorIs(t, err, ErrBadFormat)
			assert.True(t, IsClientError(err))
		})
	}
}

func TestParseSegments(t *testing.T) {
	key, opts, err := ParseSegments([]string{"256x256", "smart", "filters:quality(85)", "avatars", "u1", "f.jpg"})
	require.NoError(t, err)
	assert.Equal(t, "avatars/u1/f.jpg", key)
	assert.Equal(t, Options{Width: 256, Height: 256, Smart: true, Filters: []string{"quality(85)"}}, opts)

	_, _, err = ParseSegments(nil)
	assert.ErrorIs(t, err, ErrBadFormat)
}

func TestRoundTrip(t *testing.T) {
	signer := New(WithImageHost(testHost), WithSecret("s3cr3t"))

	cases := []struct {
		key  string
		opts Options
	}{
		{key: "a.jpg"},
		{key: "avatars/u1/f.jpg", opts: Options{Width: 256, Height: 256, Smart: true, Filters: []string{"quality(85)"}}},
		{key: "posts/p/cover.png", opts: Options{Width: 1200, Height: 630, Fit: FitIn, Filters: []string{"quality(85)", "format(webp)"}}},
		{key: "x.gif", opts: Options{Width: 0, Height: 300}},
		{key: "deep/nested/path/to/img.webp", opts: Options{Smart: true}},
		{key: "img.webp", opts: Options{Filters: []string{"blur(2)", "grayscale()"}}},
	}

	for _, c := range cases {
		t.Run(c.key, func(t *testing.T) {
			signed := signer.Sign(c.key, c.opts)
			require.NotEmpty(t, signed)

			// strip host and signature
			rest := strings.TrimPrefix(signed, testHost+"/")
			_, path, ok := strings.Cut(rest, "/")
			require.True(t, ok)

			key, opts, err := ParseSegments(strings.Split(path, "/"))
			require.NoError(t, err)
			assert.Equal(t, c.key, key)
			assert.Equal(t, c.opts, opts)
			assert.Equal(t, signed, signer.Sign(key, opts))
		})
	}
}

func TestResolveRedirect(t *testing.T) {
	t.Run("signed target", func(t *testing.T) {
		signer := New(WithImageHost(testHost), WithSecret("s3cr3t"))
		target, err := signer.ResolveRedirect("256x256/smart/filters:quality(85)/avatars/u1/f.jpg")
		require.NoError(t, err)

		path := "256x256/smart/filters:quality(85)/avatars/u1/f.jpg"
		assert.Equal(t, testHost+"/"+expectedSignature("s3cr3t", path)+"/"+path, target)
	})

	t.Run("absent size still emits placeholder", func(t *testing.T) {
		signer := New(WithImageHost(testHost))
		target, err := signer.ResolveRedirect("smart/a.jpg")
		require.NoError(t, err)
		assert.Equal(t, testHost+"/unsafe/0x0/smart/a.jpg", target)
	})

	t.Run("bad format", func(t *testing.T) {
		signer := New(WithImageHost(testHost))
		_, err := signer.ResolveRedirect("256xA/avatars/u.jpg")
		assert.ErrorIs(t, err, ErrBadFormat)
	})

	t.Run("no image host", func(t *testing.T) {
		signer := New(WithSecret("s3cr3t"))
		_, err := signer.ResolveRedirect("10x10/a.jpg")
		assert.ErrorIs(t, err, ErrSigningUnavailable)
		assert.False(t, IsClientError(err))
	})
}
