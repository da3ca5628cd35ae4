package api_test

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/go-chi/jwtauth"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tendant/simple-image/pkg/simpleimage"
	"github.com/tendant/simple-image/pkg/simpleimage/api"
	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
	"github.com/tendant/simple-image/pkg/simpleimage/repo/memory"
	memorystorage "github.com/tendant/simple-image/pkg/simpleimage/storage/memory"
)

const (
	testHost   = "https://img.example.com"
	testSecret = "s3cr3t"
	adminKey   = "let-me-in"
)

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

type testEnv struct {
	router http.Handler
	store  *memorystorage.Backend
	jwt    *jwtauth.JWTAuth
	signer *imagor.Signer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memorystorage.New()
	signer := imagor.New(imagor.WithImageHost(testHost), imagor.WithSecret(testSecret))
	svc, err := simpleimage.New(
		simpleimage.WithRepository(memory.New()),
		simpleimage.WithBlobStore("memory", store),
		simpleimage.WithSigner(signer),
		simpleimage.WithMaxUploadBytes(1024),
	)
	require.NoError(t, err)

	ja := jwtauth.New("HS256", []byte("jwt-secret"), nil)
	adminAuth := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("X-API-KEY") != adminKey {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}

	router := api.NewRouter(svc, signer,
		api.WithJWTAuth(ja),
		api.WithAdminAuth(adminAuth),
		api.WithUploadLimit(1024),
	)
	return &testEnv{router: router, store: store, jwt: ja, signer: signer}
}

func (e *testEnv) token(t *testing.T, ownerID uuid.UUID) string {
	t.Helper()
	_, token, err := e.jwt.Encode(map[string]interface{}{"sub": ownerID.String()})
	require.NoError(t, err)
	return token
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func uploadRequest(t *testing.T, purpose, partContentType string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("purpose", purpose))

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="pic.png"`)
	h.Set("Content-Type", partContentType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func (e *testEnv) upload(t *testing.T, ownerID uuid.UUID, purpose string) api.ImageResponse {
	t.Helper()
	req := uploadRequest(t, purpose, "image/png", pngHeader)
	req.Header.Set("Authorization", "Bearer "+e.token(t, ownerID))
	rr := e.do(req)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp api.ImageResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	return resp
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) api.ErrorDetail {
	t.Helper()
	var body api.ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body.Error
}

func TestUploadImage(t *testing.T) {
	t.Run("requires token", func(t *testing.T) {
		env := newTestEnv(t)
		rr := env.do(uploadRequest(t, "avatars", "image/png", pngHeader))
		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		assert.Equal(t, "unauthorized", decodeError(t, rr).Code)
	})

	t.Run("rejects bad token", func(t *testing.T) {
		env := newTestEnv(t)
		req := uploadRequest(t, "avatars", "image/png", pngHeader)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)
	})

	t.Run("stores avatar and returns urls", func(t *testing.T) {
		env := newTestEnv(t)
		ownerID := uuid.New()

		resp := env.upload(t, ownerID, "avatars")
		assert.Equal(t, ownerID.String(), resp.OwnerID)
		assert.Equal(t, "avatars", resp.Purpose)
		assert.Equal(t, "image/png", resp.ContentType)
		assert.True(t, strings.HasPrefix(resp.ObjectKey, "avatars/"+ownerID.String()+"/"))
		assert.Equal(t, 1, env.store.Len())

		opts := imagor.Options{Width: 256, Height: 256, Smart: true, Filters: []string{"quality(85)"}}
		assert.Equal(t, env.signer.Sign(resp.ObjectKey, opts), resp.URLs["avatar"])
		assert.Contains(t, resp.URLs, "avatar-sm")
		assert.Contains(t, resp.URLs, "original")
		assert.NotContains(t, resp.URLs, "cover")
		assert.Equal(t, "/images/256x256/smart/filters:quality(85)/"+resp.ObjectKey, resp.Paths["avatar"])
	})

	t.Run("sniffs octet-stream parts", func(t *testing.T) {
		env := newTestEnv(t)
		req := uploadRequest(t, "posts", "application/octet-stream", pngHeader)
		req.Header.Set("Authorization", "Bearer "+env.token(t, uuid.New()))
		rr := env.do(req)
		require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

		var resp api.ImageResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, "image/png", resp.ContentType)
		assert.True(t, strings.HasSuffix(resp.ObjectKey, ".png"))
	})

	tests := []struct {
		name         string
		purpose      string
		contentType  string
		data         []byte
		expectStatus int
		expectCode   string
	}{
		{name: "unknown purpose", purpose: "banners", contentType: "image/png", data: pngHeader, expectStatus: http.StatusBadRequest, expectCode: "invalid_purpose"},
		{name: "not an image", purpose: "posts", contentType: "text/plain", data: []byte("hello"), expectStatus: http.StatusUnsupportedMediaType, expectCode: "unsupported_content_type"},
		{name: "too large", purpose: "posts", contentType: "image/png", data: bytes.Repeat([]byte("x"), 2048), expectStatus: http.StatusRequestEntityTooLarge, expectCode: "file_too_large"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			req := uploadRequest(t, tt.purpose, tt.contentType, tt.data)
			req.Header.Set("Authorization", "Bearer "+env.token(t, uuid.New()))
			rr := env.do(req)
			assert.Equal(t, tt.expectStatus, rr.Code)
			assert.Equal(t, tt.expectCode, decodeError(t, rr).Code)
			assert.Equal(t, 0, env.store.Len())
		})
	}

	t.Run("missing file part", func(t *testing.T) {
		env := newTestEnv(t)
		var body bytes.Buffer
		mw := multipart.NewWriter(&body)
		require.NoError(t, mw.WriteField("purpose", "posts"))
		require.NoError(t, mw.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/images", &body)
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+env.token(t, uuid.New()))
		rr := env.do(req)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "missing_file", decodeError(t, rr).Code)
	})
}

func TestGetImage(t *testing.T) {
	env := newTestEnv(t)
	uploaded := env.upload(t, uuid.New(), "posts")

	t.Run("found", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/images/"+uploaded.ID, nil))
		require.Equal(t, http.StatusOK, rr.Code)

		var resp api.ImageResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Equal(t, uploaded.ObjectKey, resp.ObjectKey)
		assert.Contains(t, resp.URLs, "cover")
		assert.Contains(t, resp.URLs, "thumbnail")
	})

	t.Run("not found", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/images/"+uuid.New().String(), nil))
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.Equal(t, "not_found", decodeError(t, rr).Code)
	})

	t.Run("invalid id", func(t *testing.T) {
		rr := env.do(httptest.NewRequest(http.MethodGet, "/api/v1/images/nope", nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestListAndDeleteImages(t *testing.T) {
	env := newTestEnv(t)
	ownerID := uuid.New()
	first := env.upload(t, ownerID, "avatars")
	env.upload(t, ownerID, "posts")
	env.upload(t, uuid.New(), "posts")

	listMine := func() api.ListImagesResponse {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/me/images", nil)
		req.Header.Set("Authorization", "Bearer "+env.token(t, ownerID))
		rr := env.do(req)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.ListImagesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		return resp
	}

	assert.Len(t, listMine().Images, 2)

	t.Run("other owner cannot delete", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/images/"+first.ID, nil)
		req.Header.Set("Authorization", "Bearer "+env.token(t, uuid.New()))
		rr := env.do(req)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodDelete, "/api/v1/images/"+first.ID, nil)
		req.Header.Set("Authorization", "Bearer "+env.token(t, ownerID))
		rr := env.do(req)
		assert.Equal(t, http.StatusNoContent, rr.Code)
		assert.Len(t, listMine().Images, 1)
		assert.Equal(t, 2, env.store.Len())
	})

	t.Run("admin lists any owner", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/admin/owners/"+ownerID.String()+"/images", nil)
		assert.Equal(t, http.StatusUnauthorized, env.do(req).Code)

		req.Header.Set("X-API-KEY", adminKey)
		rr := env.do(req)
		require.Equal(t, http.StatusOK, rr.Code)
		var resp api.ListImagesResponse
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
		assert.Len(t, resp.Images, 1)
	})
}

func TestProxyRedirectAndMetrics(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(httptest.NewRequest(http.MethodGet, "/images/64x64/smart/avatars/u1/f.jpg", nil))
	assert.Equal(t, http.StatusTemporaryRedirect, rr.Code)
	assert.Equal(t, env.signer.Sign("avatars/u1/f.jpg", imagor.Options{Width: 64, Height: 64, Smart: true}), rr.Header().Get("Location"))

	rr = env.do(httptest.NewRequest(http.MethodGet, "/images/64xZ/a.jpg", nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = env.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "simpleimage_http_requests_total")
	assert.Contains(t, rr.Body.String(), "imagor_redirects_total")
}

func TestAuthenticationNotConfigured(t *testing.T) {
	svc, err := simpleimage.New(
		simpleimage.WithRepository(memory.New()),
		simpleimage.WithBlobStore("memory", memorystorage.New()),
	)
	require.NoError(t, err)
	router := api.NewRouter(svc, imagor.New())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/me/images", nil))
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/admin/owners/"+uuid.New().String()+"/images", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
