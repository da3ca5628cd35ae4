package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/jwtauth"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/tendant/simple-image/pkg/simpleimage"
	"github.com/tendant/simple-image/pkg/simpleimage/imagor"
)

// RouterConfig holds the optional pieces of the HTTP surface
type RouterConfig struct {
	Logger         *slog.Logger
	JWTAuth        *jwtauth.JWTAuth
	AdminAuth      func(http.Handler) http.Handler
	MaxUploadBytes int64
	RequestTimeout time.Duration
}

// RouterOption configures the router
type RouterOption func(*RouterConfig)

func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(c *RouterConfig) {
		c.Logger = logger
	}
}

// WithJWTAuth enables the authenticated image endpoints. Without it they
// always answer 401.
func WithJWTAuth(ja *jwtauth.JWTAuth) RouterOption {
	return func(c *RouterConfig) {
		c.JWTAuth = ja
	}
}

// WithAdminAuth mounts the admin endpoints behind the given middleware
func WithAdminAuth(mw func(http.Handler) http.Handler) RouterOption {
	return func(c *RouterConfig) {
		c.AdminAuth = mw
	}
}

func WithUploadLimit(n int64) RouterOption {
	return func(c *RouterConfig) {
		c.MaxUploadBytes = n
	}
}

func WithRequestTimeout(d time.Duration) RouterOption {
	return func(c *RouterConfig) {
		c.RequestTimeout = d
	}
}

// Register adds the image proxy, image API and metrics routes to r
func Register(r chi.Router, service simpleimage.Service, signer *imagor.Signer, opts ...RouterOption) {
	cfg := RouterConfig{
		Logger:         slog.Default(),
		MaxUploadBytes: simpleimage.DefaultMaxUploadBytes,
		RequestTimeout: 60 * time.Second,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	images := NewImagesHandler(service, cfg.Logger, cfg.MaxUploadBytes)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID)
		r.Use(RecoveryMiddleware(cfg.Logger))
		r.Use(LoggingMiddleware(cfg.Logger))
		r.Use(MetricsMiddleware)

		imagor.NewHandlers(signer, imagor.WithLogger(cfg.Logger)).Mount(r)

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(middleware.Timeout(cfg.RequestTimeout))

			r.Get("/images/{imageID}", images.GetImage)

			r.Group(func(r chi.Router) {
				r.Use(authenticator(cfg.JWTAuth))
				r.Post("/images", images.UploadImage)
				r.Delete("/images/{imageID}", images.DeleteImage)
				r.Get("/me/images", images.ListMyImages)
			})

			if cfg.AdminAuth != nil {
				r.Group(func(r chi.Router) {
					r.Use(cfg.AdminAuth)
					r.Get("/admin/owners/{ownerID}/images", images.ListOwnerImages)
				})
			}
		})
	})

	r.Handle("/metrics", promhttp.Handler())
}

// NewRouter returns a standalone router with all routes registered
func NewRouter(service simpleimage.Service, signer *imagor.Signer, opts ...RouterOption) chi.Router {
	r := chi.NewRouter()
	Register(r, service, signer, opts...)
	return r
}

func authenticator(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	if ja == nil {
		return func(http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "Authentication is not configured")
			})
		}
	}

	verify := jwtauth.Verifier(ja)
	return func(next http.Handler) http.Handler {
		return verify(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil || token == nil {
				writeError(w, r, http.StatusUnauthorized, "unauthorized", "Missing or invalid token")
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}
