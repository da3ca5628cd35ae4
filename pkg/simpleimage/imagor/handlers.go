package imagor

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

const (
	// MessageBadFormat is the response body for paths that do not parse
	MessageBadFormat = "Invalid image path format"
	// MessageSigningUnavailable is the response body when no URL can be built
	MessageSigningUnavailable = "Could not generate signed URL"
)

// Handlers serves the inbound image route that redirects to signed URLs
type Handlers struct {
	signer *Signer
	logger *slog.Logger
}

// HandlersOption is a functional option for configuring Handlers
type HandlersOption func(*Handlers)

// WithLogger sets the logger used by the handlers
func WithLogger(logger *slog.Logger) HandlersOption {
	return func(h *Handlers) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// NewHandlers creates the redirect handlers for signer
func NewHandlers(signer *Signer, opts ...HandlersOption) *Handlers {
	h := &Handlers{
		signer: signer,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// HandleRedirect handles GET /images/{transform...}/{objectKey...}.
//
//   - 307 with Location set to the signed URL on success
//   - 400 "Invalid image path format" when the path does not parse
//   - 500 "Could not generate signed URL" when no URL can be built
func (h *Handlers) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	path := chi.URLParam(r, "*")

	target, err := h.signer.ResolveRedirect(path)
	switch {
	case err == nil:
	case errors.Is(err, ErrBadFormat):
		h.logger.Debug("Rejected image path", "path", path, "err", err)
		recordRedirect(outcomeBadFormat)
		render.Status(r, http.StatusBadRequest)
		render.PlainText(w, r, MessageBadFormat)
		return
	default:
		h.logger.Error("Failed to sign image URL", "path", path, "err", err)
		recordRedirect(outcomeUnavailable)
		render.Status(r, http.StatusInternalServerError)
		render.PlainText(w, r, MessageSigningUnavailable)
		return
	}

	if h.signer.IsSigned() {
		recordRedirect(outcomeSigned)
	} else {
		recordRedirect(outcomeUnsafe)
	}
	http.Redirect(w, r, target, http.StatusTemporaryRedirect)
}

// Mount mounts the redirect route on a chi router under /images
func (h *Handlers) Mount(r chi.Router) {
	r.Get("/images/*", h.HandleRedirect)
}
