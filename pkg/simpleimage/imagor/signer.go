package imagor

import (
	"crypto/hmac"
	"crypto/sha1"
	"encoding/base64"
	"strconv"
	"strings"
)

const (
	// UnsafeSegment replaces the signature when no secret is configured
	UnsafeSegment = "unsafe"

	fitInSegment  = "fit-in"
	smartSegment  = "smart"
	filtersPrefix = "filters:"
)

// FitMode selects how the image is scaled into the requested box
type FitMode int

const (
	// FitNone crops to fill the requested box
	FitNone FitMode = iota
	// FitIn keeps the aspect ratio and fits the whole image inside the box
	FitIn
)

// String returns the path segment for the mode, or "none"
func (m FitMode) String() string {
	if m == FitIn {
		return fitInSegment
	}
	return "none"
}

// Options describes an image transform. The zero value means "no transform".
type Options struct {
	Width   int      `json:"width,omitempty"`
	Height  int      `json:"height,omitempty"`
	Fit     FitMode  `json:"fit,omitempty"`
	Smart   bool     `json:"smart,omitempty"`
	Filters []string `json:"filters,omitempty"`
}

// Signer builds signed image-server URLs. It is immutable after New and safe
// for concurrent use.
type Signer struct {
	imageHost string
	secret    []byte
}

// New creates a new Signer with the given options
func New(opts ...Option) *Signer {
	s := &Signer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ImageHost returns the configured image server base URL
func (s *Signer) ImageHost() string {
	return s.imageHost
}

// IsEnabled returns true if URLs can be built (an image host is configured)
func (s *Signer) IsEnabled() bool {
	return s.imageHost != ""
}

// IsSigned returns true if URLs carry an HMAC signature rather than the unsafe segment
func (s *Signer) IsSigned() bool {
	return len(s.secret) > 0
}

// Sign returns the full image-server URL for objectKey transformed by opts.
//
// An empty string means no URL can be built: the object key is empty or no
// image host is configured. Callers decide whether that is an error.
//
// Example:
//
//	signer.Sign("a.jpg", imagor.Options{Width: 100, Height: 100})
//	// https://img.example.com/<sig>/100x100/a.jpg
func (s *Signer) Sign(objectKey string, opts Options) string {
	if objectKey == "" || s.imageHost == "" {
		return ""
	}
	path := CanonicalPath(objectKey, opts)
	return s.imageHost + "/" + s.signatureSegment(path) + "/" + path
}

// Signature returns the URL-safe base64 HMAC-SHA1 of path, or the unsafe
// segment when no secret is configured.
func (s *Signer) Signature(path string) string {
	return s.signatureSegment(path)
}

// Verify checks a "<signature>/<canonical path>" string the way the image
// server does. Unsafe paths are accepted only when no secret is configured.
func (s *Signer) Verify(signedPath string) error {
	signedPath = strings.TrimPrefix(signedPath, "/")
	sig, path, ok := strings.Cut(signedPath, "/")
	if !ok || path == "" {
		return ErrBadFormat
	}
	if !s.IsSigned() {
		if sig != UnsafeSegment {
			return ErrInvalidSignature
		}
		return nil
	}
	if !hmac.Equal([]byte(sig), []byte(s.sign(path))) {
		return ErrInvalidSignature
	}
	return nil
}

func (s *Signer) signatureSegment(path string) string {
	if !s.IsSigned() {
		return UnsafeSegment
	}
	return s.sign(path)
}

// sign keeps base64 padding: the image server compares against
// base64.URLEncoding output.
func (s *Signer) sign(path string) string {
	h := hmac.New(sha1.New, s.secret)
	h.Write([]byte(path))
	return base64.URLEncoding.EncodeToString(h.Sum(nil))
}

// CanonicalPath builds the exact byte sequence that gets signed:
//
//	[fit-in/]<W>x<H>/[smart/][filters:f1:f2/]<objectKey>
//
// The size segment is always written, 0x0 included, because deployed image
// servers verify signatures over that form. Negative dimensions are written as 0.
func CanonicalPath(objectKey string, opts Options) string {
	var b strings.Builder
	if opts.Fit == FitIn {
		b.WriteString(fitInSegment)
		b.WriteByte('/')
	}
	b.WriteString(strconv.Itoa(max(opts.Width, 0)))
	b.WriteByte('x')
	b.WriteString(strconv.Itoa(max(opts.Height, 0)))
	b.WriteByte('/')
	if opts.Smart {
		b.WriteString(smartSegment)
		b.WriteByte('/')
	}
	if len(opts.Filters) > 0 {
		b.WriteString(filtersPrefix)
		b.WriteString(strings.Join(opts.Filters, ":"))
		b.WriteByte('/')
	}
	b.WriteString(objectKey)
	return b.String()
}
