package imagor

import "errors"

var (
	// ErrBadFormat is returned when an inbound image path does not match the transform grammar
	ErrBadFormat = errors.New("imagor: bad_format")

	// ErrSigningUnavailable is returned when a URL cannot be built, usually because no image host is configured
	ErrSigningUnavailable = errors.New("imagor: signing unavailable")

	// ErrInvalidSignature is returned when a signed path does not verify
	ErrInvalidSignature = errors.New("imagor: invalid signature")
)

// IsClientError reports whether err was caused by the request rather than the server configuration
func IsClientError(err error) bool {
	return errors.Is(err, ErrBadFormat) || errors.Is(err, ErrInvalidSignature)
}
