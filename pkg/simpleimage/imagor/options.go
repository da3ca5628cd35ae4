package imagor

import "strings"

// Option is a functional option for configuring a Signer
type Option func(*Signer)

// WithImageHost sets the base URL of the image server.
// A trailing slash is dropped. Without a host, Sign returns an empty string.
func WithImageHost(host string) Option {
	return func(s *Signer) {
		s.imageHost = strings.TrimSuffix(strings.TrimSpace(host), "/")
	}
}

// WithSecret sets the HMAC key shared with the image server.
// An empty secret makes the signer emit unsafe URLs.
func WithSecret(secret string) Option {
	return func(s *Signer) {
		s.secret = []byte(secret)
	}
}
