// Package imagor builds and parses signed image-transform URLs for an
// Imagor-compatible image server.
//
// A transform URL has the form
//
//	<imageHost>/<signature|unsafe>/[fit-in/]<W>x<H>/[smart/][filters:f1:f2/]<objectKey>
//
// The signature is the URL-safe base64 HMAC-SHA1 of everything after the
// signature segment, keyed by a secret shared with the image server. The image
// server re-derives it on every request, so the canonical path built here must
// match its rules byte for byte.
//
// # Basic Usage
//
// Build a signed URL for an object:
//
//	signer := imagor.New(
//	    imagor.WithImageHost("https://img.example.com"),
//	    imagor.WithSecret(os.Getenv("IMAGOR_SECRET")),
//	)
//	url := signer.Sign("avatars/u1/f.jpg", imagor.Options{
//	    Width: 256, Height: 256, Smart: true,
//	    Filters: []string{"quality(85)"},
//	})
//	if url == "" {
//	    // no image host configured or empty key
//	}
//
// Redirect inbound /images/... requests to signed URLs:
//
//	r := chi.NewRouter()
//	imagor.NewHandlers(signer).Mount(r)
//
// # Unsafe URLs
//
// When no secret is configured every URL uses the literal "unsafe" segment in
// place of a signature. The image server only accepts these when it runs in
// unsafe mode, which is meant for local development.
package imagor
