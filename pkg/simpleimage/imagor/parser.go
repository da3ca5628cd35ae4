package imagor

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseSegments joins raw path segments with "/" and parses the result.
// Segments are joined first because any of the optional transform segments
// may be absent.
func ParseSegments(segments []string) (string, Options, error) {
	return ParsePath(strings.Join(segments, "/"))
}

// ParsePath is the inverse of CanonicalPath. It reads, in order, an optional
// "fit-in/", an optional "<W>x<H>/", an optional "smart/", an optional
// "filters:<spec>/" and takes the remainder as the object key.
//
// Errors wrap ErrBadFormat. A leading segment that starts with a digit and
// contains an "x" is treated as a size and must be <digits>x<digits>.
func ParsePath(path string) (string, Options, error) {
	var opts Options
	rest := strings.TrimPrefix(path, "/")
	if rest == "" {
		return "", opts, fmt.Errorf("%w: empty path", ErrBadFormat)
	}

	if _, tail, ok := consumeLiteral(rest, fitInSegment); ok {
		opts.Fit = FitIn
		rest = tail
	}

	if seg, tail, ok := nextSegment(rest); ok && looksLikeSize(seg) {
		width, height, err := parseSize(seg)
		if err != nil {
			return "", Options{}, err
		}
		opts.Width, opts.Height = width, height
		rest = tail
	}

	if _, tail, ok := consumeLiteral(rest, smartSegment); ok {
		opts.Smart = true
		rest = tail
	}

	if seg, tail, ok := nextSegment(rest); ok && strings.HasPrefix(seg, filtersPrefix) {
		spec := strings.TrimPrefix(seg, filtersPrefix)
		if spec == "" {
			return "", Options{}, fmt.Errorf("%w: empty filters", ErrBadFormat)
		}
		opts.Filters = strings.Split(spec, ":")
		rest = tail
	}

	if rest == "" {
		return "", Options{}, fmt.Errorf("%w: missing object key", ErrBadFormat)
	}
	return rest, opts, nil
}

// nextSegment splits off the first "/"-terminated segment. A final segment
// without a trailing "/" belongs to the object key and is never consumed.
func nextSegment(path string) (seg, tail string, ok bool) {
	seg, tail, ok = strings.Cut(path, "/")
	if !ok {
		return "", path, false
	}
	return seg, tail, true
}

func consumeLiteral(path, literal string) (string, string, bool) {
	seg, tail, ok := nextSegment(path)
	if !ok || seg != literal {
		return "", path, false
	}
	return seg, tail, true
}

func looksLikeSize(seg string) bool {
	return seg != "" && seg[0] >= '0' && seg[0] <= '9' && strings.Contains(seg, "x")
}

func parseSize(seg string) (int, int, error) {
	w, h, _ := strings.Cut(seg, "x")
	if !isDigits(w) || !isDigits(h) {
		return 0, 0, fmt.Errorf("%w: invalid size %q", ErrBadFormat, seg)
	}
	width, err := strconv.Atoi(w)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid width %q", ErrBadFormat, w)
	}
	height, err := strconv.Atoi(h)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: invalid height %q", ErrBadFormat, h)
	}
	return width, height, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ResolveRedirect parses an inbound transform path and returns the signed
// image-server URL for it. Errors wrap ErrBadFormat or ErrSigningUnavailable.
func (s *Signer) ResolveRedirect(path string) (string, error) {
	objectKey, opts, err := ParsePath(path)
	if err != nil {
		return "", err
	}
	target := s.Sign(objectKey, opts)
	if target == "" {
		return "", ErrSigningUnavailable
	}
	return target, nil
}
