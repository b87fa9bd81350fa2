// Package qr turns arbitrary scanned input into canonical sticker keys.
package qr

import (
	"net/url"
	"strings"
)

// queryParams are the query parameter names a code may hide behind,
// checked in priority order.
var queryParams = []string{"code", "qr", "codeId", "qrCodeId"}

// Normalize reduces a scanned or typed string to its canonical key: only
// ASCII letters and digits, uppercased. The input may be a bare code, a
// full URL with the code in a query parameter or path segment, or a
// deep-link URI. An empty result means no extractable code; callers must
// check for it. Normalize is idempotent and has no failure modes.
func Normalize(raw string) string {
	candidate := strings.TrimSpace(raw)

	if u, err := url.Parse(candidate); err == nil {
		candidate = extract(u, candidate)
	} else {
		// Not a URL at all; treat as a bare code, dropping any
		// trailing query string or fragment.
		if i := strings.IndexAny(candidate, "?#"); i >= 0 {
			candidate = candidate[:i]
		}
	}

	var b strings.Builder
	b.Grow(len(candidate))
	for _, r := range candidate {
		switch {
		case r >= 'a' && r <= 'z':
			b.WriteRune(r - ('a' - 'A'))
		case (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'):
			b.WriteRune(r)
		}
	}
	return b.String()
}

// extract picks the code-bearing part of a parsed URL.
func extract(u *url.URL, fallback string) string {
	q := u.Query()
	for _, name := range queryParams {
		if v := q.Get(name); v != "" {
			return v
		}
	}

	// Last non-empty path segment.
	for _, seg := range splitReverse(u.Path) {
		if seg != "" {
			return seg
		}
	}

	// Opaque deep links (scheme:code) carry the code directly.
	if u.Opaque != "" {
		return u.Opaque
	}

	// A real URL with nothing extractable has no code; only bare input
	// falls through as-is.
	if u.IsAbs() {
		return ""
	}

	if i := strings.IndexAny(fallback, "?#"); i >= 0 {
		fallback = fallback[:i]
	}
	return fallback
}

func splitReverse(path string) []string {
	segs := strings.Split(path, "/")
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}
