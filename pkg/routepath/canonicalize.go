package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Location is a canonicalized navigation target.
type Location struct {
	// Path is the canonical path, always starting with "/".
	Path string

	// Query is the raw query string (without leading "?").
	Query string

	// Hash is the fragment (without leading "#").
	Hash string

	// Changed reports whether canonicalization rewrote the path.
	Changed bool
}

// FullPath rebuilds path, query and hash.
func (l Location) FullPath() string {
	var b strings.Builder
	b.WriteString(l.Path)
	if l.Query != "" {
		b.WriteByte('?')
		b.WriteString(l.Query)
	}
	if l.Hash != "" {
		b.WriteByte('#')
		b.WriteString(l.Hash)
	}
	return b.String()
}

// Path canonicalization errors.
var (
	ErrInvalidPath          = errors.New("invalid path")
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
	ErrEncodedSlash         = errors.New("encoded slash (%2F) in path segment")
)

// CanonicalizePath normalizes a navigation path.
//
// The following transformations are applied:
//   - Remove trailing slash (except for root "/")
//   - Collapse multiple slashes (/facility//42 → /facility/42)
//   - Remove "." segments
//   - Resolve ".." segments
//
// Backslashes, NUL bytes, invalid percent-escapes and ".." escaping the root
// are rejected. Query and hash are split off and kept verbatim.
func CanonicalizePath(input string) (Location, error) {
	rest, hash, _ := strings.Cut(input, "#")
	path, query, _ := strings.Cut(rest, "?")

	if path == "" {
		return Location{Path: "/", Query: query, Hash: hash, Changed: true}, nil
	}

	if strings.Contains(path, "\\") {
		return Location{}, ErrBackslashInPath
	}

	if strings.Contains(path, "\x00") || strings.Contains(strings.ToUpper(path), "%00") {
		return Location{}, ErrNullByteInPath
	}

	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Location{}, err
		}
	}

	original := path

	segments := strings.Split(path, "/")
	result := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(result) == 0 {
				return Location{}, ErrPathEscapesRoot
			}
			result = result[:len(result)-1]
		default:
			result = append(result, seg)
		}
	}

	path = "/" + strings.Join(result, "/")

	return Location{
		Path:    path,
		Query:   query,
		Hash:    hash,
		Changed: path != original,
	}, nil
}

// validatePercentEscapes checks that all percent-escapes are valid.
// Valid escapes are %XX where X is a hex digit (0-9, a-f, A-F).
func validatePercentEscapes(path string) error {
	i := 0
	for i < len(path) {
		if path[i] == '%' {
			if i+2 >= len(path) {
				return ErrInvalidPercentEscape
			}
			if !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
				return ErrInvalidPercentEscape
			}
			i += 3
		} else {
			i++
		}
	}
	return nil
}

// isHexDigit returns true if c is a valid hex digit.
func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

// DecodeSegment decodes a single path segment.
// A decoded "/" is rejected: a segment can never span two path levels.
func DecodeSegment(segment string) (string, error) {
	decoded, err := url.PathUnescape(segment)
	if err != nil {
		return "", ErrInvalidPercentEscape
	}
	if strings.Contains(decoded, "/") {
		return "", ErrEncodedSlash
	}
	return decoded, nil
}

// DecodePathSegments splits a canonical path and decodes every segment.
// The root path yields no segments.
func DecodePathSegments(path string) ([]string, error) {
	path = strings.Trim(path, "/")
	if path == "" {
		return nil, nil
	}

	segments := strings.Split(path, "/")
	result := make([]string, 0, len(segments))

	for _, seg := range segments {
		decoded, err := DecodeSegment(seg)
		if err != nil {
			return nil, err
		}
		result = append(result, decoded)
	}

	return result, nil
}

// ValidateNavPath canonicalizes a path received from an untrusted client.
//
// Navigation targets must be app-relative: they start with "/" and are
// never absolute URLs ("http://", "https://", "//").
func ValidateNavPath(path string) (Location, error) {
	if strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "//") {
		return Location{}, ErrInvalidPath
	}
	if !strings.HasPrefix(path, "/") {
		return Location{}, ErrInvalidPath
	}
	return CanonicalizePath(path)
}
