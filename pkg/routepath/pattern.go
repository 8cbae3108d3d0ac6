package routepath

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// ErrMalformedPattern is wrapped by every PatternError.
var ErrMalformedPattern = errors.New("malformed route pattern")

// PatternError describes why a route pattern failed to parse.
type PatternError struct {
	// Pattern is the raw pattern.
	Pattern string

	// Offset is the byte offset in Pattern where the problem was found.
	Offset int

	// Reason is a short description of the problem.
	Reason string
}

// Error implements the error interface.
func (e *PatternError) Error() string {
	return fmt.Sprintf("route pattern %q: %s (offset %d)", e.Pattern, e.Reason, e.Offset)
}

// Unwrap returns ErrMalformedPattern.
func (e *PatternError) Unwrap() error {
	return ErrMalformedPattern
}

// Segment is one level of a route pattern.
type Segment struct {
	// Literal is the static text of a literal segment.
	Literal string

	// Param is the capture name of a parameter segment.
	Param string

	// Constraint is the regexp source a parameter value must fully match.
	// Empty means any non-empty value.
	Constraint string

	re *regexp.Regexp
}

// IsParam reports whether the segment captures a value.
func (s Segment) IsParam() bool {
	return s.Param != ""
}

// Accepts reports whether a decoded path segment satisfies the parameter.
func (s Segment) Accepts(value string) bool {
	if value == "" {
		return false
	}
	return s.re == nil || s.re.MatchString(value)
}

// Pattern is a parsed route pattern such as "/facility/:id".
//
// Syntax:
//
//	/about              literal segments
//	/facility/:id       named capture, any non-empty segment
//	/event/:id(\d+)     named capture constrained by a regexp
//
// Captures always span a whole segment. Optional, repeatable and
// catch-all parameters are not supported.
type Pattern struct {
	raw      string
	segments []Segment
	params   []string
}

// ParsePattern parses a route pattern.
// A single trailing slash is ignored.
func ParsePattern(raw string) (*Pattern, error) {
	if !strings.HasPrefix(raw, "/") {
		return nil, &PatternError{Pattern: raw, Offset: 0, Reason: `must start with "/"`}
	}
	if strings.HasPrefix(raw, "//") {
		return nil, &PatternError{Pattern: raw, Offset: 1, Reason: "empty segment"}
	}

	body := raw
	if len(body) > 1 && strings.HasSuffix(body, "/") && !strings.HasSuffix(body, `\/`) {
		body = body[:len(body)-1]
	}

	p := &Pattern{raw: raw}
	if body == "/" {
		return p, nil
	}

	bounds, err := splitPattern(raw, body)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	for _, b := range bounds {
		seg, err := parseSegment(raw, body[b[0]:b[1]], b[0])
		if err != nil {
			return nil, err
		}
		if seg.IsParam() {
			if seen[seg.Param] {
				return nil, &PatternError{Pattern: raw, Offset: b[0], Reason: fmt.Sprintf("duplicate parameter %q", seg.Param)}
			}
			seen[seg.Param] = true
			p.params = append(p.params, seg.Param)
		}
		p.segments = append(p.segments, seg)
	}

	return p, nil
}

// splitPattern returns [start, end) offsets of each segment in body, which
// starts with "/". Slashes inside a parenthesized constraint do not split.
func splitPattern(raw, body string) ([][2]int, error) {
	var bounds [][2]int
	depth := 0
	open := -1
	start := 1

	for i := 1; i < len(body); i++ {
		switch body[i] {
		case '\\':
			i++
		case '(':
			if depth == 0 {
				open = i
			}
			depth++
		case ')':
			depth--
			if depth < 0 {
				return nil, &PatternError{Pattern: raw, Offset: i, Reason: `unbalanced ")"`}
			}
		case '/':
			if depth == 0 {
				bounds = append(bounds, [2]int{start, i})
				start = i + 1
			}
		}
	}
	if depth > 0 {
		return nil, &PatternError{Pattern: raw, Offset: open, Reason: `unbalanced "("`}
	}

	return append(bounds, [2]int{start, len(body)}), nil
}

// parseSegment parses one segment found at offset in the raw pattern.
func parseSegment(raw, seg string, offset int) (Segment, error) {
	fail := func(at int, reason string) (Segment, error) {
		return Segment{}, &PatternError{Pattern: raw, Offset: offset + at, Reason: reason}
	}

	if seg == "" {
		return fail(0, "empty segment")
	}

	if seg[0] != ':' {
		if i := strings.IndexAny(seg, "()"); i >= 0 {
			return fail(i, "constraint without parameter name")
		}
		if i := strings.IndexByte(seg, ':'); i >= 0 {
			return fail(i, "parameter must span a whole segment")
		}
		if i := strings.IndexByte(seg, '*'); i >= 0 {
			return fail(i, "wildcard segments are not supported")
		}
		return Segment{Literal: seg}, nil
	}

	n := 1
	for n < len(seg) && isNameByte(seg[n], n == 1) {
		n++
	}
	if n == 1 {
		return fail(1, "missing parameter name")
	}

	s := Segment{Param: seg[1:n]}
	rest := seg[n:]
	if rest == "" {
		return s, nil
	}

	if rest[0] != '(' {
		switch rest[0] {
		case '?', '*', '+':
			return fail(n, "optional and repeatable parameters are not supported")
		}
		return fail(n, fmt.Sprintf("unexpected %q after parameter name", rest[0]))
	}

	end := closingParen(rest)
	if end != len(rest)-1 {
		return fail(n+end+1, "unexpected text after constraint")
	}

	s.Constraint = rest[1:end]
	if s.Constraint == "" {
		return fail(n, "empty constraint")
	}

	re, err := regexp.Compile(`^(?:` + s.Constraint + `)$`)
	if err != nil {
		return fail(n+1, "invalid constraint: "+err.Error())
	}
	s.re = re

	return s, nil
}

// closingParen returns the index of the parenthesis closing s[0].
// The segment is already known to be balanced.
func closingParen(s string) int {
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '\\':
			i++
		case '(':
			depth++
		case ')':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func isNameByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

// String returns the raw pattern.
func (p *Pattern) String() string {
	return p.raw
}

// Segments returns a copy of the parsed segments.
func (p *Pattern) Segments() []Segment {
	return append([]Segment(nil), p.segments...)
}

// ParamNames returns the capture names in segment order.
func (p *Pattern) ParamNames() []string {
	return append([]string(nil), p.params...)
}

// ParamCount returns the number of parameter segments.
func (p *Pattern) ParamCount() int {
	return len(p.params)
}

// Class identifies the set of concrete paths the pattern matches, ignoring
// capture names. Two patterns with the same class are ambiguous.
// With fold set, literals compare case-insensitively.
func (p *Pattern) Class(fold bool) string {
	if len(p.segments) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p.segments {
		b.WriteByte('/')
		if s.IsParam() {
			b.WriteString(":(")
			b.WriteString(s.Constraint)
			b.WriteByte(')')
			continue
		}
		lit := s.Literal
		if fold {
			lit = strings.ToLower(lit)
		}
		b.WriteString(url.PathEscape(lit))
	}
	return b.String()
}

// Build fills the pattern's captures from params and returns the path.
// Values are percent-encoded and must satisfy their constraints.
func (p *Pattern) Build(params map[string]string) (string, error) {
	if len(p.segments) == 0 {
		return "/", nil
	}

	parts := make([]string, 0, len(p.segments))
	for _, s := range p.segments {
		if !s.IsParam() {
			parts = append(parts, s.Literal)
			continue
		}
		v, ok := params[s.Param]
		if !ok || v == "" {
			return "", fmt.Errorf("route %q: missing parameter %q", p.raw, s.Param)
		}
		if !s.Accepts(v) {
			return "", fmt.Errorf("route %q: parameter %q value %q does not match %q", p.raw, s.Param, v, s.Constraint)
		}
		parts = append(parts, url.PathEscape(v))
	}

	return "/" + strings.Join(parts, "/"), nil
}
