package dispatch

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// MissingFieldError reports a request field a path template requires.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return "missing required field: " + e.Field
}

type segment struct {
	literal  string
	field    string
	optional bool
	fallback string
}

// Template is a node API path with request field placeholders.
//
//	/arbitrary/{service}/{name}[/{identifier}]
//	/arbitrary/resource/properties/{service}/{name}/{identifier=default}
//
// A bracketed group is dropped when its field is absent; "=value" supplies a
// fallback for an absent field.
type Template struct {
	raw  string
	segs []segment
}

// ParseTemplate compiles a path template.
func ParseTemplate(raw string) (Template, error) {
	t := Template{raw: raw}
	rest := raw

	for rest != "" {
		switch {
		case rest[0] == '[':
			end := strings.IndexByte(rest, ']')
			if end < 0 {
				return Template{}, fmt.Errorf("template %q: unclosed group", raw)
			}
			seg, err := parsePlaceholder(rest[1:end])
			if err != nil {
				return Template{}, fmt.Errorf("template %q: %w", raw, err)
			}
			seg.optional = true
			t.segs = append(t.segs, seg)
			rest = rest[end+1:]

		default:
			next := strings.IndexByte(rest, '[')
			if next < 0 {
				next = len(rest)
			}
			chunk := rest[:next]
			for chunk != "" {
				open := strings.IndexByte(chunk, '{')
				if open < 0 {
					t.segs = append(t.segs, segment{literal: chunk})
					break
				}
				stop := strings.IndexByte(chunk[open:], '}')
				if stop < 0 {
					return Template{}, fmt.Errorf("template %q: unclosed placeholder", raw)
				}
				seg, err := parsePlaceholder(chunk[:open+stop+1])
				if err != nil {
					return Template{}, fmt.Errorf("template %q: %w", raw, err)
				}
				t.segs = append(t.segs, seg)
				chunk = chunk[open+stop+1:]
			}
			rest = rest[next:]
		}
	}
	return t, nil
}

// parsePlaceholder reads "prefix{field}" or "prefix{field=fallback}".
func parsePlaceholder(s string) (segment, error) {
	open := strings.IndexByte(s, '{')
	if open < 0 || !strings.HasSuffix(s, "}") {
		return segment{}, fmt.Errorf("bad placeholder %q", s)
	}
	seg := segment{literal: s[:open]}
	field := s[open+1 : len(s)-1]
	if name, fallback, ok := strings.Cut(field, "="); ok {
		field = name
		seg.fallback = fallback
	}
	if field == "" {
		return segment{}, fmt.Errorf("empty placeholder %q", s)
	}
	seg.field = field
	return seg, nil
}

// MustTemplate is ParseTemplate for static tables.
func MustTemplate(raw string) Template {
	t, err := ParseTemplate(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the template source.
func (t Template) String() string {
	return t.raw
}

// Render fills the template from the request fields.
func (t Template) Render(req *message.Request) (string, error) {
	var b strings.Builder
	for _, seg := range t.segs {
		if seg.field == "" {
			b.WriteString(seg.literal)
			continue
		}
		v, _ := req.Param(seg.field)
		if v == "" {
			v = seg.fallback
		}
		if v == "" {
			if seg.optional {
				continue
			}
			return "", &MissingFieldError{Field: seg.field}
		}
		b.WriteString(seg.literal)
		b.WriteString(url.PathEscape(v))
	}
	return b.String(), nil
}
