package render

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var keepPrefixes = []string{
	"http",
	"//",
	"javascript:",
	"../",
	"qortal://",
	"data:",
	"blob:",
	"mailto:",
	"#",
}

var cssURL = regexp.MustCompile(`url\(\s*(['"]?)([^'")]*)(['"]?)\s*\)`)

// ShouldPrefix reports whether a link is relative to the resource and must
// be prefixed.
func ShouldPrefix(link string) bool {
	if link == "" {
		return false
	}
	for _, p := range keepPrefixes {
		if strings.HasPrefix(link, p) {
			return false
		}
	}
	return true
}

// LinkPrefix is the base relative links are rewritten under: the page base
// plus the directory of the requested file.
func LinkPrefix(base, inPath string) string {
	dir := ""
	if i := strings.LastIndex(inPath, "/"); i > 0 {
		dir = inPath[:i]
	}
	return base + dir
}

// Rewriter prefixes relative links in a document.
type Rewriter struct {
	prefix string
}

// NewRewriter creates a rewriter for prefix. An empty prefix still turns
// bare relative links into root-relative ones.
func NewRewriter(prefix string) *Rewriter {
	return &Rewriter{prefix: strings.TrimRight(prefix, "/")}
}

// Link prefixes a single link if needed.
func (r *Rewriter) Link(link string) string {
	if !ShouldPrefix(link) {
		return link
	}
	if strings.HasPrefix(link, "/") {
		return r.prefix + link
	}
	return r.prefix + "/" + link
}

// Srcset prefixes every candidate of a srcset value. The value is returned
// unchanged when no candidate needs a prefix.
func (r *Rewriter) Srcset(value string) string {
	parts := strings.Split(value, ",")
	changed := false
	for i, part := range parts {
		fields := strings.Fields(part)
		if len(fields) == 0 {
			continue
		}
		if link := r.Link(fields[0]); link != fields[0] {
			fields[0] = link
			changed = true
		}
		parts[i] = strings.Join(fields, " ")
	}
	if !changed {
		return value
	}
	return strings.Join(parts, ", ")
}

// Style prefixes every url() in an inline style.
func (r *Rewriter) Style(style string) string {
	return cssURL.ReplaceAllStringFunc(style, func(m string) string {
		sub := cssURL.FindStringSubmatch(m)
		link := sub[2]
		if !ShouldPrefix(link) {
			return m
		}
		return "url('" + r.Link(link) + "')"
	})
}

// Document rewrites href, src, srcset and style attributes and returns how
// many attributes changed.
func (r *Rewriter) Document(doc *goquery.Document) int {
	changed := 0
	apply := func(attr string, fn func(string) string) {
		doc.Find("[" + attr + "]").Each(func(_ int, s *goquery.Selection) {
			old, _ := s.Attr(attr)
			if updated := fn(old); updated != old {
				s.SetAttr(attr, updated)
				changed++
			}
		})
	}

	apply("href", r.Link)
	apply("src", r.Link)
	apply("srcset", r.Srcset)
	apply("style", func(v string) string {
		if !strings.Contains(v, "url(") {
			return v
		}
		return r.Style(v)
	})
	return changed
}
