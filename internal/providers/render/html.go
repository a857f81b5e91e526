package render

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// MaxHTMLSize limits HTML parsed in memory.
const MaxHTMLSize = 10 * 1024 * 1024

// DefaultHTMLPatterns select the files parsed as HTML.
var DefaultHTMLPatterns = []string{"**/*.{html,htm}"}

// IndexFiles are tried in order when a directory is requested.
var IndexFiles = []string{"index.html", "index.htm", "default.html", "default.htm", "home.html", "home.htm"}

// MatchesAny reports whether file matches one of the doublestar patterns.
func MatchesAny(patterns []string, file string) bool {
	file = strings.TrimPrefix(file, "/")
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, file); err == nil && ok {
			return true
		}
	}
	return false
}

// DetectCharset guesses the charset of data, lower-cased. A BOM or a
// <meta> declaration wins; otherwise the bytes are sniffed.
func DetectCharset(data []byte) string {
	if utf8.Valid(data) {
		return "utf-8"
	}
	// windows-1252 is also what DetermineEncoding falls back to.
	if _, name, certain := charset.DetermineEncoding(data, ""); certain || name != "windows-1252" {
		return name
	}
	detector := chardet.NewTextDetector()
	result, err := detector.DetectBest(data)
	if err != nil || result == nil {
		return "windows-1252"
	}
	return strings.ToLower(result.Charset)
}

// LoadHTML parses HTML, converting it to UTF-8 first.
func LoadHTML(data []byte) (*goquery.Document, error) {
	if len(data) > MaxHTMLSize {
		return nil, fmt.Errorf("html exceeds maximum size of %d bytes", MaxHTMLSize)
	}

	label := DetectCharset(data)
	if label == "utf-8" {
		return goquery.NewDocumentFromReader(bytes.NewReader(data))
	}

	utf8Reader, err := charset.NewReaderLabel(label, bytes.NewReader(data))
	if err != nil {
		// Unknown label; parse the bytes as they are.
		return goquery.NewDocumentFromReader(bytes.NewReader(data))
	}
	return goquery.NewDocumentFromReader(utf8Reader)
}
