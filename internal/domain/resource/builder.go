package resource

import (
	"strings"

	"github.com/GriffinCanCode/qbridge/internal/domain/page"
)

// Descriptor identifies a resource. Empty fields are treated as absent.
type Descriptor struct {
	Service    string `json:"service"`
	Name       string `json:"name"`
	Identifier string `json:"identifier,omitempty"`
	Path       string `json:"path,omitempty"`
}

// Build produces the path for a descriptor under the given view context.
// It never fails: malformed input yields a malformed path.
func Build(view page.ViewContext, theme string, d Descriptor, isLink bool) string {
	var url string

	switch view {
	case page.ViewFetch:
		url = "/arbitrary/" + d.Service + "/" + d.Name
		if d.Identifier != "" {
			url += "/" + d.Identifier
		}
		if d.Path != "" {
			url += "?filepath=" + d.Path
		}
		// Fetch URLs are retrieved in-page, never navigated to.
		return url

	case page.ViewRender:
		url = "/render/" + d.Service + "/" + d.Name
		url = joinPath(url, d.Path)
		if d.Identifier != "" {
			url += "?identifier=" + d.Identifier
		}

	case page.ViewGateway:
		url = "/" + d.Service + "/" + d.Name
		if d.Identifier != "" {
			url += "/" + d.Identifier
		}
		url = joinPath(url, d.Path)

	default:
		// Mapped domains only serve websites, rooted at the name.
		url = "/" + d.Name
		url = joinPath(url, d.Path)
	}

	if isLink {
		if !strings.Contains(url, "?") {
			url += "?"
		}
		url += "&theme=" + theme
	}
	return url
}

func joinPath(url, path string) string {
	if path == "" {
		return url
	}
	if strings.HasPrefix(path, "/") {
		return url + path
	}
	return url + "/" + path
}

// Builder builds URLs for one page.
type Builder struct {
	page *page.Context
}

// NewBuilder binds a builder to a page context.
func NewBuilder(p *page.Context) *Builder {
	return &Builder{page: p}
}

// URL builds a URL using the page's view context.
func (b *Builder) URL(d Descriptor, isLink bool) string {
	return Build(b.page.View, b.page.Theme, d, isLink)
}

// FetchURL builds a direct data URL regardless of the page's view.
func (b *Builder) FetchURL(d Descriptor) string {
	return Build(page.ViewFetch, b.page.Theme, d, false)
}

// LinkURL builds a navigable URL using the page's view context.
func (b *Builder) LinkURL(d Descriptor) string {
	return b.URL(d, true)
}

// Page returns the bound page context.
func (b *Builder) Page() *page.Context {
	return b.page
}
