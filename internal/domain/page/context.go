// Package page holds the ambient values a rendered app is viewed under.
//
// A Context is built once when a page is bootstrapped (a bridge connection
// opens, or a render request arrives) and is then passed by reference to
// everything that needs it. Nothing mutates it afterwards.
package page

import (
	"fmt"
	"strings"
)

// ViewContext selects the URL template used to address resources.
type ViewContext string

const (
	// ViewFetch addresses raw data through the node API for in-page retrieval.
	ViewFetch ViewContext = "fetch"
	// ViewRender addresses the rendering proxy.
	ViewRender ViewContext = "render"
	// ViewGateway addresses a public read-only gateway.
	ViewGateway ViewContext = "gateway"
	// ViewDomainMap addresses a website served under a mapped domain.
	ViewDomainMap ViewContext = "domainMap"
)

// DefaultTheme is used when a page does not request one.
const DefaultTheme = "light"

// ParseView converts a configuration or query value into a ViewContext.
func ParseView(s string) (ViewContext, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "fetch":
		return ViewFetch, nil
	case "", "render":
		return ViewRender, nil
	case "gateway":
		return ViewGateway, nil
	case "domainmap", "domain-map", "domain_map":
		return ViewDomainMap, nil
	default:
		return "", fmt.Errorf("unknown view context %q", s)
	}
}

// Context is the identity and viewing mode of the page being served.
type Context struct {
	View       ViewContext
	Service    string
	Name       string
	Identifier string
	Path       string
	// Base is the URL prefix the app is served under, used to turn in-app
	// navigation targets back into app-relative paths.
	Base  string
	Theme string
}

// New creates a page context, filling defaults.
func New(view ViewContext, service, name, identifier, path, theme string) *Context {
	if theme == "" {
		theme = DefaultTheme
	}
	c := &Context{
		View:       view,
		Service:    strings.ToUpper(service),
		Name:       name,
		Identifier: identifier,
		Path:       path,
		Theme:      theme,
	}
	c.Base = c.base()
	return c
}

func (c *Context) base() string {
	switch c.View {
	case ViewRender:
		return "/render/" + c.Service + "/" + c.Name
	case ViewGateway:
		b := "/" + c.Service + "/" + c.Name
		if c.Identifier != "" {
			b += "/" + c.Identifier
		}
		return b
	case ViewDomainMap:
		return ""
	default:
		return "/arbitrary/" + c.Service + "/" + c.Name
	}
}

// RelativePath strips the page base from a navigated path.
func (c *Context) RelativePath(fullpath string) string {
	if c.Base != "" && strings.HasPrefix(fullpath, c.Base) {
		return fullpath[len(c.Base):]
	}
	return fullpath
}

// ResourceID names the resource for logs.
func (c *Context) ResourceID() string {
	id := c.Service + "/" + c.Name
	if c.Identifier != "" {
		id += "/" + c.Identifier
	}
	return id
}
