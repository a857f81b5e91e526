package intercept

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// Requester issues correlated requests.
type Requester interface {
	Request(ctx context.Context, req *message.Request) (any, error)
}

// Decision is the outcome of intercepting a click.
type Decision struct {
	// PreventDefault suppresses the browser's own navigation.
	PreventDefault bool `json:"preventDefault"`
	// Location is where the page was sent instead, if anywhere.
	Location string `json:"location,omitempty"`
}

// Interceptor handles clicks and image sources for one page.
type Interceptor struct {
	resolver  *resource.Resolver
	builder   *resource.Builder
	requester Requester
	logger    *logging.Logger
}

// New creates an interceptor.
func New(resolver *resource.Resolver, builder *resource.Builder, requester Requester, logger *logging.Logger) *Interceptor {
	return &Interceptor{
		resolver:  resolver,
		builder:   builder,
		requester: requester,
		logger:    logging.OrNop(logger).Named("intercept"),
	}
}

// IsExternal reports whether href leaves the node.
func IsExternal(href string) bool {
	return strings.HasPrefix(href, "http://") ||
		strings.HasPrefix(href, "https://") ||
		strings.HasPrefix(href, "//")
}

// OnClick decides what happens when an anchor with href is clicked.
func (i *Interceptor) OnClick(ctx context.Context, href string) Decision {
	switch {
	case resource.IsSchemeLink(href):
		d, err := i.resolver.Extract(ctx, href)
		if err != nil {
			// The page has already cancelled navigation for the scheme.
			i.logger.Debug("unresolved link", zap.String("href", href), zap.Error(err))
			return Decision{PreventDefault: true}
		}
		return i.link(ctx, d)

	case IsExternal(href):
		return Decision{PreventDefault: true}

	default:
		return Decision{}
	}
}

// OnAnchorClick handles a click on sel or on anything nested in an anchor.
func (i *Interceptor) OnAnchorClick(ctx context.Context, sel *goquery.Selection) Decision {
	anchor := sel
	if goquery.NodeName(sel) != "a" {
		anchor = sel.Closest("a")
	}
	href, ok := anchor.Attr("href")
	if !ok {
		return Decision{}
	}
	return i.OnClick(ctx, href)
}

func (i *Interceptor) link(ctx context.Context, d *resource.Descriptor) Decision {
	req := message.NewRequest(message.ActionLinkToResource, map[string]any{
		"service": d.Service,
		"name":    d.Name,
	})
	if d.Identifier != "" {
		req.Set("identifier", d.Identifier)
	}
	if d.Path != "" {
		req.Set("path", d.Path)
	}

	decision := Decision{PreventDefault: true}
	result, err := i.requester.Request(ctx, req)
	if err != nil {
		i.logger.Warn("link request failed", zap.String("name", d.Name), zap.Error(err))
		return decision
	}
	if loc, ok := result.(string); ok {
		decision.Location = loc
	}
	return decision
}

// OnImageSrcChange returns the fetch URL for a scheme image source.
func (i *Interceptor) OnImageSrcChange(ctx context.Context, src string) (string, bool) {
	if !resource.IsSchemeLink(src) {
		return "", false
	}
	url, err := i.resolver.ConvertToResourceURL(ctx, i.builder, src, false)
	if err != nil {
		i.logger.Debug("unresolved image", zap.String("src", src), zap.Error(err))
		return "", false
	}
	return url, true
}

// RewriteImages rewrites every scheme image source in doc and returns how
// many were changed.
func (i *Interceptor) RewriteImages(ctx context.Context, doc *goquery.Document) int {
	rewritten := 0
	doc.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		src, _ := img.Attr("src")
		if url, ok := i.OnImageSrcChange(ctx, src); ok {
			img.SetAttr("src", url)
			rewritten++
		}
	})
	return rewritten
}
