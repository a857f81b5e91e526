package render

import (
	"context"
	"errors"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/intercept"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/qbridge/internal/providers/node"
)

const (
	// HTMLPolicy is sent with rendered HTML.
	HTMLPolicy = "default-src 'self' 'unsafe-inline' 'unsafe-eval'; media-src 'self' data: blob:; " +
		"img-src 'self' data: blob:; connect-src 'self' ws: wss:; font-src 'self' data:;"
	// AssetPolicy is sent with every other file.
	AssetPolicy = "default-src 'self'"

	NotFoundText    = "Error 404: File Not Found"
	ServerErrorText = "Error 500: Internal Server Error"
	UnavailableText = "Node unavailable. Please try again later."
)

// Source is the node API as seen by the renderer.
type Source interface {
	Fetch(ctx context.Context, path string) (*node.Response, error)
	resource.StatusLookup
}

// Observer counts rendered responses.
type Observer interface {
	RecordRender(view, class string)
}

// Result is a rendered response.
type Result struct {
	Status      int
	ContentType string
	Policy      string
	Body        []byte
	// File is the resource path that was served, after index resolution.
	File string
}

// ServeHTTP writes the result.
func (r *Result) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	h := w.Header()
	if r.Policy != "" {
		h.Set("Content-Security-Policy", r.Policy)
	}
	if r.ContentType != "" {
		h.Set("Content-Type", r.ContentType)
	}
	h.Set("Content-Length", strconv.Itoa(len(r.Body)))
	w.WriteHeader(r.Status)
	_, _ = w.Write(r.Body)
}

// Class labels the result for metrics.
func (r *Result) Class() string {
	switch {
	case r.Status == http.StatusNotFound:
		return "not_found"
	case r.Status >= http.StatusInternalServerError:
		return "error"
	case r.Policy == HTMLPolicy:
		return "html"
	default:
		return "asset"
	}
}

// Option configures a Renderer.
type Option func(*Renderer)

// WithHTMLPatterns replaces the doublestar patterns of files parsed as HTML.
func WithHTMLPatterns(patterns ...string) Option {
	return func(r *Renderer) { r.htmlPatterns = patterns }
}

// WithObserver sets the metrics observer.
func WithObserver(o Observer) Option {
	return func(r *Renderer) { r.observer = o }
}

// WithTimeouts sets the reply windows advertised to the shim.
func WithTimeouts(t correlator.Timeouts) Option {
	return func(r *Renderer) { r.timeouts = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(r *Renderer) { r.logger = logging.OrNop(l).Named("render") }
}

// Renderer serves resource files with HTML rewritten for the bridge.
type Renderer struct {
	source       Source
	resolver     *resource.Resolver
	htmlPatterns []string
	observer     Observer
	timeouts     correlator.Timeouts
	logger       *logging.Logger
}

// New creates a renderer.
func New(source Source, opts ...Option) *Renderer {
	r := &Renderer{
		source:       source,
		resolver:     resource.NewResolver(source),
		htmlPatterns: DefaultHTMLPatterns,
		timeouts:     correlator.DefaultTimeouts(),
		logger:       logging.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolver returns the scheme resolver backed by the renderer's source.
func (r *Renderer) Resolver() *resource.Resolver {
	return r.resolver
}

// Render serves the file p.Path of the resource p names. Relative links in
// HTML are prefixed with the page base unless the page is domain mapped.
func (r *Renderer) Render(ctx context.Context, p *page.Context) *Result {
	res := r.render(ctx, p)
	if r.observer != nil {
		r.observer.RecordRender(string(p.View), res.Class())
	}
	return res
}

func (r *Renderer) render(ctx context.Context, p *page.Context) *Result {
	inPath := p.Path
	if !strings.HasPrefix(inPath, "/") {
		inPath = "/" + inPath
	}

	file, resp, err := r.locate(ctx, p, inPath)
	if err != nil {
		r.logger.Info("unable to load resource",
			zap.String("resource", p.ResourceID()),
			zap.String("path", inPath),
			zap.Error(err))
		if errors.Is(err, resilience.ErrCircuitOpen) {
			return textResult(http.StatusServiceUnavailable, UnavailableText)
		}
		return textResult(http.StatusInternalServerError, ServerErrorText)
	}
	if resp == nil {
		return textResult(http.StatusNotFound, NotFoundText)
	}

	contentType := r.contentType(file, resp)
	if !r.isHTML(file, contentType) {
		return &Result{
			Status:      http.StatusOK,
			ContentType: contentType,
			Policy:      AssetPolicy,
			Body:        resp.Body,
			File:        file,
		}
	}

	body, err := r.rewrite(ctx, p, inPath, resp.Body)
	if err != nil {
		r.logger.Warn("unable to rewrite html", zap.String("resource", p.ResourceID()), zap.Error(err))
		return textResult(http.StatusInternalServerError, ServerErrorText)
	}
	return &Result{
		Status:      http.StatusOK,
		ContentType: "text/html; charset=utf-8",
		Policy:      HTMLPolicy,
		Body:        body,
		File:        file,
	}
}

// locate fetches the requested file, trying index files for directories.
// A nil response with a nil error means not found.
func (r *Renderer) locate(ctx context.Context, p *page.Context, inPath string) (string, *node.Response, error) {
	candidates := []string{inPath}
	if strings.HasSuffix(inPath, "/") {
		candidates = candidates[:0]
		for _, index := range IndexFiles {
			candidates = append(candidates, inPath+index)
		}
	}

	for _, file := range candidates {
		resp, err := r.source.Fetch(ctx, dataPath(p, file))
		if err != nil {
			return "", nil, err
		}
		if resp.Status >= 200 && resp.Status < 300 {
			return file, resp, nil
		}
		if resp.Status >= http.StatusInternalServerError {
			return "", nil, &node.StatusError{Path: file, Status: resp.Status}
		}
	}
	return "", nil, nil
}

// dataPath addresses one file of a resource on the node.
func dataPath(p *page.Context, file string) string {
	u := "/arbitrary/" + url.PathEscape(p.Service) + "/" + url.PathEscape(p.Name)
	if p.Identifier != "" {
		u += "/" + url.PathEscape(p.Identifier)
	}
	return u + "?filepath=" + url.QueryEscape(strings.TrimPrefix(file, "/"))
}

func (r *Renderer) contentType(file string, resp *node.Response) string {
	if t := mime.TypeByExtension(path.Ext(file)); t != "" {
		return t
	}
	if t := resp.ContentType; t != "" && !strings.HasPrefix(t, "application/octet-stream") {
		return t
	}
	return mimetype.Detect(resp.Body).String()
}

func (r *Renderer) isHTML(file, contentType string) bool {
	if MatchesAny(r.htmlPatterns, file) {
		return true
	}
	return path.Ext(file) == "" && strings.HasPrefix(contentType, "text/html")
}

func (r *Renderer) rewrite(ctx context.Context, p *page.Context, inPath string, data []byte) ([]byte, error) {
	doc, err := LoadHTML(data)
	if err != nil {
		return nil, err
	}

	if p.View != page.ViewDomainMap {
		NewRewriter(LinkPrefix(p.Base, inPath)).Document(doc)
	}
	intercept.New(r.resolver, resource.NewBuilder(p), nil, r.logger).RewriteImages(ctx, doc)

	if err := Inject(doc, p, r.timeouts); err != nil {
		return nil, err
	}

	html, err := doc.Html()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}

func textResult(status int, text string) *Result {
	return &Result{
		Status:      status,
		ContentType: "text/plain; charset=utf-8",
		Body:        []byte(text),
	}
}
