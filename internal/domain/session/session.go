package session

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/qbridge/internal/domain/intercept"
	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/shared/id"
)

// Node is the node API as seen by a session.
type Node interface {
	dispatch.Fetcher
	resource.StatusLookup
}

// Sink receives the events a session pushes to its page.
type Sink interface {
	Navigate(ctx context.Context, location string)
	Notify(ctx context.Context, n dispatch.Notice)
}

type nopSink struct{}

func (nopSink) Navigate(context.Context, string)        {}
func (nopSink) Notify(context.Context, dispatch.Notice) {}

// Observer collects dispatch and settle metrics.
type Observer interface {
	dispatch.Observer
	correlator.Observer
}

// Session is the bridge serving one page.
type Session struct {
	ID      id.SessionID
	Page    *page.Context
	Created time.Time

	ctx    context.Context
	cancel context.CancelFunc

	builder     *resource.Builder
	resolver    *resource.Resolver
	dispatcher  *dispatch.Dispatcher
	gateway     *dispatch.Gateway
	correlator  *correlator.Correlator
	interceptor *intercept.Interceptor
	ui          message.Poster
	logger      *logging.Logger
}

// Context is cancelled when the session closes.
func (s *Session) Context() context.Context { return s.ctx }

// Builder returns the page's URL builder.
func (s *Session) Builder() *resource.Builder { return s.builder }

// Resolver returns the page's scheme resolver.
func (s *Session) Resolver() *resource.Resolver { return s.resolver }

// Gateway reports whether UI-bound requests are filtered by the gateway.
func (s *Session) Gateway() bool { return s.gateway != nil }

// Request issues a correlated request with the action's default timeout.
func (s *Session) Request(ctx context.Context, req *message.Request) (any, error) {
	return s.correlator.Request(ctx, req)
}

// RequestWithTimeout issues a correlated request. A non-positive timeout
// selects the action's default.
func (s *Session) RequestWithTimeout(ctx context.Context, req *message.Request, timeout time.Duration) (any, error) {
	if timeout <= 0 {
		return s.correlator.Request(ctx, req)
	}
	return s.correlator.RequestWithTimeout(ctx, req, timeout)
}

// Envelope issues a correlated request and returns the wire envelope.
func (s *Session) Envelope(ctx context.Context, req *message.Request, timeout time.Duration) message.Envelope {
	return s.correlator.Envelope(ctx, req, timeout)
}

// Dispatch answers req synchronously. The bool is false when the request
// was dropped or belongs to the UI layer.
func (s *Session) Dispatch(ctx context.Context, req *message.Request) (message.Envelope, bool) {
	return s.dispatcher.Dispatch(ctx, req)
}

// Post hands a raw message to the dispatcher.
func (s *Session) Post(ctx context.Context, msg message.Message) {
	s.dispatcher.Post(ctx, msg)
}

// Click intercepts an anchor click.
func (s *Session) Click(ctx context.Context, href string) intercept.Decision {
	return s.interceptor.OnClick(ctx, href)
}

// ImageSource rewrites a scheme image source set after load.
func (s *Session) ImageSource(ctx context.Context, src string) (string, bool) {
	return s.interceptor.OnImageSrcChange(ctx, src)
}

// RewriteImages rewrites every scheme image source in doc.
func (s *Session) RewriteImages(ctx context.Context, doc *goquery.Document) int {
	return s.interceptor.RewriteImages(ctx, doc)
}

// Displayed tells the UI layer which app path the page is showing.
func (s *Session) Displayed(ctx context.Context, fullpath string) {
	req := message.NewRequest(message.ActionResourceDisplayed, map[string]any{
		"service":    s.Page.Service,
		"name":       s.Page.Name,
		"identifier": s.Page.Identifier,
		"path":       s.Page.RelativePath(fullpath),
	})
	s.logger.Debug("resource displayed", zap.String("path", req.Text("path")))
	s.ui.Post(ctx, message.Message{Request: req.ForUI()})
}

func (s *Session) close() {
	s.cancel()
}
