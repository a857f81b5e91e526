package dispatch

import (
	"context"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// Fetcher performs GET requests against the node API and returns the body.
type Fetcher interface {
	Get(ctx context.Context, path string) (string, error)
}

// Navigator moves the page to a new location.
type Navigator interface {
	Navigate(ctx context.Context, location string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(ctx context.Context, location string)

// Navigate calls f(ctx, location).
func (f NavigatorFunc) Navigate(ctx context.Context, location string) {
	f(ctx, location)
}

// Disposition is what the dispatcher decided to do with a message.
type Disposition string

const (
	DispositionDrop    Disposition = "drop"
	DispositionRelay   Disposition = "relay"
	DispositionLocal   Disposition = "local"
	DispositionFetch   Disposition = "fetch"
	DispositionForward Disposition = "forward"
	DispositionDeny    Disposition = "deny"
)

// Observer is told about every dispatch decision.
type Observer interface {
	ObserveDispatch(action string, d Disposition)
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(d *Dispatcher) { d.logger = logging.OrNop(l).Named("dispatch") }
}

// WithObserver sets the decision observer.
func WithObserver(o Observer) Option {
	return func(d *Dispatcher) { d.observer = o }
}

// WithNavigator sets where LINK_TO_QDN_RESOURCE sends the page.
func WithNavigator(n Navigator) Option {
	return func(d *Dispatcher) { d.nav = n }
}

// Dispatcher is the core request handler for one page.
type Dispatcher struct {
	routes   Table
	node     Fetcher
	ui       message.Poster
	builder  *resource.Builder
	nav      Navigator
	logger   *logging.Logger
	observer Observer
}

// New creates a dispatcher. Requests it cannot serve go to ui.
func New(routes Table, node Fetcher, ui message.Poster, builder *resource.Builder, opts ...Option) *Dispatcher {
	if ui == nil {
		ui = message.Drop
	}
	d := &Dispatcher{
		routes:  routes,
		node:    node,
		ui:      ui,
		builder: builder,
		logger:  logging.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Classify decides what happens to req without acting on it.
func (d *Dispatcher) Classify(req *message.Request) Disposition {
	return classify(d.routes, req)
}

func classify(routes Table, req *message.Request) Disposition {
	switch {
	case req.IsEmpty():
		return DispositionDrop
	case req.Action == "":
		return DispositionRelay
	case req.TargetsUI():
		return DispositionDrop
	}
	route, ok := routes.Lookup(req.Action)
	if !ok {
		return DispositionForward
	}
	if route.Kind == KindLocal {
		return DispositionLocal
	}
	return DispositionFetch
}

// Post handles a message. Node calls run on their own goroutine and answer
// on the message's reply channel; an empty node response sends the request
// on to the UI layer instead.
func (d *Dispatcher) Post(ctx context.Context, msg message.Message) {
	req := msg.Request
	disp := classify(d.routes, req)
	d.observe(req, disp)

	switch disp {
	case DispositionDrop:
		return

	case DispositionRelay:
		// A message without an action is a reply arriving on this channel.
		msg.Respond(ShapeValue(req.Map()))

	case DispositionForward:
		d.logger.Debug("forwarding to UI", zap.String("action", string(req.Action)))
		d.ui.Post(ctx, message.Message{Request: req.ForUI(), Reply: msg.Reply})

	case DispositionLocal:
		msg.Respond(d.local(ctx, req))

	case DispositionFetch:
		route, _ := d.routes.Lookup(req.Action)
		path, err := route.Target(req)
		if err != nil {
			msg.Respond(message.Fail(err.Error()))
			return
		}
		go d.fetchAsync(ctx, route, path, msg)
	}
}

func (d *Dispatcher) fetchAsync(ctx context.Context, route Route, path string, msg message.Message) {
	body, err := d.node.Get(ctx, path)
	if err != nil {
		d.logger.Warn("node request failed",
			zap.String("action", string(route.Action)),
			zap.String("path", path),
			zap.Error(err))
		msg.Respond(message.Fail(err.Error()))
		return
	}
	if body == "" {
		// Emptiness from the node is not authoritative; the UI may know.
		d.observe(msg.Request, DispositionForward)
		d.ui.Post(ctx, message.Message{Request: msg.Request.ForUI(), Reply: msg.Reply})
		return
	}
	msg.Respond(route.shape(body))
}

// Dispatch is the blocking variant of Post. It returns the envelope for
// requests answered here and false for anything that is dropped or belongs
// to the UI layer. An empty node response is reported as an error.
func (d *Dispatcher) Dispatch(ctx context.Context, req *message.Request) (message.Envelope, bool) {
	disp := classify(d.routes, req)
	d.observe(req, disp)

	switch disp {
	case DispositionRelay:
		return ShapeValue(req.Map()), true
	case DispositionLocal:
		return d.local(ctx, req), true
	case DispositionFetch:
		route, _ := d.routes.Lookup(req.Action)
		path, err := route.Target(req)
		if err != nil {
			return message.Fail(err.Error()), true
		}
		body, err := d.node.Get(ctx, path)
		if err != nil {
			return message.Fail(err.Error()), true
		}
		return route.shape(body), true
	default:
		return message.Envelope{}, false
	}
}

// local answers the actions computed from the page context.
func (d *Dispatcher) local(ctx context.Context, req *message.Request) message.Envelope {
	desc := resource.Descriptor{
		Service:    req.Text("service"),
		Name:       req.Text("name"),
		Identifier: req.Text("identifier"),
		Path:       req.Text("path"),
	}

	switch req.Action {
	case message.ActionGetResourceURL:
		return message.Success(d.builder.FetchURL(desc))

	case message.ActionLinkToResource:
		if desc.Service == "" {
			desc.Service = resource.DefaultService
		}
		location := d.builder.LinkURL(desc)
		if d.nav != nil {
			d.nav.Navigate(ctx, location)
		}
		return message.Success(location)
	}
	return message.Fail("no local handler for " + string(req.Action))
}

func (d *Dispatcher) observe(req *message.Request, disp Disposition) {
	if d.observer == nil {
		return
	}
	action := ""
	if req != nil {
		action = string(req.Action)
	}
	d.observer.ObserveDispatch(action, disp)
}
