package dispatch

import (
	"context"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// GatewayError is returned for privileged actions viewed through a gateway.
const GatewayError = "Authentication was requested, but this is not yet supported when viewing via a gateway. " +
	"To use interactive features, please access using the Qortal UI desktop app. More info at: https://qortal.org"

// GatewayNotice is shown to the viewer the first time a privileged action is denied.
const GatewayNotice = "This app is powered by the Qortal blockchain. You are viewing in read-only mode. " +
	"To use interactive features, please access using the Qortal UI desktop app."

// LearnMoreURL is the external link offered by the notice.
const LearnMoreURL = "https://qortal.org"

// Restricted lists the actions a gateway refuses.
var Restricted = map[message.Action]struct{}{
	message.ActionGetUserAccount:   {},
	message.ActionPublishResource:  {},
	message.ActionSendChatMessage:  {},
	message.ActionJoinGroup:        {},
	message.ActionDeployAT:         {},
	message.ActionGetWalletBalance: {},
	message.ActionSendCoin:         {},
}

// IsRestricted reports whether a gateway refuses the action.
func IsRestricted(action message.Action) bool {
	_, ok := Restricted[action]
	return ok
}

// NoticeButton is one choice offered by a notice.
type NoticeButton struct {
	Label string `json:"label"`
	URL   string `json:"url,omitempty"`
}

// Notice is a dismissible message shown on the page.
type Notice struct {
	Text    string         `json:"text"`
	Buttons []NoticeButton `json:"buttons"`
}

// Notifier shows notices to the viewer.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, n Notice)

// Notify calls f(ctx, n).
func (f NotifierFunc) Notify(ctx context.Context, n Notice) {
	f(ctx, n)
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithNoticeText replaces the notice text. The text is sanitized.
func WithNoticeText(text string) GatewayOption {
	return func(g *Gateway) { g.text = text }
}

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *logging.Logger) GatewayOption {
	return func(g *Gateway) { g.logger = logging.OrNop(l).Named("gateway") }
}

// WithGatewayObserver sets the decision observer.
func WithGatewayObserver(o Observer) GatewayOption {
	return func(g *Gateway) { g.observer = o }
}

// Gateway is the read-only filter for UI-bound messages.
type Gateway struct {
	notifier Notifier
	policy   *bluemonday.Policy
	text     string
	once     sync.Once
	logger   *logging.Logger
	observer Observer
}

// NewGateway creates a gateway filter for one page.
func NewGateway(notifier Notifier, opts ...GatewayOption) *Gateway {
	g := &Gateway{
		notifier: notifier,
		policy:   bluemonday.UGCPolicy(),
		text:     GatewayNotice,
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Classify decides what the gateway does with req.
func (g *Gateway) Classify(req *message.Request) Disposition {
	if req.IsEmpty() || req.Action == "" || !req.TargetsUI() {
		return DispositionDrop
	}
	if IsRestricted(req.Action) {
		return DispositionDeny
	}
	return DispositionDrop
}

// Post refuses restricted actions and drops everything else.
func (g *Gateway) Post(ctx context.Context, msg message.Message) {
	disp := g.Classify(msg.Request)
	if g.observer != nil && msg.Request != nil {
		g.observer.ObserveDispatch(string(msg.Request.Action), disp)
	}

	if disp != DispositionDeny {
		if msg.Request != nil && msg.Request.TargetsUI() {
			g.logger.Debug("unhandled gateway message", zap.String("action", string(msg.Request.Action)))
		}
		return
	}

	msg.Respond(message.Fail(GatewayError))
	g.notify(ctx)
}

func (g *Gateway) notify(ctx context.Context) {
	if g.notifier == nil {
		return
	}
	g.once.Do(func() {
		g.notifier.Notify(ctx, Notice{
			Text: g.policy.Sanitize(g.text),
			Buttons: []NoticeButton{
				{Label: "Close"},
				{Label: "Learn more", URL: LearnMoreURL},
			},
		})
	})
}
