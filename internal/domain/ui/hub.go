package ui

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/shared/id"
)

// DisconnectedError is the reply for requests whose UI went away.
const DisconnectedError = "UI layer disconnected"

// ErrNoUI is reported when nothing is attached.
var ErrNoUI = errors.New("no UI layer attached")

// Delivery is a request handed to the UI layer.
type Delivery struct {
	ID      id.RequestID   `json:"id"`
	Session id.SessionID   `json:"session,omitempty"`
	Request map[string]any `json:"request"`
}

// Conn is an attached UI layer.
type Conn interface {
	Deliver(ctx context.Context, d Delivery) error
}

type pending struct {
	reply *message.ReplyChannel
	conn  Conn
	at    time.Time
}

// Hub forwards UI-targeted requests to the most recently attached UI layer
// and routes its replies back.
type Hub struct {
	mu      sync.Mutex
	conns   []Conn
	pending map[id.RequestID]pending
	maxAge  time.Duration
	now     func() time.Time
	logger  *logging.Logger
}

// Option configures a Hub.
type Option func(*Hub)

// WithMaxAge bounds how long an unanswered delivery is remembered.
func WithMaxAge(d time.Duration) Option {
	return func(h *Hub) { h.maxAge = d }
}

// WithClock replaces the clock.
func WithClock(now func() time.Time) Option {
	return func(h *Hub) { h.now = now }
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger, opts ...Option) *Hub {
	h := &Hub{
		pending: make(map[id.RequestID]pending),
		maxAge:  2 * time.Hour,
		now:     time.Now,
		logger:  logging.OrNop(logger).Named("ui"),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Attach registers a UI layer. The returned function detaches it and fails
// every request still waiting on it.
func (h *Hub) Attach(c Conn) (detach func()) {
	h.mu.Lock()
	h.conns = append(h.conns, c)
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.detach(c) })
	}
}

func (h *Hub) detach(c Conn) {
	h.mu.Lock()
	for i, conn := range h.conns {
		if conn == c {
			h.conns = append(h.conns[:i], h.conns[i+1:]...)
			break
		}
	}
	var orphaned []*message.ReplyChannel
	for rid, p := range h.pending {
		if p.conn == c {
			orphaned = append(orphaned, p.reply)
			delete(h.pending, rid)
		}
	}
	h.mu.Unlock()

	for _, reply := range orphaned {
		reply.Send(message.Fail(DisconnectedError))
	}
}

// Attached reports how many UI layers are connected.
func (h *Hub) Attached() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}

// Pending reports how many deliveries await a reply.
func (h *Hub) Pending() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}

// Post delivers msg without a session tag.
func (h *Hub) Post(ctx context.Context, msg message.Message) {
	h.deliver(ctx, "", msg)
}

// For returns a Poster that tags deliveries with the originating session.
func (h *Hub) For(session id.SessionID) message.Poster {
	return message.PosterFunc(func(ctx context.Context, msg message.Message) {
		h.deliver(ctx, session, msg)
	})
}

func (h *Hub) deliver(ctx context.Context, session id.SessionID, msg message.Message) {
	if msg.Request == nil {
		return
	}

	rid := id.NewRequestID()
	h.mu.Lock()
	h.expire()
	if len(h.conns) == 0 {
		h.mu.Unlock()
		h.logger.Debug("dropping UI request",
			zap.String("action", msg.Request.Action.String()),
			zap.Error(ErrNoUI))
		return
	}
	conn := h.conns[len(h.conns)-1]
	if msg.Reply != nil {
		h.pending[rid] = pending{reply: msg.Reply, conn: conn, at: h.now()}
	}
	h.mu.Unlock()

	d := Delivery{ID: rid, Session: session, Request: msg.Request.Map()}
	if err := conn.Deliver(ctx, d); err != nil {
		h.mu.Lock()
		delete(h.pending, rid)
		h.mu.Unlock()
		h.logger.Warn("UI delivery failed",
			zap.String("action", msg.Request.Action.String()),
			zap.Error(err))
	}
}

// Resolve hands the UI layer's reply to the waiting request. It reports
// false for unknown or already answered ids.
func (h *Hub) Resolve(rid id.RequestID, env message.Envelope) bool {
	h.mu.Lock()
	p, ok := h.pending[rid]
	delete(h.pending, rid)
	h.mu.Unlock()

	if !ok {
		return false
	}
	return p.reply.Send(env)
}

// expire forgets deliveries older than maxAge. Callers hold mu.
func (h *Hub) expire() {
	cutoff := h.now().Add(-h.maxAge)
	for rid, p := range h.pending {
		if p.at.Before(cutoff) {
			p.reply.Close()
			delete(h.pending, rid)
		}
	}
}
