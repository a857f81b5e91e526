package session

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

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

// UILayer hands out per-session posters to the privileged UI layer.
type UILayer interface {
	For(session id.SessionID) message.Poster
}

// Config holds the settings every session is built with.
type Config struct {
	Routes        dispatch.Table
	Timeouts      correlator.Timeouts
	Gateway       bool
	GatewayNotice string
}

// Info describes a live session.
type Info struct {
	ID       id.SessionID     `json:"id"`
	View     page.ViewContext `json:"view"`
	Resource string           `json:"resource"`
	Created  time.Time        `json:"created"`
}

// Stats counts sessions.
type Stats struct {
	Active int    `json:"active"`
	Opened uint64 `json:"opened"`
	Closed uint64 `json:"closed"`
}

// Manager owns the live sessions.
type Manager struct {
	sessions sync.Map
	node     Node
	ui       UILayer
	cfg      Config
	observer Observer
	logger   *logging.Logger
	opened   atomic.Uint64
	closed   atomic.Uint64
}

// NewManager creates a session manager. ui may be nil when no UI layer
// exists, in which case UI-bound requests are dropped.
func NewManager(node Node, ui UILayer, cfg Config, observer Observer, logger *logging.Logger) *Manager {
	if cfg.Routes == nil {
		cfg.Routes = dispatch.DirectRoutes
	}
	if cfg.Timeouts.Default <= 0 {
		cfg.Timeouts = correlator.DefaultTimeouts()
	}
	return &Manager{
		node:     node,
		ui:       ui,
		cfg:      cfg,
		observer: observer,
		logger:   logging.OrNop(logger).Named("session"),
	}
}

// Open builds the bridge for a page. sink may be nil.
func (m *Manager) Open(p *page.Context, sink Sink) *Session {
	if sink == nil {
		sink = nopSink{}
	}

	sid := id.NewSessionID()
	logger := m.logger.With(zap.String("session", sid.String()), zap.String("resource", p.ResourceID()))
	ctx, cancel := context.WithCancel(context.Background())

	s := &Session{
		ID:       sid,
		Page:     p,
		Created:  time.Now(),
		ctx:      ctx,
		cancel:   cancel,
		builder:  resource.NewBuilder(p),
		resolver: resource.NewResolver(m.node),
		logger:   logger,
	}

	s.ui = message.Drop
	if m.ui != nil {
		s.ui = m.ui.For(sid)
	}
	if m.cfg.Gateway {
		gopts := []dispatch.GatewayOption{dispatch.WithGatewayLogger(logger)}
		if m.cfg.GatewayNotice != "" {
			gopts = append(gopts, dispatch.WithNoticeText(m.cfg.GatewayNotice))
		}
		if m.observer != nil {
			gopts = append(gopts, dispatch.WithGatewayObserver(m.observer))
		}
		s.gateway = dispatch.NewGateway(m.notifier(sink), gopts...)
		s.ui = s.gateway
	}

	dopts := []dispatch.Option{
		dispatch.WithLogger(logger),
		dispatch.WithNavigator(dispatch.NavigatorFunc(sink.Navigate)),
	}
	copts := []correlator.Option{
		correlator.WithTimeouts(m.cfg.Timeouts),
		correlator.WithLogger(logger),
	}
	if m.observer != nil {
		dopts = append(dopts, dispatch.WithObserver(m.observer))
		copts = append(copts, correlator.WithObserver(m.observer))
	}

	s.dispatcher = dispatch.New(m.cfg.Routes, m.node, s.ui, s.builder, dopts...)
	s.correlator = correlator.New(s.dispatcher, copts...)
	s.interceptor = intercept.New(s.resolver, s.builder, s.correlator, logger)

	m.sessions.Store(sid, s)
	m.opened.Add(1)
	logger.Debug("session opened", zap.String("view", string(p.View)))
	return s
}

// noticeRecorder is implemented by observers that count gateway notices.
type noticeRecorder interface {
	RecordGatewayNotice()
}

func (m *Manager) notifier(sink Sink) dispatch.Notifier {
	rec, ok := m.observer.(noticeRecorder)
	if !ok {
		return dispatch.NotifierFunc(sink.Notify)
	}
	return dispatch.NotifierFunc(func(ctx context.Context, n dispatch.Notice) {
		rec.RecordGatewayNotice()
		sink.Notify(ctx, n)
	})
}

// Get returns a live session.
func (m *Manager) Get(sid id.SessionID) (*Session, bool) {
	v, ok := m.sessions.Load(sid)
	if !ok {
		return nil, false
	}
	return v.(*Session), true
}

// Close ends a session. It reports false for unknown ids.
func (m *Manager) Close(sid id.SessionID) bool {
	v, ok := m.sessions.LoadAndDelete(sid)
	if !ok {
		return false
	}
	s := v.(*Session)
	s.close()
	m.closed.Add(1)
	s.logger.Debug("session closed", zap.Duration("age", time.Since(s.Created)))
	return true
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.sessions.Range(func(k, _ any) bool {
		m.Close(k.(id.SessionID))
		return true
	})
}

// List describes the live sessions, oldest first.
func (m *Manager) List() []Info {
	var out []Info
	m.sessions.Range(func(_, v any) bool {
		s := v.(*Session)
		out = append(out, Info{
			ID:       s.ID,
			View:     s.Page.View,
			Resource: s.Page.ResourceID(),
			Created:  s.Created,
		})
		return true
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Stats returns session counters.
func (m *Manager) Stats() Stats {
	opened, closed := m.opened.Load(), m.closed.Load()
	return Stats{
		Active: int(opened - closed),
		Opened: opened,
		Closed: closed,
	}
}
