package http

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/session"
	"github.com/GriffinCanCode/qbridge/internal/domain/ui"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/config"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/qbridge/internal/providers/render"
	"github.com/GriffinCanCode/qbridge/internal/providers/sandbox"
)

// NodeHealth reports the state of the node API client.
type NodeHealth interface {
	BreakerState() resilience.State
}

// Deps are the components the handlers serve.
type Deps struct {
	Sessions *session.Manager
	Hub      *ui.Hub
	Renderer *render.Renderer
	// Sandbox may be nil, which disables /sandbox/run.
	Sandbox *sandbox.Pool
	Node    NodeHealth
	Domains config.DomainMap
	// View and Theme apply to requests that do not name their own.
	View    page.ViewContext
	Theme   string
	Gateway bool
	Logger  *logging.Logger
}

// Handlers holds the HTTP handlers of the bridge.
type Handlers struct {
	sessions *session.Manager
	hub      *ui.Hub
	renderer *render.Renderer
	sandbox  *sandbox.Pool
	node     NodeHealth
	domains  config.DomainMap
	view     page.ViewContext
	theme    string
	gateway  bool
	started  time.Time
	logger   *logging.Logger
}

// NewHandlers creates the handlers.
func NewHandlers(d Deps) *Handlers {
	if d.View == "" {
		d.View = page.ViewRender
	}
	if d.Domains == nil {
		d.Domains = config.DomainMap{}
	}
	return &Handlers{
		sessions: d.Sessions,
		hub:      d.Hub,
		renderer: d.Renderer,
		sandbox:  d.Sandbox,
		node:     d.Node,
		domains:  d.Domains,
		view:     d.View,
		theme:    d.Theme,
		gateway:  d.Gateway,
		started:  time.Now(),
		logger:   logging.OrNop(d.Logger).Named("http"),
	}
}

// Health reports liveness and the node breaker state.
func (h *Handlers) Health(c *gin.Context) {
	status := "healthy"
	breaker := "unknown"
	if h.node != nil {
		state := h.node.BreakerState()
		breaker = state.String()
		if state == resilience.StateOpen {
			status = "degraded"
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      status,
		"node":        breaker,
		"ui_attached": h.hub.Attached(),
		"gateway":     h.gateway,
	})
}

// Snapshot is the JSON form of the bridge's runtime state.
type Snapshot struct {
	Timestamp     time.Time      `json:"timestamp"`
	UptimeSeconds float64        `json:"uptime_seconds"`
	Sessions      session.Stats  `json:"sessions"`
	UI            UIStats        `json:"ui"`
	Node          string         `json:"node"`
	Sandbox       *sandbox.Stats `json:"sandbox,omitempty"`
}

// UIStats describes the UI hub.
type UIStats struct {
	Attached int `json:"attached"`
	Pending  int `json:"pending"`
}

// Stats returns a runtime snapshot. Prometheus metrics are on /metrics.
func (h *Handlers) Stats(c *gin.Context) {
	snap := Snapshot{
		Timestamp:     time.Now(),
		UptimeSeconds: time.Since(h.started).Seconds(),
		Sessions:      h.sessions.Stats(),
		UI:            UIStats{Attached: h.hub.Attached(), Pending: h.hub.Pending()},
		Node:          "unknown",
	}
	if h.node != nil {
		snap.Node = h.node.BreakerState().String()
	}
	if h.sandbox != nil {
		stats := h.sandbox.Stats()
		snap.Sandbox = &stats
	}
	c.JSON(http.StatusOK, snap)
}

// ListSessions lists the live page sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	sessions := h.sessions.List()
	if sessions == nil {
		sessions = []session.Info{}
	}
	c.JSON(http.StatusOK, gin.H{
		"sessions": sessions,
		"stats":    h.sessions.Stats(),
	})
}

// PageParams names the page a request is made on behalf of.
type PageParams struct {
	View       string `json:"view" form:"view"`
	Service    string `json:"service" form:"service"`
	Name       string `json:"name" form:"name"`
	Identifier string `json:"identifier" form:"identifier"`
	Path       string `json:"path" form:"path"`
	Theme      string `json:"theme" form:"theme"`
}

func (h *Handlers) pageFor(p PageParams) (*page.Context, error) {
	view := h.view
	if p.View != "" {
		v, err := page.ParseView(p.View)
		if err != nil {
			return nil, err
		}
		view = v
	}
	return page.New(view, p.Service, p.Name, p.Identifier, p.Path, h.themeOr(p.Theme)), nil
}

func (h *Handlers) themeOr(theme string) string {
	if theme != "" {
		return theme
	}
	return h.theme
}
