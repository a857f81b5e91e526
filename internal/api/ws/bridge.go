package ws

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/session"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// RoleBridge labels page connections in metrics.
const RoleBridge = "bridge"

// BridgeHandler serves the page side of the bridge. Each connection is
// one page session.
type BridgeHandler struct {
	sessions    *session.Manager
	defaultView page.ViewContext
	upgrader    *websocket.Upgrader
	observer    Observer
	logger      *logging.Logger
}

// NewBridgeHandler creates the page socket handler. Pages that do not
// name a view get defaultView.
func NewBridgeHandler(sessions *session.Manager, defaultView page.ViewContext, upgrader *websocket.Upgrader, observer Observer, logger *logging.Logger) *BridgeHandler {
	if observer == nil {
		observer = nopObserver{}
	}
	if upgrader == nil {
		upgrader = NewUpgrader(nil)
	}
	return &BridgeHandler{
		sessions:    sessions,
		defaultView: defaultView,
		upgrader:    upgrader,
		observer:    observer,
		logger:      logging.OrNop(logger).Named("ws.bridge"),
	}
}

// PageFromQuery reads the page context from bridge query parameters.
func PageFromQuery(c *gin.Context, defaultView page.ViewContext) (*page.Context, error) {
	view := defaultView
	if v := c.Query("view"); v != "" {
		parsed, err := page.ParseView(v)
		if err != nil {
			return nil, err
		}
		view = parsed
	}
	return page.New(view, c.Query("service"), c.Query("name"), c.Query("identifier"), c.Query("path"), c.Query("theme")), nil
}

// HandleConnection upgrades the request and runs the page session.
func (h *BridgeHandler) HandleConnection(c *gin.Context) {
	p, err := PageFromQuery(c, h.defaultView)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if p.Service == "" || p.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service and name are required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	pr := newPeer(conn)
	defer pr.close()
	go pr.keepalive()

	sess := h.sessions.Open(p, &pageSink{peer: pr})
	defer h.sessions.Close(sess.ID)

	logger := h.logger.With(
		zap.String("connection", pr.id.String()),
		zap.String("session", sess.ID.String()),
		zap.String("resource", p.ResourceID()))
	logger.Info("page connected", zap.String("view", string(p.View)))

	h.observer.ConnectionOpened(RoleBridge)
	defer h.observer.ConnectionClosed(RoleBridge)

	for {
		var frame Inbound
		if err := conn.ReadJSON(&frame); err != nil {
			if unexpectedClose(err) {
				logger.Warn("page read failed", zap.Error(err))
			}
			break
		}
		// Requests can wait on the UI layer; never block the read loop.
		go h.handle(sess, pr, frame, logger)
	}
	logger.Info("page disconnected")
}

func (h *BridgeHandler) handle(sess *session.Session, pr *peer, frame Inbound, logger *logging.Logger) {
	ctx := sess.Context()

	var out any
	switch frame.Type {
	case FrameRequest:
		out = h.request(ctx, sess, frame)
	case FrameClick:
		out = ClickFrame{Type: FrameClick, ID: frame.ID, Decision: sess.Click(ctx, frame.Href)}
	case FrameImage:
		src, ok := sess.ImageSource(ctx, frame.Src)
		out = ImageFrame{Type: FrameImage, ID: frame.ID, Src: src, OK: ok}
	case FrameDisplayed:
		sess.Displayed(ctx, frame.Path)
		return
	default:
		logger.Debug("unknown frame", zap.String("type", frame.Type))
		return
	}

	if err := pr.send(out); err != nil {
		logger.Debug("page write failed", zap.Error(err))
	}
}

func (h *BridgeHandler) request(ctx context.Context, sess *session.Session, frame Inbound) ResponseFrame {
	resp := ResponseFrame{Type: FrameResponse, ID: frame.ID}

	req, err := message.ParseRequest(frame.Request)
	if err != nil {
		env := correlator.ToEnvelope(nil, err)
		resp.Error = env.Error
		return resp
	}

	env := sess.Envelope(ctx, req, time.Duration(frame.Timeout)*time.Millisecond)
	resp.Result, resp.Error = env.Result, env.Error
	return resp
}

// pageSink pushes session events to the page.
type pageSink struct {
	peer *peer
}

func (s *pageSink) Navigate(_ context.Context, location string) {
	_ = s.peer.send(NavigateFrame{Type: FrameNavigate, Location: location})
}

func (s *pageSink) Notify(_ context.Context, n dispatch.Notice) {
	_ = s.peer.send(NoticeFrame{Type: FrameNotice, Notice: n})
}
