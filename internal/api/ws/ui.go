package ws

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/ui"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// RoleUI labels UI layer connections in metrics.
const RoleUI = "ui"

// UIHandler attaches UI layers to the hub.
type UIHandler struct {
	hub      *ui.Hub
	upgrader *websocket.Upgrader
	observer Observer
	logger   *logging.Logger
}

// NewUIHandler creates the UI socket handler.
func NewUIHandler(hub *ui.Hub, upgrader *websocket.Upgrader, observer Observer, logger *logging.Logger) *UIHandler {
	if observer == nil {
		observer = nopObserver{}
	}
	if upgrader == nil {
		upgrader = NewUpgrader(nil)
	}
	return &UIHandler{
		hub:      hub,
		upgrader: upgrader,
		observer: observer,
		logger:   logging.OrNop(logger).Named("ws.ui"),
	}
}

// HandleConnection upgrades the request and relays deliveries until the
// UI layer disconnects.
func (h *UIHandler) HandleConnection(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	pr := newPeer(conn)
	defer pr.close()
	go pr.keepalive()

	logger := h.logger.With(zap.String("connection", pr.id.String()))
	detach := h.hub.Attach(uiConn{peer: pr})
	defer detach()

	h.observer.ConnectionOpened(RoleUI)
	defer h.observer.ConnectionClosed(RoleUI)
	logger.Info("UI layer attached")

	for {
		var reply ReplyFrame
		if err := conn.ReadJSON(&reply); err != nil {
			if unexpectedClose(err) {
				logger.Warn("UI read failed", zap.Error(err))
			}
			break
		}
		if reply.ID == "" {
			logger.Debug("reply without id")
			continue
		}

		env := message.Envelope{Result: reply.Result, Error: reply.Error}
		if !h.hub.Resolve(reply.ID, env) {
			logger.Debug("reply for unknown request", zap.String("request_id", reply.ID.String()))
		}
	}
	logger.Info("UI layer detached")
}

type uiConn struct {
	peer *peer
}

func (c uiConn) Deliver(_ context.Context, d ui.Delivery) error {
	return c.peer.send(DeliveryFrame{Type: FrameRequest, Delivery: d})
}
