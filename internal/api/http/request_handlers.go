package http

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/domain/session"
	"github.com/GriffinCanCode/qbridge/internal/providers/sandbox"
)

// BridgeRequest is the body of /request and /request/sync.
type BridgeRequest struct {
	PageParams
	Request map[string]any `json:"request" binding:"required"`
	// Timeout is in milliseconds; zero picks the action's default.
	Timeout int64 `json:"timeout"`
}

// Request issues a correlated request on a one-off session and waits for
// its reply, which may come from the UI layer.
func (h *Handlers) Request(c *gin.Context) {
	sess, req, body, ok := h.openRequest(c)
	if !ok {
		return
	}
	defer h.sessions.Close(sess.ID)

	env := sess.Envelope(c.Request.Context(), req, time.Duration(body.Timeout)*time.Millisecond)
	c.JSON(http.StatusOK, env)
}

// RequestSync answers a request without waiting on the UI layer. Requests
// that only the UI layer can answer are rejected.
func (h *Handlers) RequestSync(c *gin.Context) {
	sess, req, _, ok := h.openRequest(c)
	if !ok {
		return
	}
	defer h.sessions.Close(sess.ID)

	env, handled := sess.Dispatch(c.Request.Context(), req)
	if !handled {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":  "request is not answered by the bridge",
			"action": string(req.Action),
		})
		return
	}
	c.JSON(http.StatusOK, env)
}

func (h *Handlers) openRequest(c *gin.Context) (*session.Session, *message.Request, *BridgeRequest, bool) {
	var body BridgeRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return nil, nil, nil, false
	}
	p, err := h.pageFor(body.PageParams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return nil, nil, nil, false
	}

	req := message.FromMap(body.Request)
	sess := h.sessions.Open(p, nil)
	h.logger.Debug("http request",
		zap.String("session", sess.ID.String()),
		zap.String("action", string(req.Action)))
	return sess, req, &body, true
}

// ResourceURL builds the URL of a resource without touching the node.
func (h *Handlers) ResourceURL(c *gin.Context) {
	var q PageParams
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if q.Service == "" || q.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "service and name are required"})
		return
	}
	p, err := h.pageFor(q)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d := resource.Descriptor{Service: p.Service, Name: p.Name, Identifier: p.Identifier, Path: p.Path}
	link := c.Query("link") == "true"
	c.JSON(http.StatusOK, gin.H{
		"url":        resource.Build(p.View, p.Theme, d, link),
		"descriptor": d,
	})
}

// ResolveRequest is the body of /resolve.
type ResolveRequest struct {
	Href  string `json:"href" binding:"required"`
	View  string `json:"view"`
	Theme string `json:"theme"`
	// Link builds a navigable URL instead of a data URL.
	Link bool `json:"link"`
}

// Resolve turns a qortal:// link into a descriptor and URL.
func (h *Handlers) Resolve(c *gin.Context) {
	var body ResolveRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	p, err := h.pageFor(PageParams{View: body.View, Theme: body.Theme})
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	d, err := h.renderer.Resolver().Extract(c.Request.Context(), body.Href)
	switch {
	case errors.Is(err, resource.ErrNotScheme), errors.Is(err, resource.ErrIncomplete):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	case err != nil:
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	b := resource.NewBuilder(p)
	url := b.FetchURL(*d)
	if body.Link {
		url = b.LinkURL(*d)
	}
	c.JSON(http.StatusOK, gin.H{"descriptor": d, "url": url})
}

// ScriptRequest is the body of /sandbox/run.
type ScriptRequest struct {
	PageParams
	Script string `json:"script" binding:"required"`
}

// RunScript runs a script with blocking qortalRequest calls against a
// one-off session.
func (h *Handlers) RunScript(c *gin.Context) {
	if h.sandbox == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "sandbox disabled"})
		return
	}

	var body ScriptRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	p, err := h.pageFor(body.PageParams)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess := h.sessions.Open(p, nil)
	defer h.sessions.Close(sess.ID)

	result, err := h.sandbox.Execute(c.Request.Context(), body.Script, sess)
	if err != nil {
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, sandbox.ErrScriptTimeout):
			status = http.StatusGatewayTimeout
		case errors.Is(err, sandbox.ErrPoolClosed), errors.Is(err, sandbox.ErrTimeout):
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error(), "result": result})
		return
	}
	c.JSON(http.StatusOK, result)
}
