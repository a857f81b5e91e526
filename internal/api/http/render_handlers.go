package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/klauspost/compress/gzhttp"

	"github.com/GriffinCanCode/qbridge/internal/domain/page"
	"github.com/GriffinCanCode/qbridge/internal/domain/resource"
	"github.com/GriffinCanCode/qbridge/internal/providers/render"
)

// Render serves /render/:service/:name/*path.
func (h *Handlers) Render(c *gin.Context) {
	p := page.New(page.ViewRender,
		c.Param("service"), c.Param("name"), c.Query("identifier"),
		c.Param("path"), h.themeOr(c.Query("theme")))
	h.serve(c, p)
}

// Fallback serves hosts from the domain map and, in gateway mode, gateway
// paths of the form /[SERVICE/]name[/identifier][/path].
func (h *Handlers) Fallback(c *gin.Context) {
	if c.Request.Method != http.MethodGet && c.Request.Method != http.MethodHead {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}

	if name, ok := h.domains.Lookup(c.Request.Host); ok {
		p := page.New(page.ViewDomainMap, resource.DefaultService, name, "",
			c.Request.URL.Path, h.themeOr(c.Query("theme")))
		h.serve(c, p)
		return
	}

	if h.gateway {
		d, err := h.renderer.Resolver().ParseGatewayPath(c.Request.Context(), c.Request.URL.Path)
		switch {
		case errors.Is(err, resource.ErrIncomplete):
			c.String(http.StatusNotFound, render.NotFoundText)
			return
		case err != nil:
			c.String(http.StatusInternalServerError, render.ServerErrorText)
			return
		}
		p := page.New(page.ViewGateway, d.Service, d.Name, d.Identifier, d.Path, h.themeOr(c.Query("theme")))
		h.serve(c, p)
		return
	}

	c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
}

// BridgeScript serves the page shim.
func (h *Handlers) BridgeScript(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", render.BridgeScript())
}

func (h *Handlers) serve(c *gin.Context, p *page.Context) {
	res := h.renderer.Render(c.Request.Context(), p)
	gzhttp.GzipHandler(res).ServeHTTP(c.Writer, c.Request)
}
