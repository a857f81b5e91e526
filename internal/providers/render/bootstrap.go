package render

import (
	_ "embed"
	"fmt"

	"github.com/PuerkitoBio/goquery"
	"github.com/bytedance/sonic"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
)

// ScriptPath is where the page shim is served.
const ScriptPath = "/bridge.js"

//go:embed assets/bridge.js
var bridgeScript []byte

// BridgeScript returns the page shim that connects to the bridge socket.
func BridgeScript() []byte {
	return bridgeScript
}

// Bootstrap is the page context handed to the shim.
type Bootstrap struct {
	View       string `json:"view"`
	Theme      string `json:"theme"`
	Service    string `json:"service"`
	Name       string `json:"name"`
	Identifier string `json:"identifier"`
	Path       string `json:"path"`
	Base       string `json:"base"`

	// Reply windows in milliseconds. The shim gives up on a call once the
	// bridge has had its full window to answer.
	Timeout  int64            `json:"timeout"`
	Timeouts map[string]int64 `json:"timeouts,omitempty"`
}

// BootstrapFor captures p and the reply windows for the shim.
func BootstrapFor(p *page.Context, t correlator.Timeouts) Bootstrap {
	perAction := make(map[string]int64, len(t.PerAction))
	for action, d := range t.PerAction {
		perAction[string(action)] = d.Milliseconds()
	}
	return Bootstrap{
		View:       string(p.View),
		Theme:      p.Theme,
		Service:    p.Service,
		Name:       p.Name,
		Identifier: p.Identifier,
		Path:       p.Path,
		Base:       p.Base,
		Timeout:    t.For("").Milliseconds(),
		Timeouts:   perAction,
	}
}

// Inject adds the page context and the shim to the start of <head>.
func Inject(doc *goquery.Document, p *page.Context, t correlator.Timeouts) error {
	cfg, err := sonic.ConfigStd.MarshalToString(BootstrapFor(p, t))
	if err != nil {
		return fmt.Errorf("encode bootstrap: %w", err)
	}

	head := doc.Find("head").First()
	if head.Length() == 0 {
		doc.Find("html").First().PrependHtml("<head></head>")
		head = doc.Find("head").First()
	}
	head.PrependHtml(fmt.Sprintf(`<script>window._qdn=%s;</script><script src="%s"></script>`, cfg, ScriptPath))
	return nil
}
