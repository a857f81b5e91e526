package ws

import (
	"encoding/json"

	"github.com/GriffinCanCode/qbridge/internal/domain/dispatch"
	"github.com/GriffinCanCode/qbridge/internal/domain/intercept"
	"github.com/GriffinCanCode/qbridge/internal/domain/ui"
	"github.com/GriffinCanCode/qbridge/internal/shared/id"
)

// Frame types exchanged with pages.
const (
	FrameRequest   = "request"
	FrameResponse  = "response"
	FrameClick     = "click"
	FrameImage     = "image"
	FrameDisplayed = "displayed"
	FrameNavigate  = "navigate"
	FrameNotice    = "notice"
)

// Inbound is any frame sent by a page. Fields not used by Type are empty.
type Inbound struct {
	Type    string          `json:"type"`
	ID      string          `json:"id,omitempty"`
	Request json.RawMessage `json:"request,omitempty"`
	// Timeout is in milliseconds; zero picks the action's default.
	Timeout int64  `json:"timeout,omitempty"`
	Href    string `json:"href,omitempty"`
	Src     string `json:"src,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ResponseFrame settles a page request. Exactly one of Result and Error is
// non-null.
type ResponseFrame struct {
	Type   string `json:"type"`
	ID     string `json:"id"`
	Result any    `json:"result"`
	Error  any    `json:"error"`
}

// ClickFrame answers an intercepted click.
type ClickFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	intercept.Decision
}

// ImageFrame answers an image source check.
type ImageFrame struct {
	Type string `json:"type"`
	ID   string `json:"id"`
	Src  string `json:"src,omitempty"`
	OK   bool   `json:"ok"`
}

// NavigateFrame moves the page.
type NavigateFrame struct {
	Type     string `json:"type"`
	Location string `json:"location"`
}

// NoticeFrame shows a notice on the page.
type NoticeFrame struct {
	Type   string          `json:"type"`
	Notice dispatch.Notice `json:"notice"`
}

// DeliveryFrame hands a request to the UI layer.
type DeliveryFrame struct {
	Type string `json:"type"`
	ui.Delivery
}

// ReplyFrame is the UI layer's answer to a delivery.
type ReplyFrame struct {
	ID     id.RequestID `json:"id"`
	Result any          `json:"result"`
	Error  any          `json:"error"`
}
