package render

import (
	"fmt"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/page"
)

// browserStub is the minimal window the shim touches. Timers only fire on
// fireTimers() and sockets stay CONNECTING until a test opens them.
const browserStub = `
var window = this;
var location = { protocol: "http:", host: "localhost:8000", pathname: "/render/WEBSITE/alice" };

var timers = [];
function setTimeout(fn, ms) { timers.push({ fn: fn, ms: ms, live: true }); return timers.length; }
function clearTimeout(id) { if (id && timers[id - 1]) { timers[id - 1].live = false; } }
function fireTimers() { timers.forEach(function (t) { if (t.live) { t.live = false; t.fn(); } }); }

function URLSearchParams() { this.toString = function () { return ""; }; }

var sockets = [];
function WebSocket(url) { this.url = url; this.readyState = WebSocket.CONNECTING; this.sent = []; sockets.push(this); }
WebSocket.CONNECTING = 0;
WebSocket.OPEN = 1;
WebSocket.CLOSING = 2;
WebSocket.CLOSED = 3;
WebSocket.prototype.send = function (data) { this.sent.push(JSON.parse(data)); };

var document = {
  documentElement: {},
  body: { appendChild: function () {} },
  addEventListener: function () {},
  getElementById: function () { return null; },
  createElement: function () { return { style: {}, appendChild: function () {} }; }
};

var observed = null;
function MutationObserver(fn) { observed = fn; }
MutationObserver.prototype.observe = function () {};
window.addEventListener = function () {};

var results = [];
function track(p) {
  p.then(function (v) { results.push({ ok: true, value: v }); },
         function (e) { results.push({ ok: false, error: e }); });
}

function openSocket() { sockets[0].readyState = WebSocket.OPEN; sockets[0].onopen({}); }
function deliver(frame) { sockets[0].onmessage({ data: JSON.stringify(frame) }); }

window._qdn = %s;
`

type outcome struct {
	OK    bool `json:"ok"`
	Value any  `json:"value"`
	Error any  `json:"error"`
}

func loadShim(t *testing.T) *goja.Runtime {
	t.Helper()
	cfg, err := sonic.ConfigStd.MarshalToString(BootstrapFor(&page.Context{
		Service: "WEBSITE",
		Name:    "alice",
		Theme:   "light",
	}, correlator.DefaultTimeouts()))
	require.NoError(t, err)

	vm := goja.New()
	_, err = vm.RunString(fmt.Sprintf(browserStub, cfg))
	require.NoError(t, err)
	_, err = vm.RunString(string(BridgeScript()))
	require.NoError(t, err)
	return vm
}

func eval(t *testing.T, vm *goja.Runtime, src string) goja.Value {
	t.Helper()
	v, err := vm.RunString(src)
	require.NoError(t, err)
	return v
}

func outcomes(t *testing.T, vm *goja.Runtime) []outcome {
	t.Helper()
	var out []outcome
	require.NoError(t, sonic.UnmarshalString(eval(t, vm, "JSON.stringify(results)").String(), &out))
	return out
}

func sentFrames(t *testing.T, vm *goja.Runtime) []map[string]any {
	t.Helper()
	var out []map[string]any
	require.NoError(t, sonic.UnmarshalString(eval(t, vm, "JSON.stringify(sockets[0].sent)").String(), &out))
	return out
}

func TestShimRejectsPendingCallsOnClose(t *testing.T) {
	vm := loadShim(t)

	eval(t, vm, `track(qortalRequest({ action: "GET_USER_ACCOUNT" }));`)
	assert.Empty(t, outcomes(t, vm), "queued until the socket opens")

	eval(t, vm, `sockets[0].readyState = WebSocket.CLOSED; sockets[0].onclose({});`)
	assert.Equal(t, []outcome{{Error: "Bridge connection closed"}}, outcomes(t, vm))
	assert.Empty(t, sentFrames(t, vm))
	assert.False(t, eval(t, vm, "timers[0].live").ToBoolean(), "timer cleared on settle")
}

func TestShimRejectsCallsAfterClose(t *testing.T) {
	vm := loadShim(t)

	eval(t, vm, `sockets[0].readyState = WebSocket.CLOSED;
track(qortalRequest({ action: "GET_BALANCE", address: "Q1" }));`)
	assert.Equal(t, []outcome{{Error: "Bridge connection closed"}}, outcomes(t, vm))
	assert.Empty(t, sentFrames(t, vm))
}

func TestShimTimesOutUnansweredCall(t *testing.T) {
	vm := loadShim(t)
	eval(t, vm, "openSocket();")

	eval(t, vm, `track(qortalRequestWithTimeout({ action: "GET_BALANCE" }, 50));`)
	assert.EqualValues(t, 5050, eval(t, vm, "timers[0].ms").ToInteger())

	eval(t, vm, "fireTimers();")
	assert.Equal(t, []outcome{{Error: "The request timed out"}}, outcomes(t, vm))

	eval(t, vm, `deliver({ type: "response", id: "1", result: 5 });`)
	assert.Len(t, outcomes(t, vm), 1, "late reply is ignored")
}

func TestShimWindowFollowsActionDefaults(t *testing.T) {
	vm := loadShim(t)
	eval(t, vm, "openSocket();")

	eval(t, vm, `track(qortalRequest({ action: "GET_USER_ACCOUNT" }));
track(qortalRequest({ action: "GET_BALANCE" }));`)
	assert.EqualValues(t, 3605000, eval(t, vm, "timers[0].ms").ToInteger())
	assert.EqualValues(t, 15000, eval(t, vm, "timers[1].ms").ToInteger())
}

func TestShimResponseSettlesCall(t *testing.T) {
	vm := loadShim(t)
	eval(t, vm, "openSocket();")

	eval(t, vm, `track(qortalRequest({ action: "GET_USER_ACCOUNT" }));
track(qortalRequest({ action: "SEND_COIN" }));`)
	frames := sentFrames(t, vm)
	require.Len(t, frames, 3)
	assert.Equal(t, "displayed", frames[0]["type"])
	assert.Equal(t, "1", frames[1]["id"])
	assert.Equal(t, "2", frames[2]["id"])

	eval(t, vm, `deliver({ type: "response", id: "1", result: { address: "Q1" } });
deliver({ type: "response", id: "2", result: null, error: { error: "User declined request" } });`)
	assert.Equal(t, []outcome{
		{OK: true, Value: map[string]any{"address": "Q1"}},
		{Error: map[string]any{"error": "User declined request"}},
	}, outcomes(t, vm))
	assert.False(t, eval(t, vm, "timers[0].live || timers[1].live").ToBoolean())
}

func TestShimRewritesNestedImages(t *testing.T) {
	vm := loadShim(t)
	eval(t, vm, "openSocket();")

	eval(t, vm, `
var img = { nodeType: 1, tagName: "IMG", src: "", getAttribute: function () { return "qortal://IMAGE/alice/logo"; } };
var div = { nodeType: 1, tagName: "DIV", querySelectorAll: function () { return [img]; } };
observed([{ type: "childList", addedNodes: [{ nodeType: 3 }, div] }]);`)

	frames := sentFrames(t, vm)
	require.Len(t, frames, 2)
	assert.Equal(t, map[string]any{"type": "image", "id": "1", "src": "qortal://IMAGE/alice/logo"}, frames[1])

	eval(t, vm, `deliver({ type: "image", id: "1", ok: true, src: "/render/IMAGE/alice/logo" });`)
	assert.Equal(t, "/render/IMAGE/alice/logo", eval(t, vm, "img.src").String())
}
