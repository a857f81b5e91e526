/*
Package ws serves the two WebSocket endpoints of the bridge.

/bridge is opened by the shim injected into every rendered page. The query
string names the page (view, service, name, identifier, path, theme) and
the connection lives exactly as long as its session. Pages send request,
click, image and displayed frames; the bridge answers with response,
click and image frames carrying the page's id, and pushes navigate and
notice frames on its own.

/ui is opened by the privileged UI layer. It receives request frames
tagged with a request id and the originating session, and answers each
with {id, result, error}. The most recently attached UI layer receives
new requests; closing a UI connection fails the requests it still owes.
*/
package ws
