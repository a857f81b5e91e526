// Package server wires configuration, the node client, sessions, the UI
// hub, the renderer and the sandbox into one gin engine.
package server
