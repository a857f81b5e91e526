// Package main is the entry point for the Q-Apps bridge server.
//
// The server sits between rendered Q-Apps and the node API. Pages connect
// over /bridge, the wallet UI attaches over /ui, and everything else is
// plain HTTP:
//
//	Page (iframe) → /bridge → dispatcher → node API
//	                                    → UI layer (/ui)
//
// Configuration:
//   - Environment variables, optionally from a dotenv file
//   - CLI flags (override env vars)
//
// Usage:
//
//	# Render proxy in front of a local node
//	./server -port 8000 -node http://localhost:12391
//
//	# Public gateway, debug logs
//	./server -gateway -dev
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
