// Package node is the client for the local node API.
//
// Requests go through resty on top of a go-retryablehttp client, so
// transient connection failures and 5xx responses are retried with backoff.
// A token bucket limits the request rate and a circuit breaker fails fast
// while the node is unreachable. Response bodies are returned as text
// whatever the status code, since the node reports errors as JSON bodies.
package node
