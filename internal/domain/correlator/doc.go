// Package correlator is the client-facing request API.
//
// Each call allocates a single-use reply channel, posts the request with it,
// and waits for whichever comes first: the reply, the action's timeout, or
// cancellation of the caller's context. A reply that arrives after the call
// settled is dropped by the channel.
package correlator
