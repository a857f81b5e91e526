// Package dispatch routes inbound request messages.
//
// A message is either answered by a GET against the node API, computed
// in-process, forwarded to the privileged UI layer, or dropped. Which of
// these happens depends only on the action tag and the dispatch mode, and is
// described by a static route Table. Two tables exist: DirectRoutes speaks
// the node's resource paths (/addresses/..., /arbitrary/...), AppsRoutes the
// consolidated /apps query convention. They differ only in data.
//
// The Gateway type is the read-only counterpart: it only looks at messages
// addressed to the UI layer and answers privileged actions with a policy
// error plus a one-time notice to the viewer.
package dispatch
