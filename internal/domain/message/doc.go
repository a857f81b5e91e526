// Package message defines the data model exchanged across the bridge.
//
// Embedded content issues a Request naming an Action. Every request is
// answered at most once with an Envelope delivered on its own single-use
// ReplyChannel.
//
// Wire Shapes:
//
//	request:  {"action": "GET_NAME_DATA", "name": "foo", "requestedHandler": "UI"}
//	envelope: {"result": {...}, "error": null}
//
// Components:
//   - Action: enumerated action tag
//   - Request: action plus arbitrary action-specific fields
//   - Envelope: result/error pair, exactly one non-null
//   - ReplyChannel: single-use delivery path, first send wins
//   - Message / Poster: a request bound to its reply channel, and anything
//     that accepts one
package message
