package message

import (
	"context"
	"sync"
)

// ReplyChannel is a single-use, point-to-point delivery path for one
// Envelope. The first Send (or Close) wins; everything after is inert.
type ReplyChannel struct {
	ch   chan Envelope
	once sync.Once
}

// NewReplyChannel allocates a reply channel.
func NewReplyChannel() *ReplyChannel {
	return &ReplyChannel{ch: make(chan Envelope, 1)}
}

// Send delivers the envelope if nothing was delivered before. It never
// blocks and reports whether this call was the one that delivered.
func (r *ReplyChannel) Send(env Envelope) bool {
	if r == nil {
		return false
	}
	delivered := false
	r.once.Do(func() {
		r.ch <- env
		close(r.ch)
		delivered = true
	})
	return delivered
}

// Close shuts the channel without delivering anything.
func (r *ReplyChannel) Close() {
	if r == nil {
		return
	}
	r.once.Do(func() {
		close(r.ch)
	})
}

// C returns the receive side. It yields at most one envelope and is then
// closed.
func (r *ReplyChannel) C() <-chan Envelope {
	return r.ch
}

// Message couples a request with the channel its reply must travel on.
type Message struct {
	Request *Request
	Reply   *ReplyChannel
}

// Respond sends the envelope on the message's reply channel.
func (m Message) Respond(env Envelope) bool {
	return m.Reply.Send(env)
}

// Poster accepts messages for handling. Implementations must not block the
// caller on network work.
type Poster interface {
	Post(ctx context.Context, msg Message)
}

// PosterFunc adapts a function to the Poster interface.
type PosterFunc func(ctx context.Context, msg Message)

// Post calls f(ctx, msg).
func (f PosterFunc) Post(ctx context.Context, msg Message) {
	f(ctx, msg)
}

// Drop is a Poster that discards every message.
var Drop Poster = PosterFunc(func(context.Context, Message) {})
