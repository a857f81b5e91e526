package correlator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

// TimeoutReason is the wire text reported for a request that timed out.
const TimeoutReason = "The request timed out"

// ErrTimeout is returned when no reply arrives within the action's timeout.
var ErrTimeout = errors.New("request timed out")

// RequestError carries the error value declared by the reply.
type RequestError struct {
	Action message.Action
	Value  any
}

func (e *RequestError) Error() string {
	switch v := e.Value.(type) {
	case string:
		return v
	case map[string]any:
		if msg, ok := v["message"].(string); ok {
			return msg
		}
		if msg, ok := v["error"].(string); ok {
			return msg
		}
	}
	b, err := json.Marshal(e.Value)
	if err != nil {
		return fmt.Sprint(e.Value)
	}
	return string(b)
}

// Outcome labels how a request settled.
type Outcome string

const (
	OutcomeResult    Outcome = "result"
	OutcomeError     Outcome = "error"
	OutcomeTimeout   Outcome = "timeout"
	OutcomeCancelled Outcome = "cancelled"
)

// Observer is notified once per settled request.
type Observer interface {
	ObserveRequest(action string, outcome string, elapsed time.Duration)
}

// Option configures a Correlator.
type Option func(*Correlator)

// WithTimeouts replaces the timeout policy.
func WithTimeouts(t Timeouts) Option {
	return func(c *Correlator) { c.timeouts = t }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Correlator) { c.logger = logging.OrNop(l).Named("correlator") }
}

// WithObserver sets the settle observer.
func WithObserver(o Observer) Option {
	return func(c *Correlator) { c.observer = o }
}

// Correlator posts requests and waits for their replies.
type Correlator struct {
	poster   message.Poster
	timeouts Timeouts
	logger   *logging.Logger
	observer Observer
}

// New creates a correlator that hands requests to poster.
func New(poster message.Poster, opts ...Option) *Correlator {
	c := &Correlator{
		poster:   poster,
		timeouts: DefaultTimeouts(),
		logger:   logging.Nop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Timeouts returns the active timeout policy.
func (c *Correlator) Timeouts() Timeouts {
	return c.timeouts
}

// Request sends req and waits up to the action's default timeout.
func (c *Correlator) Request(ctx context.Context, req *message.Request) (any, error) {
	return c.RequestWithTimeout(ctx, req, c.timeouts.For(req.Action))
}

// RequestWithTimeout sends req and waits up to timeout. A non-positive
// timeout falls back to the action's default.
func (c *Correlator) RequestWithTimeout(ctx context.Context, req *message.Request, timeout time.Duration) (any, error) {
	if req == nil {
		return nil, message.ErrMalformed
	}
	if timeout <= 0 {
		timeout = c.timeouts.For(req.Action)
	}

	start := time.Now()
	reply := message.NewReplyChannel()
	c.poster.Post(ctx, message.Message{Request: req, Reply: reply})

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case env, ok := <-reply.C():
		if !ok {
			c.settle(req.Action, OutcomeCancelled, start)
			return nil, context.Canceled
		}
		if env.Failed() {
			c.settle(req.Action, OutcomeError, start)
			return nil, &RequestError{Action: req.Action, Value: env.Error}
		}
		c.settle(req.Action, OutcomeResult, start)
		return env.Result, nil

	case <-timer.C:
		reply.Close()
		c.settle(req.Action, OutcomeTimeout, start)
		c.logger.Warn("request timed out",
			zap.String("action", string(req.Action)),
			zap.Duration("timeout", timeout))
		return nil, ErrTimeout

	case <-ctx.Done():
		reply.Close()
		c.settle(req.Action, OutcomeCancelled, start)
		return nil, ctx.Err()
	}
}

// Envelope runs Request and folds the outcome back into a reply envelope.
func (c *Correlator) Envelope(ctx context.Context, req *message.Request, timeout time.Duration) message.Envelope {
	result, err := c.RequestWithTimeout(ctx, req, timeout)
	return ToEnvelope(result, err)
}

// ToEnvelope converts a request outcome into its wire form.
func ToEnvelope(result any, err error) message.Envelope {
	var reqErr *RequestError
	switch {
	case err == nil:
		return message.Success(result)
	case errors.As(err, &reqErr):
		return message.Failure(reqErr.Value)
	case errors.Is(err, ErrTimeout):
		return message.Failure(TimeoutReason)
	default:
		return message.Failure(err.Error())
	}
}

func (c *Correlator) settle(action message.Action, outcome Outcome, start time.Time) {
	if c.observer != nil {
		c.observer.ObserveRequest(string(action), string(outcome), time.Since(start))
	}
}
