package correlator

import (
	"time"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// DefaultTimeout applies to actions without an entry in the policy.
const DefaultTimeout = 10 * time.Second

// Timeouts maps actions to how long a caller waits for their reply.
type Timeouts struct {
	Default   time.Duration
	PerAction map[message.Action]time.Duration
}

// DefaultTimeouts gives interactive actions room for user confirmation.
func DefaultTimeouts() Timeouts {
	return Timeouts{
		Default: DefaultTimeout,
		PerAction: map[message.Action]time.Duration{
			message.ActionGetUserAccount:  time.Hour,
			message.ActionPublishResource: time.Hour,
			message.ActionFetchResource:   time.Minute,
			message.ActionSendChatMessage: time.Minute,
			message.ActionJoinGroup:       5 * time.Minute,
			message.ActionDeployAT:        5 * time.Minute,
			message.ActionSendCoin:        5 * time.Minute,
		},
	}
}

// For returns the timeout for an action.
func (t Timeouts) For(action message.Action) time.Duration {
	if d, ok := t.PerAction[action]; ok {
		return d
	}
	if t.Default > 0 {
		return t.Default
	}
	return DefaultTimeout
}
