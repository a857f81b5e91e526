package sandbox

import (
	"context"
	"time"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// Config defines sandbox configuration
type Config struct {
	Timeout       time.Duration // Script deadline, including time blocked on requests
	MaxCallStack  int           // goja call stack limit
	EnableConsole bool          // Capture console.log/warn/error/info
}

// Result holds execution result
type Result struct {
	Value    any           `json:"value"`
	Console  []LogEntry    `json:"console"`
	Requests int           `json:"requests"`
	Duration time.Duration `json:"duration"`
}

// LogEntry represents console output
type LogEntry struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	Time    time.Time `json:"time"`
}

// Requester settles bridge requests on behalf of a script. A page session
// satisfies it.
type Requester interface {
	RequestWithTimeout(ctx context.Context, req *message.Request, timeout time.Duration) (any, error)
}

// DefaultConfig returns the default sandbox configuration.
func DefaultConfig() Config {
	return Config{
		Timeout:       30 * time.Second,
		MaxCallStack:  1024,
		EnableConsole: true,
	}
}
