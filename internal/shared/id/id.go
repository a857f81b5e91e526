// Package id generates the identifiers used by the bridge.
//
// Page sessions, requests and spans use prefixed ULIDs so they sort by
// creation time and read well in logs (sess_*, req_*, span_*). WebSocket
// connections use random UUIDs because they are never ordered.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
)

// SessionID identifies one rendered page and its bridge.
type SessionID string

// RequestID identifies a single bridge request.
type RequestID string

// TraceID groups spans belonging to one inbound call.
type TraceID string

// SpanID identifies one traced operation.
type SpanID string

// ConnectionID identifies a WebSocket connection.
type ConnectionID string

const (
	SessionPrefix = "sess"
	RequestPrefix = "req"
	TracePrefix   = "trace"
	SpanPrefix    = "span"
)

// Generator produces ULIDs from a shared entropy source.
type Generator struct {
	mu      sync.Mutex
	entropy io.Reader
	now     func() time.Time
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator backed by crypto/rand with monotonic
// ordering inside a millisecond.
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
		now:     time.Now,
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source
// and clock. Tests use it for deterministic output.
func NewGeneratorWithEntropy(entropy io.Reader, now func() time.Time) *Generator {
	if now == nil {
		now = time.Now
	}
	return &Generator{entropy: entropy, now: now}
}

// Generate creates a new ULID.
func (g *Generator) Generate() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
}

// GenerateString creates a new ULID as a string.
func (g *Generator) GenerateString() string {
	return g.Generate().String()
}

// GenerateWithPrefix creates a prefixed ULID string.
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.GenerateString())
}

func NewSessionID() SessionID { return SessionID(Default().GenerateWithPrefix(SessionPrefix)) }
func NewRequestID() RequestID { return RequestID(Default().GenerateWithPrefix(RequestPrefix)) }
func NewTraceID() TraceID     { return TraceID(Default().GenerateWithPrefix(TracePrefix)) }
func NewSpanID() SpanID       { return SpanID(Default().GenerateWithPrefix(SpanPrefix)) }

// NewConnectionID returns a random connection identifier.
func NewConnectionID() ConnectionID {
	return ConnectionID(uuid.NewString())
}

func (id SessionID) String() string    { return string(id) }
func (id RequestID) String() string    { return string(id) }
func (id TraceID) String() string      { return string(id) }
func (id SpanID) String() string       { return string(id) }
func (id ConnectionID) String() string { return string(id) }

// IsValid reports whether s is a bare ULID.
func IsValid(s string) bool {
	_, err := ulid.Parse(s)
	return err == nil
}

// Split separates a prefixed identifier into prefix and ULID.
func Split(s string) (prefix string, u ulid.ULID, err error) {
	prefix, raw, ok := strings.Cut(s, "_")
	if !ok {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", s)
	}
	u, err = ulid.Parse(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("id %q: %w", s, err)
	}
	return prefix, u, nil
}

// Timestamp extracts the creation time of a prefixed or bare ULID.
func Timestamp(s string) (time.Time, error) {
	if _, u, err := Split(s); err == nil {
		return ulid.Time(u.Time()), nil
	}
	u, err := ulid.Parse(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
