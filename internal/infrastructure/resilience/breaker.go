package resilience

import (
	"errors"
	"sync"
	"time"
)

var (
	// ErrCircuitOpen is returned while the breaker rejects calls.
	ErrCircuitOpen = errors.New("circuit breaker is open")
	// ErrTooManyTrials is returned when the half-open trial budget is spent.
	ErrTooManyTrials = errors.New("circuit breaker trial limit reached")
)

// State is the breaker position.
type State int

const (
	StateClosed State = iota
	StateHalfOpen
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateHalfOpen:
		return "half-open"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}

// Settings configures a Breaker. Zero values pick defaults.
type Settings struct {
	// Trials is how many calls half-open lets through, and how many must
	// succeed before closing again.
	Trials uint32
	// Window clears closed-state counts periodically.
	Window time.Duration
	// Cooldown is how long the breaker stays open.
	Cooldown time.Duration
	// Trip decides, after a failure, whether to open.
	Trip func(Counts) bool
	// IsFailure classifies call errors. Errors it rejects count as successes,
	// e.g. a 404 from a healthy node.
	IsFailure func(error) bool
	// OnStateChange observes transitions.
	OnStateChange func(name string, from, to State)
	// Now is the clock, for tests.
	Now func() time.Time
}

// Counts are the statistics of the current window.
type Counts struct {
	Requests             uint32
	TotalSuccesses       uint32
	TotalFailures        uint32
	ConsecutiveSuccesses uint32
	ConsecutiveFailures  uint32
}

// FailureRatio is failures over requests, or zero with no requests.
func (c Counts) FailureRatio() float64 {
	if c.Requests == 0 {
		return 0
	}
	return float64(c.TotalFailures) / float64(c.Requests)
}

// Breaker stops calling a dependency that keeps failing.
type Breaker struct {
	name string
	cfg  Settings

	mu         sync.Mutex
	state      State
	counts     Counts
	generation uint64
	deadline   time.Time
}

// New creates a closed breaker.
func New(name string, cfg Settings) *Breaker {
	if cfg.Trials == 0 {
		cfg.Trials = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if cfg.Trip == nil {
		cfg.Trip = func(c Counts) bool { return c.ConsecutiveFailures >= 5 }
	}
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool { return err != nil }
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &Breaker{
		name:     name,
		cfg:      cfg,
		deadline: cfg.Now().Add(cfg.Window),
	}
}

// Name returns the breaker name.
func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.advance(b.cfg.Now())
}

// Counts returns a copy of the window statistics.
func (b *Breaker) Counts() Counts {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.counts
}

// Allow reports whether a call would currently be admitted.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.advance(b.cfg.Now()) {
	case StateOpen:
		return ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.cfg.Trials {
			return ErrTooManyTrials
		}
	}
	return nil
}

// Do runs fn through the breaker.
func Do[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var zero T

	gen, err := b.admit()
	if err != nil {
		return zero, err
	}

	ok := false
	defer func() {
		if !ok {
			// fn panicked
			b.record(gen, false)
		}
	}()

	v, err := fn()
	ok = true
	b.record(gen, !b.cfg.IsFailure(err))
	return v, err
}

func (b *Breaker) admit() (uint64, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.advance(b.cfg.Now()) {
	case StateOpen:
		return b.generation, ErrCircuitOpen
	case StateHalfOpen:
		if b.counts.Requests >= b.cfg.Trials {
			return b.generation, ErrTooManyTrials
		}
	}
	b.counts.Requests++
	return b.generation, nil
}

func (b *Breaker) record(gen uint64, success bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.cfg.Now()
	state := b.advance(now)
	if gen != b.generation {
		// The outcome belongs to a window that has already ended.
		return
	}

	if success {
		b.counts.TotalSuccesses++
		b.counts.ConsecutiveSuccesses++
		b.counts.ConsecutiveFailures = 0
		if state == StateHalfOpen && b.counts.ConsecutiveSuccesses >= b.cfg.Trials {
			b.transition(StateClosed, now)
		}
		return
	}

	b.counts.TotalFailures++
	b.counts.ConsecutiveFailures++
	b.counts.ConsecutiveSuccesses = 0
	if state == StateHalfOpen || b.cfg.Trip(b.counts) {
		b.transition(StateOpen, now)
	}
}

// advance applies time-driven transitions. Callers hold mu.
func (b *Breaker) advance(now time.Time) State {
	switch b.state {
	case StateClosed:
		if now.After(b.deadline) {
			b.newWindow(now.Add(b.cfg.Window))
		}
	case StateOpen:
		if now.After(b.deadline) {
			b.transition(StateHalfOpen, now)
		}
	}
	return b.state
}

func (b *Breaker) transition(to State, now time.Time) {
	if b.state == to {
		return
	}
	from := b.state
	b.state = to

	switch to {
	case StateClosed:
		b.newWindow(now.Add(b.cfg.Window))
	case StateOpen:
		b.newWindow(now.Add(b.cfg.Cooldown))
	case StateHalfOpen:
		b.newWindow(time.Time{})
	}

	if b.cfg.OnStateChange != nil {
		b.cfg.OnStateChange(b.name, from, to)
	}
}

func (b *Breaker) newWindow(deadline time.Time) {
	b.generation++
	b.counts = Counts{}
	b.deadline = deadline
}
