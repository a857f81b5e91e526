package sandbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
)

var (
	ErrPoolClosed = errors.New("sandbox pool is closed")
	ErrTimeout    = errors.New("sandbox acquisition timeout")
)

// AcquireTimeout bounds how long Execute waits for a free runtime.
const AcquireTimeout = 5 * time.Second

// Stats describes pool occupancy.
type Stats struct {
	Size      int  `json:"size"`
	Available int  `json:"available"`
	InUse     int  `json:"in_use"`
	Closed    bool `json:"closed"`
}

// Pool manages a pool of reusable runtimes
type Pool struct {
	config    Config
	sandboxes chan *Runtime
	size      int
	logger    *logging.Logger

	mu     sync.RWMutex
	closed bool
}

// NewPool creates a runtime pool
func NewPool(config Config, size int, logger *logging.Logger) (*Pool, error) {
	if size <= 0 {
		size = 4
	}

	pool := &Pool{
		config:    config,
		sandboxes: make(chan *Runtime, size),
		size:      size,
		logger:    logging.OrNop(logger).Named("sandbox"),
	}

	for i := 0; i < size; i++ {
		rt, err := New(config)
		if err != nil {
			pool.Close()
			return nil, err
		}
		pool.sandboxes <- rt
	}

	return pool, nil
}

// Acquire gets a runtime from the pool
func (p *Pool) Acquire(ctx context.Context) (*Runtime, error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(AcquireTimeout)
	defer timer.Stop()

	select {
	case rt, ok := <-p.sandboxes:
		if !ok {
			return nil, ErrPoolClosed
		}
		return rt, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTimeout
	}
}

// Release resets a runtime and returns it to the pool
func (p *Pool) Release(rt *Runtime) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return rt.Close()
	}

	if err := rt.Reset(); err != nil {
		rt.Close()
		if fresh, err := New(p.config); err == nil {
			p.sandboxes <- fresh
		}
		return err
	}

	select {
	case p.sandboxes <- rt:
		return nil
	default:
		return rt.Close()
	}
}

// Execute runs script on a pooled runtime
func (p *Pool) Execute(ctx context.Context, script string, requester Requester) (*Result, error) {
	rt, err := p.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := p.Release(rt); err != nil {
			p.logger.Warn("sandbox reset failed", zap.Error(err))
		}
	}()

	result, err := rt.Execute(ctx, script, requester)
	if err != nil {
		p.logger.Debug("script failed", zap.Error(err))
	}
	return result, err
}

// Close closes pool and all runtimes
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.closed = true
	close(p.sandboxes)
	for rt := range p.sandboxes {
		rt.Close()
	}
	return nil
}

// Stats returns pool statistics
func (p *Pool) Stats() Stats {
	p.mu.RLock()
	defer p.mu.RUnlock()

	available := len(p.sandboxes)
	return Stats{
		Size:      p.size,
		Available: available,
		InUse:     p.size - available,
		Closed:    p.closed,
	}
}
