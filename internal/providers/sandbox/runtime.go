package sandbox

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

// ErrScriptTimeout is returned when a script outlives its deadline.
var ErrScriptTimeout = errors.New("script execution timed out")

// Runtime wraps a goja VM exposing the bridge request API.
type Runtime struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	config Config

	consoleMu sync.Mutex
	console   []LogEntry

	// per-execution state, set while Execute holds mu
	ctx       context.Context
	requester Requester
	requests  int
}

// New creates a new sandboxed runtime
func New(config Config) (*Runtime, error) {
	if config.Timeout <= 0 {
		config.Timeout = DefaultConfig().Timeout
	}
	r := &Runtime{config: config}
	if err := r.setupGlobals(); err != nil {
		return nil, err
	}
	return r, nil
}

// Execute runs script. qortalRequest and qortalRequestWithTimeout block the
// script until requester settles, returning the result or throwing the
// reply's error.
func (r *Runtime) Execute(ctx context.Context, script string, requester Requester) (*Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.vm == nil {
		return nil, errors.New("sandbox runtime is closed")
	}

	execCtx, cancel := context.WithTimeout(ctx, r.config.Timeout)
	defer cancel()

	r.ctx = execCtx
	r.requester = requester
	r.requests = 0
	r.consoleMu.Lock()
	r.console = nil
	r.consoleMu.Unlock()

	vm := r.vm
	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-execCtx.Done():
			vm.Interrupt(ErrScriptTimeout)
		case <-done:
		}
	}()

	start := time.Now()
	val, err := vm.RunString(script)
	close(done)
	<-stopped
	vm.ClearInterrupt()

	result := &Result{
		Requests: r.requests,
		Duration: time.Since(start),
	}
	r.consoleMu.Lock()
	result.Console = append([]LogEntry{}, r.console...)
	r.consoleMu.Unlock()

	r.ctx, r.requester = nil, nil

	if err != nil {
		return result, scriptError(err, execCtx)
	}
	result.Value = exportValue(val)
	return result, nil
}

func scriptError(err error, ctx context.Context) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrScriptTimeout
	}
	var interrupted *goja.InterruptedError
	if errors.As(err, &interrupted) && ctx.Err() != nil {
		return ctx.Err()
	}
	var exception *goja.Exception
	if errors.As(err, &exception) {
		if obj, ok := exception.Value().(*goja.Object); ok {
			if msg := obj.Get("message"); msg != nil && !goja.IsUndefined(msg) {
				return fmt.Errorf("script error: %s", msg.String())
			}
		}
		return fmt.Errorf("script error: %s", exception.Value().String())
	}
	return fmt.Errorf("script error: %w", err)
}

// setupGlobals configures global objects and security
func (r *Runtime) setupGlobals() error {
	vm := goja.New()
	vm.SetFieldNameMapper(goja.TagFieldNameMapper("json", true))
	if r.config.MaxCallStack > 0 {
		vm.SetMaxCallStackSize(r.config.MaxCallStack)
	}

	for _, name := range []string{"require", "process", "module", "exports"} {
		if err := vm.Set(name, goja.Undefined()); err != nil {
			return err
		}
	}

	if r.config.EnableConsole {
		console := vm.NewObject()
		for _, level := range []string{"log", "info", "warn", "error"} {
			if err := console.Set(level, r.consoleFunc(level)); err != nil {
				return err
			}
		}
		if err := vm.Set("console", console); err != nil {
			return err
		}
	}

	// Scripts run to completion; there is no event loop to schedule on.
	noop := func(goja.FunctionCall) goja.Value { return goja.Undefined() }
	if err := vm.Set("setTimeout", noop); err != nil {
		return err
	}
	if err := vm.Set("setInterval", noop); err != nil {
		return err
	}

	if err := vm.Set("qortalRequest", func(call goja.FunctionCall) goja.Value {
		return r.request(call.Argument(0), 0)
	}); err != nil {
		return err
	}
	if err := vm.Set("qortalRequestWithTimeout", func(call goja.FunctionCall) goja.Value {
		ms := call.Argument(1).ToInteger()
		return r.request(call.Argument(0), time.Duration(ms)*time.Millisecond)
	}); err != nil {
		return err
	}

	r.vm = vm
	return nil
}

// request runs on the VM goroutine and blocks it until the reply settles.
func (r *Runtime) request(arg goja.Value, timeout time.Duration) goja.Value {
	fields, ok := exportValue(arg).(map[string]any)
	if !ok {
		panic(r.vm.NewTypeError("qortalRequest expects an object"))
	}
	if r.requester == nil {
		r.throw("no page session attached")
	}

	r.requests++
	result, err := r.requester.RequestWithTimeout(r.ctx, message.FromMap(fields), timeout)
	if err != nil {
		r.throw(err.Error())
	}
	return r.vm.ToValue(result)
}

// throw raises a plain JavaScript Error.
func (r *Runtime) throw(msg string) {
	ctor, ok := goja.AssertConstructor(r.vm.Get("Error"))
	if !ok {
		panic(r.vm.ToValue(msg))
	}
	obj, err := ctor(nil, r.vm.ToValue(msg))
	if err != nil {
		panic(r.vm.ToValue(msg))
	}
	panic(obj)
}

func (r *Runtime) consoleFunc(level string) func(goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		parts := make([]string, len(call.Arguments))
		for i, arg := range call.Arguments {
			parts[i] = arg.String()
		}

		r.consoleMu.Lock()
		r.console = append(r.console, LogEntry{
			Level:   level,
			Message: strings.Join(parts, " "),
			Time:    time.Now(),
		})
		r.consoleMu.Unlock()
		return goja.Undefined()
	}
}

func exportValue(val goja.Value) any {
	if val == nil || goja.IsUndefined(val) || goja.IsNull(val) {
		return nil
	}
	return val.Export()
}

// Reset discards all script state.
func (r *Runtime) Reset() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.consoleMu.Lock()
	r.console = nil
	r.consoleMu.Unlock()
	return r.setupGlobals()
}

// Close releases resources
func (r *Runtime) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.vm = nil
	r.console = nil
	return nil
}
