package sandbox

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/qbridge/internal/domain/correlator"
	"github.com/GriffinCanCode/qbridge/internal/domain/message"
)

type call struct {
	req     *message.Request
	timeout time.Duration
}

type fakeRequester struct {
	mu     sync.Mutex
	calls  []call
	result any
	err    error
	block  bool
}

func (f *fakeRequester) RequestWithTimeout(ctx context.Context, req *message.Request, timeout time.Duration) (any, error) {
	f.mu.Lock()
	f.calls = append(f.calls, call{req: req, timeout: timeout})
	f.mu.Unlock()
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return f.result, f.err
}

func newRuntime(t *testing.T, cfg Config) *Runtime {
	t.Helper()
	rt, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { rt.Close() })
	return rt
}

func TestExecuteValues(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	tests := []struct {
		name   string
		script string
		want   any
	}{
		{"integer", "40 + 2", int64(42)},
		{"string", "'hello'.toUpperCase()", "HELLO"},
		{"undefined", "undefined", nil},
		{"require removed", "typeof require", "undefined"},
		{"process removed", "typeof process", "undefined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := rt.Execute(context.Background(), tt.script, nil)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.Value)
		})
	}
}

func TestQortalRequestReturnsResult(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	req := &fakeRequester{result: map[string]any{"address": "QaliceAddr"}}

	res, err := rt.Execute(context.Background(), `
		var account = qortalRequest({action: "GET_USER_ACCOUNT"});
		account.address;
	`, req)
	require.NoError(t, err)
	assert.Equal(t, "QaliceAddr", res.Value)
	assert.Equal(t, 1, res.Requests)

	require.Len(t, req.calls, 1)
	assert.Equal(t, message.Action("GET_USER_ACCOUNT"), req.calls[0].req.Action)
	assert.Zero(t, req.calls[0].timeout)
}

func TestQortalRequestWithTimeout(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	req := &fakeRequester{result: "ok"}

	res, err := rt.Execute(context.Background(),
		`qortalRequestWithTimeout({action: "FETCH_QDN_RESOURCE", name: "alice", service: "WEBSITE"}, 1500)`, req)
	require.NoError(t, err)
	assert.Equal(t, "ok", res.Value)

	require.Len(t, req.calls, 1)
	assert.Equal(t, 1500*time.Millisecond, req.calls[0].timeout)
	assert.Equal(t, "alice", req.calls[0].req.Text("name"))
}

func TestQortalRequestThrowsReplyError(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())
	req := &fakeRequester{err: &correlator.RequestError{Action: "SEND_COIN", Value: "User declined request"}}

	res, err := rt.Execute(context.Background(), `
		var msg;
		try { qortalRequest({action: "SEND_COIN"}); } catch (e) { msg = e.message; }
		msg;
	`, req)
	require.NoError(t, err)
	assert.Equal(t, "User declined request", res.Value)

	_, err = rt.Execute(context.Background(), `qortalRequest({action: "SEND_COIN"})`, req)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "User declined request")
}

func TestQortalRequestRejectsNonObject(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	res, err := rt.Execute(context.Background(), `
		var name;
		try { qortalRequest("GET_USER_ACCOUNT"); } catch (e) { name = e.name; }
		name;
	`, &fakeRequester{})
	require.NoError(t, err)
	assert.Equal(t, "TypeError", res.Value)
}

func TestQortalRequestWithoutSession(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	_, err := rt.Execute(context.Background(), `qortalRequest({action: "GET_USER_ACCOUNT"})`, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no page session attached")
}

func TestExecuteTimeout(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	rt := newRuntime(t, cfg)

	start := time.Now()
	_, err := rt.Execute(context.Background(), `while (true) {}`, nil)
	assert.ErrorIs(t, err, ErrScriptTimeout)
	assert.Less(t, time.Since(start), 2*time.Second)

	// The interrupt must not leak into the next run.
	res, err := rt.Execute(context.Background(), `1`, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.Value)
}

func TestExecuteTimeoutWhileBlocked(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Timeout = 100 * time.Millisecond
	rt := newRuntime(t, cfg)

	_, err := rt.Execute(context.Background(), `qortalRequest({action: "GET_USER_ACCOUNT"})`, &fakeRequester{block: true})
	assert.ErrorIs(t, err, ErrScriptTimeout)
}

func TestConsoleCapture(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	res, err := rt.Execute(context.Background(), `console.log("hello", 1); console.warn("careful"); 0`, nil)
	require.NoError(t, err)
	require.Len(t, res.Console, 2)
	assert.Equal(t, "log", res.Console[0].Level)
	assert.Equal(t, "hello 1", res.Console[0].Message)
	assert.Equal(t, "warn", res.Console[1].Level)
}

func TestResetClearsState(t *testing.T) {
	rt := newRuntime(t, DefaultConfig())

	_, err := rt.Execute(context.Background(), `var leaked = 1`, nil)
	require.NoError(t, err)
	require.NoError(t, rt.Reset())

	res, err := rt.Execute(context.Background(), `typeof leaked`, nil)
	require.NoError(t, err)
	assert.Equal(t, "undefined", res.Value)
}

func TestClosedRuntime(t *testing.T) {
	rt, err := New(DefaultConfig())
	require.NoError(t, err)
	require.NoError(t, rt.Close())

	_, err = rt.Execute(context.Background(), `1`, nil)
	assert.Error(t, err)
}
