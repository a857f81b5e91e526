package tracing

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/GriffinCanCode/qbridge/internal/infrastructure/logging"
	"github.com/GriffinCanCode/qbridge/internal/shared/id"
)

func observed() (*logging.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &logging.Logger{Logger: zap.New(core)}, logs
}

func TestStartSpanNesting(t *testing.T) {
	tracer := New("test", logging.Nop())
	defer tracer.Close()

	root, ctx := tracer.StartSpan(context.Background(), "root")
	assert.NotEmpty(t, root.TraceID)
	assert.Empty(t, root.ParentID)

	child, childCtx := tracer.StartSpan(ctx, "child")
	assert.Equal(t, root.TraceID, child.TraceID)
	assert.Equal(t, root.SpanID, child.ParentID)
	assert.Equal(t, child.SpanID, GetSpanID(childCtx))
	assert.Equal(t, root.TraceID, GetTraceID(childCtx))
}

func TestSpanRecording(t *testing.T) {
	tracer := New("test", logging.Nop())
	defer tracer.Close()

	span, _ := tracer.StartSpan(context.Background(), "op")
	span.SetTag("k", "v")
	span.Log("hello", map[string]any{"n": 1})
	span.SetError(errors.New("boom"))
	span.Finish()

	assert.Equal(t, "v", span.Tags["k"])
	assert.Len(t, span.Logs, 1)
	assert.Equal(t, http.StatusInternalServerError, span.StatusCode)
	assert.False(t, span.EndTime.Before(span.StartTime))

	span.SetStatus(http.StatusBadGateway)
	span.SetError(errors.New("again"))
	assert.Equal(t, http.StatusBadGateway, span.StatusCode)
}

func TestSubmitLogsSpans(t *testing.T) {
	logger, logs := observed()
	tracer := New("test", logger)

	ok, _ := tracer.StartSpan(context.Background(), "ok")
	ok.Finish()
	tracer.Submit(ok)

	bad, _ := tracer.StartSpan(context.Background(), "bad")
	bad.SetError(errors.New("boom"))
	bad.Finish()
	tracer.Submit(bad)

	tracer.Close()
	tracer.Submit(ok)

	require.Equal(t, 2, logs.Len())
	assert.Equal(t, "span completed", logs.All()[0].Message)
	assert.Equal(t, "span completed with error", logs.All()[1].Message)
	assert.Equal(t, zapcore.ErrorLevel, logs.All()[1].Level)
}

func TestPropagation(t *testing.T) {
	in := http.Header{}
	in.Set(TraceHeader, "trace_x")
	in.Set(SpanHeader, "span_y")

	ctx := Extract(context.Background(), in)
	assert.Equal(t, id.TraceID("trace_x"), GetTraceID(ctx))
	assert.Equal(t, id.SpanID("span_y"), GetSpanID(ctx))

	out := http.Header{}
	Inject(ctx, out)
	assert.Equal(t, "trace_x", out.Get(TraceHeader))
	assert.Equal(t, "span_y", out.Get(SpanHeader))

	empty := http.Header{}
	Inject(context.Background(), empty)
	assert.Empty(t, empty)

	assert.Equal(t, "[trace:a span:b]", FormatTrace("a", "b"))
}

func TestHTTPMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, logs := observed()
	tracer := New("test", logger)

	var seen id.TraceID
	r := gin.New()
	r.Use(HTTPMiddleware(tracer))
	r.GET("/ping/:x", func(c *gin.Context) {
		seen = GetTraceID(c.Request.Context())
		c.String(http.StatusTeapot, "pong")
	})

	req := httptest.NewRequest(http.MethodGet, "/ping/1", nil)
	req.Header.Set(TraceHeader, "trace_upstream")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.Equal(t, "trace_upstream", w.Header().Get(TraceHeader))
	assert.NotEmpty(t, w.Header().Get(SpanHeader))
	assert.Equal(t, id.TraceID("trace_upstream"), seen)

	tracer.Close()
	require.Eventually(t, func() bool { return logs.Len() == 1 }, time.Second, time.Millisecond)
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "/ping/:x", fields["operation"])
	assert.Equal(t, "418", fields["http.status"])
}
