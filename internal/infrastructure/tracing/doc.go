/*
Package tracing follows requests through the bridge.

Every HTTP request gets a span. Trace and span identifiers arrive in the
X-Trace-ID and X-Span-ID headers, are echoed back on the response and are
forwarded to the node by the node client. Finished spans are buffered and
written to the structured log by a single collector goroutine.

	tracer := tracing.New("qbridge", logger)
	defer tracer.Close()
	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "render")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
