/*
Package monitoring collects Prometheus metrics for the bridge.

# Metrics

  - qbridge_http_requests_total, qbridge_http_request_duration_seconds
  - qbridge_dispatch_total by action and disposition
  - qbridge_requests_settled_total and qbridge_request_duration_seconds by
    action and outcome (result, error, timeout, cancelled)
  - qbridge_node_calls_total and qbridge_node_call_duration_seconds
  - qbridge_ws_connections by role (page, ui)
  - qbridge_renders_total by view and content class

Each Metrics owns its registry so several can coexist in tests.

# Usage

	metrics := monitoring.NewMetrics()
	router.Use(monitoring.Middleware(metrics))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

Metrics satisfies the observer interfaces of the correlator, the
dispatcher and the node client.
*/
package monitoring
