// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing, health probes and graceful shutdown.
//
// # Structured Logging
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	ctx = observability.WithLogger(ctx, logger)
//	observability.FromContext(ctx).WithField("todo_id", id).Info("todo updated")
//
// FromContext adds the request ID, the authenticated user ID and the active
// trace and span IDs when present.
//
// # Prometheus Metrics
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.RecordDecision("update", "manager", false)
//
// A nil *Metrics is valid and records nothing. HTTPMetricsMiddleware labels
// requests with the gorilla/mux route template so label cardinality stays
// bounded.
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(db, redisClient, version)
//	observability.RegisterHealthRoutes(serveMux, checker)
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "taskboard",
//	}, logger)
//	defer providers.Shutdown(ctx, logger)
//
// Tracer returns the tracer for taskboard spans from the global provider.
package observability
