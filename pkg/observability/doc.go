// Package observability provides structured logging, Prometheus metrics,
// OpenTelemetry tracing and health checks for the converter and the
// preview server.
//
// # Structured Logging
//
//	logger := observability.NewTextLogger(observability.InfoLevel, os.Stderr)
//	logger.WithField("module", "Petstore").Info("conversion finished")
//
// Library packages take a *logrus.Logger; Logger.Logrus bridges the two
// at the same level and output.
//
// # Prometheus Metrics
//
//	metrics := observability.NewMetrics(nil)
//	metrics.RecordConversion(err, time.Since(start))
//	http.Handle("/metrics", metrics.Handler())
//
// One-shot runs can dump the registry with WriteToTextfile.
//
// # OpenTelemetry
//
//	providers, err := observability.InitOTel(ctx, observability.OTelConfig{
//		Enabled:     true,
//		Endpoint:    "otel-collector:4317",
//		ServiceName: "symbolgraph",
//	}, logger)
//	defer observability.ShutdownOTel(ctx, providers, logger)
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.Register("catalog", true, observability.DirectoryCheck(dir))
package observability
