// Package httputil holds the response helpers, path parsing and middleware
// shared by the preview server.
//
//	handler := httputil.Chain(
//		httputil.RecoveryMiddleware(logger),
//		httputil.RequestIDMiddleware,
//		httputil.LoggingMiddleware(logger),
//	)(router)
//
// Errors are written as {"error": "..."} with the matching status code.
package httputil
