// Package httpserver runs an http.Server bound to a context: cancelling the
// context drains requests, then closes registered resources.
//
//	srv := httpserver.New(cfg, httpserver.WithLogger(log), httpserver.WithCleanup(closeDB))
//	err := srv.Run(ctx, router)
//
// HealthHandler serves readiness probes built from named checks.
package httpserver
