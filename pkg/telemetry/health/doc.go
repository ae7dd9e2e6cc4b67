// Package health answers liveness and readiness probes for long-running
// IntelliMap processes such as "intellimap map --watch".
//
// A Checker holds named checks. Liveness always succeeds while the process
// can serve HTTP. Readiness runs every check concurrently, each under its own
// timeout, and reports "ready" only when all of them pass.
//
//	checker := health.New(2 * time.Second)
//	checker.Register("rate_store", health.StoreCheck(store))
//	mux.Handle("/healthz", checker.LivenessHandler())
//	mux.Handle("/readyz", checker.ReadinessHandler())
package health
