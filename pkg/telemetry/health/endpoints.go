package health

import (
	"encoding/json"
	"net/http"
)

// LivenessHandler answers GET and HEAD with 200 and the liveness report.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		writeReport(w, r, http.StatusOK, c.Liveness())
	}
}

// ReadinessHandler answers 200 when every check passes and 503 otherwise.
func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !allowed(w, r) {
			return
		}
		report := c.Readiness(r.Context())
		code := http.StatusOK
		if !report.Ready() {
			code = http.StatusServiceUnavailable
		}
		writeReport(w, r, code, report)
	}
}

// Mount registers /healthz and /readyz on mux.
func (c *Checker) Mount(mux *http.ServeMux) {
	mux.Handle("/healthz", c.LivenessHandler())
	mux.Handle("/readyz", c.ReadinessHandler())
}

func allowed(w http.ResponseWriter, r *http.Request) bool {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		return true
	}
	w.Header().Set("Allow", "GET, HEAD")
	http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	return false
}

func writeReport(w http.ResponseWriter, r *http.Request, code int, report Report) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(code)
	if r.Method != http.MethodHead {
		_ = json.NewEncoder(w).Encode(report)
	}
}
