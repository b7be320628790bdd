package httpx

import (
	"context"
	"net/http"
	"time"
)

const healthCheckTimeout = 2 * time.Second

// HealthCheck is one dependency probed by /healthz.
type HealthCheck struct {
	Name string
	Ping func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler returns 200 {"status":"ok"} when every check passes and 503 "degraded"
// with the failing checks otherwise. HEAD requests get the status only.
func healthHandler(checks []HealthCheck) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := healthResponse{Status: "ok"}
		for _, c := range checks {
			ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
			err := c.Ping(ctx)
			cancel()
			if err == nil {
				continue
			}
			if resp.Checks == nil {
				resp.Checks = map[string]string{}
			}
			resp.Status = "degraded"
			resp.Checks[c.Name] = err.Error()
		}

		code := http.StatusOK
		if resp.Status != "ok" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Cache-Control", "no-store")
		if r.Method == http.MethodHead {
			w.WriteHeader(code)
			return
		}
		WriteJSON(w, code, resp)
	}
}
