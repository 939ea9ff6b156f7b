package server

import (
	"net/http"
	"runtime"
	"strings"
	"time"

	"github.com/me/cmdbot/internal/healthcheck"
)

type healthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	GoVersion string            `json:"go_version"`
	Uptime    string            `json:"uptime"`
	Mode      string            `json:"mode"`
	Tick      uint64            `json:"tick"`
	Hardware  map[string]string `json:"hardware"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	st := s.robot.Status()

	prefix := healthcheck.Table + "/"
	hw := make(map[string]string)
	for _, e := range s.table.Snapshot(prefix) {
		if v, ok := e.Value.(string); ok {
			hw[strings.TrimPrefix(e.Key, prefix)] = v
		}
	}

	respondOK(w, reqID, healthResponse{
		Status:    "healthy",
		Version:   "0.1.0",
		GoVersion: runtime.Version(),
		Uptime:    time.Since(s.startTime).Round(time.Second).String(),
		Mode:      string(st.Mode),
		Tick:      st.Tick,
		Hardware:  hw,
	})
}
