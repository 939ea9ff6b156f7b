package server

import "net/http"

type endpointInfo struct {
	Path        string   `json:"path"`
	Methods     []string `json:"methods"`
	Description string   `json:"description"`
}

type discoveryResponse struct {
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Endpoints   []endpointInfo `json:"endpoints"`
}

func (s *Server) handleDiscovery(w http.ResponseWriter, r *http.Request) {
	reqID := RequestIDFromContext(r.Context())
	respondOK(w, reqID, discoveryResponse{
		Name:        "cmdbot dashboard",
		Version:     "v1",
		Description: "Command-based robot scheduler: telemetry, robot mode and autonomous selection",
		Endpoints: []endpointInfo{
			{"/api/v1/health", []string{"GET"}, "Server health, robot mode and hardware status"},
			{"/api/v1/telemetry", []string{"GET"}, "Latest telemetry values. Accepts ?prefix=Hardware/"},
			{"/api/v1/telemetry/{key}", []string{"GET"}, "Single telemetry value, e.g. /telemetry/Scheduler/Active"},
			{"/api/v1/robot", []string{"GET"}, "Robot mode, tick and active commands"},
			{"/api/v1/robot/mode", []string{"PUT"}, "Request a mode change: disabled, autonomous, teleop, test"},
			{"/api/v1/autos", []string{"GET"}, "Autonomous routines and the current selection"},
			{"/api/v1/autos/selected", []string{"PUT"}, "Select the autonomous routine"},
		},
	})
}
