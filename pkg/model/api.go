package model

import "time"

// Response is the standard API response envelope.
type Response struct {
	Status    string    `json:"status"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
	Error     *APIError `json:"error"`
}

// TelemetryEntry is the latest value published under a key.
type TelemetryEntry struct {
	Key       string    `json:"key"`
	Value     any       `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RobotStatus summarizes the robot for the dashboard.
type RobotStatus struct {
	Mode         Mode     `json:"mode"`
	Tick         uint64   `json:"tick"`
	Active       []string `json:"active"`
	SelectedAuto string   `json:"selected_auto"`
}

// ModeRequest is the body accepted by the mode endpoint.
type ModeRequest struct {
	Mode string `json:"mode"`
}

// AutoSelection is the body accepted by the chooser endpoint.
type AutoSelection struct {
	Name string `json:"name"`
}

// AutoOption is one entry of the autonomous chooser.
type AutoOption struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}
