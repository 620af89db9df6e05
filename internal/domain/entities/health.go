package entities

import "time"

// HealthStatus represents the health status of a component
type HealthStatus string

const (
	HealthStatusUp      HealthStatus = "up"
	HealthStatusDown    HealthStatus = "down"
	HealthStatusPartial HealthStatus = "partial"
)

// HealthCheck represents a health check result
type HealthCheck struct {
	Status     HealthStatus           `json:"status"`
	Version    string                 `json:"version"`
	Timestamp  time.Time              `json:"timestamp"`
	Uptime     time.Duration          `json:"uptime"`
	Checks     map[string]CheckResult `json:"checks"`
	SystemInfo SystemInfo             `json:"system_info"`
}

// CheckResult represents the result of a single health check
type CheckResult struct {
	Status  HealthStatus           `json:"status"`
	Message string                 `json:"message,omitempty"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// SystemInfo contains process information
type SystemInfo struct {
	AllocatedMemory int64 `json:"allocated_memory"`
	SystemMemory    int64 `json:"system_memory"`
	GoRoutines      int   `json:"go_routines"`
}

// OverallStatus folds the check results: any down check is down, any
// partial check is partial.
func OverallStatus(checks map[string]CheckResult) HealthStatus {
	status := HealthStatusUp
	for _, check := range checks {
		switch check.Status {
		case HealthStatusDown:
			return HealthStatusDown
		case HealthStatusPartial:
			status = HealthStatusPartial
		}
	}
	return status
}
