package health

import (
	"encoding/json"
	"time"
)

// HealthStatus represents the health state of an upstream.
type HealthStatus string

const (
	StatusOK      HealthStatus = "ok"
	StatusWarning HealthStatus = "warning"
	StatusError   HealthStatus = "error"
)

// EventHealthUpdated is the hub message type sent on every status change.
const EventHealthUpdated = "health:updated"

// HealthItem represents a single tracked upstream.
type HealthItem struct {
	ID        string       `json:"id"`
	Name      string       `json:"name"`
	Status    HealthStatus `json:"status"`
	Message   string       `json:"message,omitempty"`
	Timestamp *time.Time   `json:"timestamp,omitempty"`
}

// MarshalJSON customizes JSON output to omit timestamp for OK status.
func (h HealthItem) MarshalJSON() ([]byte, error) {
	type Alias HealthItem
	alias := Alias(h)

	// Only include timestamp for non-OK statuses
	if h.Status == StatusOK {
		alias.Timestamp = nil
		alias.Message = ""
	}

	return json.Marshal(alias)
}

// HealthResponse is the body of GET /api/v1/health.
type HealthResponse struct {
	Items     []HealthItem `json:"items"`
	HasIssues bool         `json:"hasIssues"`
}
