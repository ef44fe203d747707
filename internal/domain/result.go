package domain

import "time"

// CheckResult is the outcome of one target in one cycle. Only the latest
// result per target is kept.
type CheckResult struct {
	Target     string    `json:"name"`
	Kind       Kind      `json:"kind"`
	Address    string    `json:"address"`
	Up         bool      `json:"up"`
	HTTPStatus int       `json:"http_status,omitempty"`
	LatencyMS  *float64  `json:"latency_ms"`
	Reason     string    `json:"detail,omitempty"`
	CheckedAt  time.Time `json:"checked_at"`
}
