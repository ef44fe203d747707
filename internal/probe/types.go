package probe

import (
	"context"
	"time"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

// CheckResult is the unified result of a single probe.
//
// LatencyMS is nil when the probe did not report a latency. StatusCode is
// only set by the HTTP probe.
type CheckResult struct {
	Name       string   `json:"name"`
	Success    bool     `json:"success"`
	LatencyMS  *float64 `json:"latency_ms,omitempty"`
	Message    string   `json:"message"`
	StatusCode int      `json:"status_code,omitempty"`
}

// Checker probes a resolved target. Network failures are reported through
// Success=false, never as a panic or an error.
type Checker interface {
	Check(ctx context.Context, t domain.Target) CheckResult
}

func sinceMS(start time.Time) *float64 {
	ms := time.Since(start).Seconds() * 1000
	return &ms
}
