package probe

import (
	"context"
	"net"
	"time"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

type TCPChecker struct {
	Dialer *net.Dialer
}

func NewTCPChecker(timeout time.Duration) *TCPChecker {
	return &TCPChecker{Dialer: &net.Dialer{Timeout: timeout}}
}

func (c *TCPChecker) Check(ctx context.Context, t domain.TCPTarget) CheckResult {
	start := time.Now()
	conn, err := c.Dialer.DialContext(ctx, "tcp", t.Address())
	if err != nil {
		return CheckResult{Name: "TCP", Success: false, Message: err.Error()}
	}
	lat := sinceMS(start)
	_ = conn.Close()
	return CheckResult{Name: "TCP", Success: true, LatencyMS: lat, Message: "connected"}
}
