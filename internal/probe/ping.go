package probe

import (
	"context"
	"fmt"
	"math"
	"os/exec"
	"regexp"
	"runtime"
	"strconv"
	"time"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

// CommandFunc runs an external command and returns its combined output.
type CommandFunc func(ctx context.Context, name string, args ...string) ([]byte, error)

func execCommand(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

// PingChecker sends a single ICMP echo through the system ping binary.
type PingChecker struct {
	Timeout time.Duration
	Run     CommandFunc
}

func NewPingChecker(timeout time.Duration) *PingChecker {
	return &PingChecker{Timeout: timeout, Run: execCommand}
}

// Linux:   rtt min/avg/max/mdev = 1.234/1.234/1.234/0.000 ms
// macOS:   round-trip min/avg/max/stddev = 1.234/1.234/1.234/0.000 ms
// Windows: Average = 1ms
var pingRTT = regexp.MustCompile(`(?:rtt|round-trip).*?=\s*[\d.]+/([\d.]+)/|Average\s*=\s*(\d+)\s*ms`)

func (p *PingChecker) Check(ctx context.Context, t domain.PingTarget) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, p.Timeout)
	defer cancel()

	run := p.Run
	if run == nil {
		run = execCommand
	}
	out, err := run(ctx, "ping", pingArgs(t.Host, p.Timeout)...)
	if err != nil {
		msg := fmt.Sprintf("ping failed: %v", err)
		if ctx.Err() == context.DeadlineExceeded {
			msg = "ping timeout"
		}
		return CheckResult{Name: "PING", Success: false, Message: msg}
	}

	res := CheckResult{Name: "PING", Success: true, Message: "ping ok"}
	if m := pingRTT.FindSubmatch(out); m != nil {
		s := string(m[1])
		if s == "" {
			s = string(m[2])
		}
		if ms, err := strconv.ParseFloat(s, 64); err == nil {
			res.LatencyMS = &ms
		}
	}
	return res
}

func pingArgs(host string, timeout time.Duration) []string {
	secs := int(math.Ceil(timeout.Seconds()))
	if secs < 1 {
		secs = 1
	}
	switch runtime.GOOS {
	case "windows":
		return []string{"-n", "1", "-w", strconv.FormatInt(timeout.Milliseconds(), 10), host}
	case "darwin", "freebsd", "openbsd":
		return []string{"-c", "1", "-t", strconv.Itoa(secs), host}
	default:
		return []string{"-c", "1", "-W", strconv.Itoa(secs), host}
	}
}
