package probe

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strings"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

// Prober dispatches a resolved target to the checker for its variant.
type Prober struct {
	Ping *PingChecker
	HTTP *HTTPChecker
	TCP  *TCPChecker

	// Diagnose appends the host's DNS class to the message of failed probes.
	Diagnose bool
	Lookup   func(ctx context.Context, host string) DNSStatus
}

func (p *Prober) Check(ctx context.Context, t domain.Target) CheckResult {
	var out CheckResult
	switch tt := t.(type) {
	case domain.PingTarget:
		out = p.Ping.Check(ctx, tt)
	case domain.HTTPTarget:
		out = p.HTTP.Check(ctx, tt)
	case domain.TCPTarget:
		out = p.TCP.Check(ctx, tt)
	default:
		return CheckResult{Success: false, Message: fmt.Sprintf("unsupported target %T", t)}
	}

	if !out.Success && p.Diagnose {
		if host := hostOf(t); host != "" && net.ParseIP(host) == nil {
			lookup := p.Lookup
			if lookup == nil {
				lookup = CheckDNS
			}
			dns := lookup(ctx, host)
			out.Message = strings.TrimSpace(fmt.Sprintf("%s dns=%s", out.Message, dns.Class))
		}
	}
	return out
}

func hostOf(t domain.Target) string {
	switch tt := t.(type) {
	case domain.PingTarget:
		return tt.Host
	case domain.TCPTarget:
		return tt.Host
	case domain.HTTPTarget:
		u, err := url.Parse(tt.URL)
		if err != nil {
			return ""
		}
		return u.Hostname()
	}
	return ""
}
