package probe

import (
	"context"
	"crypto/tls"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

const maxBodyBytes = 1 << 20

// HTTPChecker issues a GET and requires a 200 whose body contains the
// target keyword.
type HTTPChecker struct {
	Client *http.Client
}

// NewHTTPChecker builds a checker with the given timeout. insecureTLS turns
// off certificate verification for hosts with self-signed certificates.
func NewHTTPChecker(timeout time.Duration, insecureTLS bool) *HTTPChecker {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.TLSClientConfig = &tls.Config{InsecureSkipVerify: insecureTLS} //nolint:gosec // opt-in via HTTP_INSECURE_TLS
	return &HTTPChecker{
		Client: &http.Client{Timeout: timeout, Transport: tr},
	}
}

func (h *HTTPChecker) Check(ctx context.Context, t domain.HTTPTarget) CheckResult {
	start := time.Now()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.URL, nil)
	if err != nil {
		return CheckResult{Name: "HTTP", Success: false, Message: err.Error()}
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return CheckResult{Name: "HTTP", Success: false, Message: err.Error()}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return CheckResult{Name: "HTTP", Success: false, StatusCode: resp.StatusCode, Message: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return CheckResult{Name: "HTTP", Success: false, StatusCode: resp.StatusCode, Message: "read body: " + err.Error()}
	}
	if !strings.Contains(string(body), t.Keyword) {
		return CheckResult{Name: "HTTP", Success: false, StatusCode: resp.StatusCode, Message: "keyword not found"}
	}

	return CheckResult{
		Name:       "HTTP",
		Success:    true,
		StatusCode: resp.StatusCode,
		LatencyMS:  sinceMS(start),
		Message:    "keyword found",
	}
}
