package domain

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
)

// Descriptor is a target as it comes out of the registry.
type Descriptor struct {
	Name    string `json:"name" mapstructure:"name"`
	URL     string `json:"url" mapstructure:"url"`
	Keyword string `json:"keyword,omitempty" mapstructure:"keyword"`
}

type Kind string

const (
	KindPing Kind = "ping"
	KindHTTP Kind = "http"
	KindTCP  Kind = "tcp"
)

// Target is one of PingTarget, HTTPTarget or TCPTarget.
type Target interface {
	TargetName() string
	Kind() Kind
	Address() string
	isTarget()
}

type PingTarget struct {
	Name string
	Host string
}

type HTTPTarget struct {
	Name    string
	URL     string
	Keyword string
}

type TCPTarget struct {
	Name string
	Host string
	Port int
}

func (t PingTarget) TargetName() string { return t.Name }
func (t PingTarget) Kind() Kind         { return KindPing }
func (t PingTarget) Address() string    { return t.Host }
func (PingTarget) isTarget()            {}

func (t HTTPTarget) TargetName() string { return t.Name }
func (t HTTPTarget) Kind() Kind         { return KindHTTP }
func (t HTTPTarget) Address() string    { return t.URL }
func (HTTPTarget) isTarget()            {}

func (t TCPTarget) TargetName() string { return t.Name }
func (t TCPTarget) Kind() Kind         { return KindTCP }
func (t TCPTarget) Address() string    { return net.JoinHostPort(t.Host, strconv.Itoa(t.Port)) }
func (TCPTarget) isTarget()            {}

var ErrInvalidTarget = errors.New("invalid target")

// ConfigError reports a descriptor that cannot be monitored.
type ConfigError struct {
	Target string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("target %q: %v", e.Target, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// Resolve picks the probe variant from the shape of d.URL:
// no ':' means ping, ':' with a keyword means HTTP, ':' without one means TCP.
func Resolve(d Descriptor) (Target, error) {
	name := strings.TrimSpace(d.Name)
	addr := strings.TrimSpace(d.URL)
	if name == "" {
		return nil, &ConfigError{Target: addr, Err: fmt.Errorf("%w: empty name", ErrInvalidTarget)}
	}
	if addr == "" {
		return nil, &ConfigError{Target: name, Err: fmt.Errorf("%w: empty address", ErrInvalidTarget)}
	}

	if !strings.Contains(addr, ":") {
		// ping would read a leading dash as an option
		if strings.HasPrefix(addr, "-") {
			return nil, &ConfigError{Target: name, Err: fmt.Errorf("%w: host %q starts with '-'", ErrInvalidTarget, addr)}
		}
		return PingTarget{Name: name, Host: addr}, nil
	}

	if d.Keyword != "" {
		u := addr
		if !strings.Contains(u, "://") {
			u = "http://" + u
		}
		if _, err := url.ParseRequestURI(u); err != nil {
			return nil, &ConfigError{Target: name, Err: fmt.Errorf("%w: %v", ErrInvalidTarget, err)}
		}
		return HTTPTarget{Name: name, URL: u, Keyword: d.Keyword}, nil
	}

	host, port, err := splitHostPort(addr)
	if err != nil {
		return nil, &ConfigError{Target: name, Err: err}
	}
	return TCPTarget{Name: name, Host: host, Port: port}, nil
}

func splitHostPort(addr string) (string, int, error) {
	var host, rawPort string
	if strings.Contains(addr, "://") {
		u, err := url.Parse(addr)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		host, rawPort = u.Hostname(), u.Port()
		if rawPort == "" {
			rawPort = defaultPort(u.Scheme)
		}
	} else {
		h, p, err := net.SplitHostPort(addr)
		if err != nil {
			return "", 0, fmt.Errorf("%w: %v", ErrInvalidTarget, err)
		}
		host, rawPort = h, p
	}
	if host == "" {
		return "", 0, fmt.Errorf("%w: missing host in %q", ErrInvalidTarget, addr)
	}
	port, err := strconv.Atoi(rawPort)
	if err != nil || port < 1 || port > 65535 {
		return "", 0, fmt.Errorf("%w: bad port %q", ErrInvalidTarget, rawPort)
	}
	return host, port, nil
}

func defaultPort(scheme string) string {
	switch strings.ToLower(scheme) {
	case "http":
		return "80"
	case "https":
		return "443"
	}
	return ""
}
