package app

import (
	"context"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/urlwatchdog/internal/config"
	"github.com/hamed0406/urlwatchdog/internal/notify"
	"github.com/hamed0406/urlwatchdog/internal/probe"
	"github.com/hamed0406/urlwatchdog/internal/scheduler"
)

func testConfig(t *testing.T, targets string) config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "targets.json")
	if err := os.WriteFile(path, []byte(targets), 0o644); err != nil {
		t.Fatal(err)
	}
	return config.Config{
		TargetsFile:   path,
		CheckInterval: 10 * time.Millisecond,
		PingTimeout:   time.Second,
		HTTPTimeout:   time.Second,
		TCPTimeout:    time.Second,
		MaxConcurrent: 2,
		RetryAttempts: 1,
		NotifyTimeout: time.Second,
	}
}

func TestRun_PollsUntilSignalThenExitsOne(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	cfg := testConfig(t, `[{"name":"local","url":"`+ln.Addr().String()+`"}]`)
	errCore, errLogs := observer.New(zap.InfoLevel)
	logCore, logs := observer.New(zap.InfoLevel)

	a, err := New(context.Background(), cfg, zap.New(logCore), zap.New(errCore))
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan int, 1)
	go func() { done <- a.Run(ctx) }()

	deadline := time.Now().Add(3 * time.Second)
	for logs.FilterMessage("cycle_finished").Len() < 2 {
		if time.Now().After(deadline) {
			t.Fatalf("watchdog did not complete two cycles")
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel(scheduler.SignalError{Signal: os.Interrupt})

	select {
	case code := <-done:
		if code != 1 {
			t.Fatalf("exit code %d", code)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("Run did not return")
	}

	if got := logs.FilterMessage("status_changed").Len(); got != 0 {
		t.Fatalf("reachable target should never transition, got %d", got)
	}
	if errLogs.FilterMessage("watchdog_terminated").Len() != 1 {
		t.Fatalf("want one termination record, got %v", errLogs.All())
	}
	if a.Watchdog.State() != scheduler.StateStopped {
		t.Fatalf("state=%s", a.Watchdog.State())
	}
}

func TestRun_MissingRegistryFailsStartup(t *testing.T) {
	cfg := testConfig(t, `[]`)
	cfg.TargetsFile = filepath.Join(t.TempDir(), "nope.json")
	errCore, errLogs := observer.New(zap.InfoLevel)

	a, err := New(context.Background(), cfg, zap.NewNop(), zap.New(errCore))
	if err != nil {
		t.Fatal(err)
	}
	if code := a.Run(context.Background()); code != 1 {
		t.Fatalf("exit code %d", code)
	}
	if errLogs.FilterMessage("startup_failed").Len() != 1 {
		t.Fatalf("startup failure should reach the error log")
	}
	if a.Watchdog.State() == scheduler.StateRunning {
		t.Fatalf("watchdog must not start")
	}
}

func TestNew_BadScheduleFails(t *testing.T) {
	cfg := testConfig(t, `[]`)
	cfg.CheckSchedule = "every now and then"
	if _, err := New(context.Background(), cfg, zap.NewNop(), zap.NewNop()); err == nil {
		t.Fatalf("want schedule error")
	}
}

func TestNotifier_Selection(t *testing.T) {
	cfg := config.Config{NotifyTimeout: time.Second}
	if _, ok := Notifier(cfg).(notify.Nop); !ok {
		t.Fatalf("no channels should yield Nop")
	}

	cfg.SlackWebhook = "https://hooks.slack.invalid/x"
	if _, ok := Notifier(cfg).(*notify.Slack); !ok {
		t.Fatalf("single channel should be used directly")
	}

	cfg.WhatsAppAPIURL = "https://api.invalid"
	cfg.WhatsAppInstanceID, cfg.WhatsAppToken, cfg.WhatsAppChatID = "1", "tok", "123@c.us"
	m, ok := Notifier(cfg).(notify.Multi)
	if !ok || len(m) != 2 {
		t.Fatalf("want Multi of two, got %#v", Notifier(cfg))
	}
}

func TestChecker_RetryWrapping(t *testing.T) {
	cfg := config.Config{PingTimeout: time.Second, HTTPTimeout: time.Second, TCPTimeout: time.Second, RetryAttempts: 1}
	if _, ok := Checker(cfg).(*probe.Prober); !ok {
		t.Fatalf("single attempt should not wrap")
	}
	cfg.RetryAttempts = 3
	rc, ok := Checker(cfg).(*probe.RetryChecker)
	if !ok || rc.Attempts != 3 {
		t.Fatalf("want RetryChecker with 3 attempts")
	}
}

func TestProbeBudget(t *testing.T) {
	cfg := config.Config{
		PingTimeout:   time.Second,
		HTTPTimeout:   2 * time.Second,
		TCPTimeout:    time.Second,
		RetryAttempts: 2,
		RetryBackoff:  500 * time.Millisecond,
		DNSDiagnose:   true,
	}
	// 2*2s + 500ms + 3s dns + 1s slack
	if got, want := ProbeBudget(cfg), 8500*time.Millisecond; got != want {
		t.Fatalf("got %s want %s", got, want)
	}
}
