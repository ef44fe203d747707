package scheduler

import (
	"context"
	"errors"
	"os"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/repo/memory"
)

func TestRun_InterruptDuringWaitTerminatesOnce(t *testing.T) {
	store := memory.New(domain.Descriptor{Name: "Example", URL: "example.com"})
	chk := newScripted(nil)
	nt := &memNotifier{ok: true}
	errCore, errLogs := observer.New(zap.InfoLevel)

	w := NewWatchdog(zap.NewNop(), store, store, chk, nil, nt, Interval(time.Hour), 2)
	w.ErrorLog = zap.New(errCore)
	if err := w.Init(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// let the first cycle finish so Run is parked in the hour-long wait
	deadline := time.Now().Add(2 * time.Second)
	for w.State() != StateRunning || !hasResults(store) {
		if time.Now().After(deadline) {
			t.Fatalf("first cycle did not complete")
		}
		time.Sleep(time.Millisecond)
	}

	start := time.Now()
	cancel(SignalError{Signal: os.Interrupt})

	var runErr error
	select {
	case runErr = <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("Run did not return after the interrupt")
	}
	if took := time.Since(start); took > time.Second {
		t.Fatalf("shutdown took %s", took)
	}
	var se SignalError
	if !errors.As(runErr, &se) || se.Signal != os.Interrupt {
		t.Fatalf("want SignalError cause, got %v", runErr)
	}
	if w.State() != StateTerminating {
		t.Fatalf("state=%s want TERMINATING", w.State())
	}

	w.Terminate(ctx, runErr)
	w.Terminate(ctx, runErr) // second call is a no-op

	if w.State() != StateStopped {
		t.Fatalf("state=%s want STOPPED", w.State())
	}
	entries := errLogs.FilterMessage("watchdog_terminated").All()
	if len(entries) != 1 {
		t.Fatalf("want exactly one termination record, got %d", len(entries))
	}
	ctxMap := entries[0].ContextMap()
	if ctxMap["reason"] != "Interrupted by user" {
		t.Fatalf("unexpected reason %v", ctxMap["reason"])
	}
	if _, ok := ctxMap["terminated_at"]; !ok {
		t.Fatalf("missing timestamp: %v", ctxMap)
	}

	terminated := 0
	for _, m := range nt.sent() {
		if m == TerminatedMessage {
			terminated++
		}
	}
	if terminated != 1 {
		t.Fatalf("want exactly one termination notification, got %d (%v)", terminated, nt.sent())
	}
}

func TestTerminate_IncludesLastError(t *testing.T) {
	store := memory.New(domain.Descriptor{Name: "Example", URL: "example.com"})
	errCore, errLogs := observer.New(zap.InfoLevel)
	w := NewWatchdog(zap.NewNop(), store, nil, newScripted(nil), nil, &memNotifier{ok: false}, nil, 1)
	w.ErrorLog = zap.New(errCore)
	_ = w.Init(context.Background())

	store.Fail(errors.New("config unreadable"))
	_ = w.RunOnce(context.Background())

	w.Terminate(context.Background(), SignalError{Signal: syscall.SIGTERM})
	entries := errLogs.All()
	if len(entries) != 1 {
		t.Fatalf("want one record, got %d", len(entries))
	}
	m := entries[0].ContextMap()
	if m["reason"] != "Terminated by signal" {
		t.Fatalf("reason=%v", m["reason"])
	}
	if m["error"] != "config unreadable" {
		t.Fatalf("want in-flight error, got %v", m["error"])
	}
	if w.State() != StateStopped {
		t.Fatalf("a failed termination notification must not block STOPPED")
	}
}

func TestTerminatedMessageText(t *testing.T) {
	if TerminatedMessage != "SCRIPT TERMINATED. PLEASE SEE ERROR LOG." {
		t.Fatalf("termination alert text changed: %q", TerminatedMessage)
	}
}

func TestReason(t *testing.T) {
	cases := []struct {
		in   error
		want string
	}{
		{SignalError{Signal: os.Interrupt}, "Interrupted by user"},
		{SignalError{Signal: syscall.SIGTERM}, "Terminated by signal"},
		{context.Canceled, "Stopped: context canceled"},
		{nil, "Stopped"},
	}
	for _, c := range cases {
		if got := Reason(c.in); got != c.want {
			t.Fatalf("Reason(%v)=%q want %q", c.in, got, c.want)
		}
	}
}

func hasResults(s *memory.Store) bool {
	latest, err := s.Latest(context.Background())
	return err == nil && len(latest) > 0
}
