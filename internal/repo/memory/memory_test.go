package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hamed0406/urlwatchdog/internal/domain"
)

func TestMemoryStore_LoadKeepsOrder(t *testing.T) {
	ctx := context.Background()
	s := New(
		domain.Descriptor{Name: "B", URL: "b.example.com"},
		domain.Descriptor{Name: "A", URL: "a.example.com"},
	)
	got, err := s.Load(ctx)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got) != 2 || got[0].Name != "B" || got[1].Name != "A" {
		t.Fatalf("unexpected order: %+v", got)
	}

	// callers cannot mutate the store through the returned slice
	got[0].Name = "X"
	again, _ := s.Load(ctx)
	if again[0].Name != "B" {
		t.Fatalf("Load must return a copy")
	}

	s.Set(domain.Descriptor{Name: "C", URL: "c.example.com"})
	again, _ = s.Load(ctx)
	if len(again) != 1 || again[0].Name != "C" {
		t.Fatalf("Set not reflected: %+v", again)
	}
}

func TestMemoryStore_Fail(t *testing.T) {
	s := New(domain.Descriptor{Name: "A", URL: "a.example.com"})
	boom := errors.New("boom")
	s.Fail(boom)
	if _, err := s.Load(context.Background()); !errors.Is(err, boom) {
		t.Fatalf("want boom, got %v", err)
	}
	s.Fail(nil)
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("want recovery, got %v", err)
	}
}

func TestMemoryStore_LatestKeepsNewestPerTarget(t *testing.T) {
	ctx := context.Background()
	s := New()
	now := time.Now().UTC()

	_ = s.Append(ctx, &domain.CheckResult{Target: "B", Up: true, CheckedAt: now})
	_ = s.Append(ctx, &domain.CheckResult{Target: "A", Up: true, CheckedAt: now})
	_ = s.Append(ctx, &domain.CheckResult{Target: "A", Up: false, CheckedAt: now.Add(time.Second)})
	_ = s.Append(ctx, &domain.CheckResult{Target: "A", Up: true, CheckedAt: now.Add(-time.Second)})

	latest, err := s.Latest(ctx)
	if err != nil {
		t.Fatalf("Latest: %v", err)
	}
	if len(latest) != 2 || latest[0].Target != "A" || latest[1].Target != "B" {
		t.Fatalf("unexpected latest: %+v", latest)
	}
	if latest[0].Up {
		t.Fatalf("older result replaced a newer one")
	}

	s.Prune(map[string]struct{}{"B": {}})
	latest, _ = s.Latest(ctx)
	if len(latest) != 1 || latest[0].Target != "B" {
		t.Fatalf("prune failed: %+v", latest)
	}
}
