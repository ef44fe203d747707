package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hamed0406/urlwatchdog/internal/domain"
	"github.com/hamed0406/urlwatchdog/internal/repo/memory"
)

func setupRouter(t *testing.T, keys []string) (*memory.Store, http.Handler) {
	t.Helper()
	store := memory.New()
	srv := NewServer(zap.NewNop(), store, func() string { return "RUNNING" })
	return store, srv.Router(keys)
}

func get(t *testing.T, h http.Handler, path, key string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	_, h := setupRouter(t, []string{"secret"})
	rec := get(t, h, "/healthz", "")
	if rec.Code != http.StatusOK || rec.Body.String() != "ok" {
		t.Fatalf("got %d %q", rec.Code, rec.Body.String())
	}
}

func TestStatus_ReturnsLatestSortedByName(t *testing.T) {
	store, h := setupRouter(t, nil)

	lat := 12.5
	_ = store.Append(context.Background(), &domain.CheckResult{Target: "web", Kind: domain.KindHTTP, Address: "http://x", Up: true, LatencyMS: &lat, CheckedAt: time.Now()})
	_ = store.Append(context.Background(), &domain.CheckResult{Target: "db", Kind: domain.KindTCP, Address: "10.0.0.1:5432", Up: false, Reason: "i/o timeout", CheckedAt: time.Now()})

	rec := get(t, h, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var got []map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0]["name"] != "db" || got[1]["name"] != "web" {
		t.Fatalf("unexpected body %s", rec.Body.String())
	}
	if got[0]["up"] != false || got[0]["detail"] != "i/o timeout" || got[0]["latency_ms"] != nil {
		t.Fatalf("bad db entry %v", got[0])
	}
	if got[1]["latency_ms"] != 12.5 {
		t.Fatalf("bad web latency %v", got[1]["latency_ms"])
	}
}

func TestStatus_EmptyIsArray(t *testing.T) {
	_, h := setupRouter(t, nil)
	rec := get(t, h, "/api/status", "")
	if body := rec.Body.String(); body != "[]\n" {
		t.Fatalf("want empty array, got %q", body)
	}
}

func TestState(t *testing.T) {
	_, h := setupRouter(t, nil)
	rec := get(t, h, "/api/state", "")
	var got map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got["state"] != "RUNNING" {
		t.Fatalf("state=%q", got["state"])
	}
}

func TestAPI_RequiresKey(t *testing.T) {
	_, h := setupRouter(t, []string{"secret"})
	if rec := get(t, h, "/api/status", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing key: want 401, got %d", rec.Code)
	}
	if rec := get(t, h, "/api/state", "secret"); rec.Code != http.StatusOK {
		t.Fatalf("valid key: want 200, got %d", rec.Code)
	}
}

type failingResults struct{}

func (failingResults) Append(context.Context, *domain.CheckResult) error { return nil }

func (failingResults) Latest(context.Context) ([]domain.CheckResult, error) {
	return nil, errors.New("boom")
}

func TestStatus_StoreError(t *testing.T) {
	srv := NewServer(zap.NewNop(), failingResults{}, nil)
	rec := get(t, srv.Router(nil), "/api/status", "")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("want 500, got %d", rec.Code)
	}
}

func TestListenAndServe_StopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := ln.Addr().String()
	ln.Close()

	srv := NewServer(zap.NewNop(), memory.New(), nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.ListenAndServe(ctx, addr, nil) }()

	deadline := time.Now().Add(2 * time.Second)
	for {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err == nil {
			resp.Body.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("server never came up: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(6 * time.Second):
		t.Fatalf("server did not stop")
	}
}
