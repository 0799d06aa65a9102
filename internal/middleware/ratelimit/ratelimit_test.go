package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newThrottle(t *testing.T, refreshes int) (*RefreshThrottle, *clock) {
	t.Helper()
	th := NewRefreshThrottle(Config{Refreshes: refreshes, Window: time.Minute, SweepInterval: time.Hour})
	t.Cleanup(th.Stop)
	c := &clock{t: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	th.now = c.now
	return th, c
}

func TestRefreshThrottle_Allow(t *testing.T) {
	th, c := newThrottle(t, 3)

	for i := 0; i < 3; i++ {
		if ok, _ := th.Allow("10.0.0.1"); !ok {
			t.Fatalf("refresh %d rejected", i+1)
		}
		c.advance(10 * time.Second)
	}
	ok, wait := th.Allow("10.0.0.1")
	if ok {
		t.Fatal("fourth refresh allowed")
	}
	if wait != 30*time.Second {
		t.Errorf("wait = %v, want 30s", wait)
	}
	if ok, _ := th.Allow("10.0.0.2"); !ok {
		t.Error("other client rejected")
	}
	if got := th.Rejected(); got != 1 {
		t.Errorf("rejected = %d, want 1", got)
	}
}

func TestRefreshThrottle_SlidingWindow(t *testing.T) {
	th, c := newThrottle(t, 2)

	th.Allow("client")
	c.advance(40 * time.Second)
	th.Allow("client")
	c.advance(10 * time.Second)

	// a fixed window reset at the minute would admit this one
	if ok, wait := th.Allow("client"); ok || wait != 10*time.Second {
		t.Fatalf("Allow = %v, %v; want rejected with 10s wait", ok, wait)
	}

	c.advance(10 * time.Second)
	if ok, _ := th.Allow("client"); !ok {
		t.Fatal("refresh rejected after the oldest one left the window")
	}
	if ok, wait := th.Allow("client"); ok || wait != 40*time.Second {
		t.Fatalf("Allow = %v, %v; want rejected with 40s wait", ok, wait)
	}
}

func TestRefreshThrottle_Sweep(t *testing.T) {
	th, c := newThrottle(t, 5)

	th.Allow("stale")
	c.advance(50 * time.Second)
	th.Allow("fresh")
	c.advance(20 * time.Second)

	th.sweep()
	th.mu.Lock()
	defer th.mu.Unlock()
	if _, ok := th.accepted["stale"]; ok {
		t.Error("stale client kept")
	}
	if got := len(th.accepted["fresh"]); got != 1 {
		t.Errorf("fresh client refreshes = %d, want 1", got)
	}
}

func TestNewRefreshThrottle_Defaults(t *testing.T) {
	th := NewRefreshThrottle(Config{})
	defer th.Stop()
	def := DefaultConfig()
	if th.refreshes != def.Refreshes || th.window != def.Window {
		t.Errorf("refreshes = %d window = %v", th.refreshes, th.window)
	}
	th.Stop() // idempotent
}

func TestRetryAfterSeconds(t *testing.T) {
	tests := []struct {
		wait time.Duration
		want string
	}{
		{0, "1"},
		{300 * time.Millisecond, "1"},
		{time.Second, "1"},
		{59*time.Second + time.Millisecond, "60"},
		{time.Minute, "60"},
	}
	for _, tt := range tests {
		if got := RetryAfterSeconds(tt.wait); got != tt.want {
			t.Errorf("RetryAfterSeconds(%v) = %q, want %q", tt.wait, got, tt.want)
		}
	}
}

func TestRefreshThrottle_Middleware(t *testing.T) {
	th, _ := newThrottle(t, 1)

	h := th.Middleware(func(r *http.Request) string { return "client" }, nil)(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusNoContent) }))

	want := []int{http.StatusNoContent, http.StatusTooManyRequests}
	for i, code := range want {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))
		if rec.Code != code {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, code)
		}
		if code == http.StatusTooManyRequests && rec.Header().Get("Retry-After") != "60" {
			t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
		}
	}
}
