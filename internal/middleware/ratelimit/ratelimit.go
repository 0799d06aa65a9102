// Package ratelimit throttles ledger refreshes per client.
package ratelimit

import (
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"
)

// RefreshThrottle admits at most Refreshes refreshes per client in any
// sliding Window. Rejections report how long until the oldest admitted
// refresh leaves the window.
type RefreshThrottle struct {
	mu       sync.Mutex
	accepted map[string][]time.Time
	rejected atomic.Int64

	refreshes int
	window    time.Duration
	now       func() time.Time

	stopSweep chan struct{}
	stopOnce  sync.Once
}

type Config struct {
	Refreshes     int
	Window        time.Duration
	SweepInterval time.Duration
}

func DefaultConfig() Config {
	return Config{
		Refreshes:     6,
		Window:        time.Minute,
		SweepInterval: 5 * time.Minute,
	}
}

// PerMinute is the configuration for a refresh budget expressed per minute.
func PerMinute(refreshes int) Config {
	c := DefaultConfig()
	c.Refreshes = refreshes
	return c
}

func NewRefreshThrottle(cfg Config) *RefreshThrottle {
	def := DefaultConfig()
	if cfg.Refreshes <= 0 {
		cfg.Refreshes = def.Refreshes
	}
	if cfg.Window <= 0 {
		cfg.Window = def.Window
	}
	if cfg.SweepInterval <= 0 {
		cfg.SweepInterval = def.SweepInterval
	}

	t := &RefreshThrottle{
		accepted:  make(map[string][]time.Time),
		refreshes: cfg.Refreshes,
		window:    cfg.Window,
		now:       time.Now,
		stopSweep: make(chan struct{}),
	}
	go t.sweepLoop(cfg.SweepInterval)
	return t
}

// Allow records a refresh for client when its budget permits. Otherwise it
// returns false and the wait before the next refresh would be admitted.
func (t *RefreshThrottle) Allow(client string) (bool, time.Duration) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	times := t.live(client, now)
	if len(times) >= t.refreshes {
		t.accepted[client] = times
		t.rejected.Add(1)
		return false, times[0].Add(t.window).Sub(now)
	}
	t.accepted[client] = append(times, now)
	return true, 0
}

// live drops the timestamps of client that fell out of the window.
func (t *RefreshThrottle) live(client string, now time.Time) []time.Time {
	times := t.accepted[client]
	cutoff := now.Add(-t.window)
	i := 0
	for i < len(times) && !times[i].After(cutoff) {
		i++
	}
	return times[i:]
}

func (t *RefreshThrottle) sweepLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			t.sweep()
		case <-t.stopSweep:
			return
		}
	}
}

// sweep forgets clients with no refresh inside the window.
func (t *RefreshThrottle) sweep() {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for client := range t.accepted {
		if times := t.live(client, now); len(times) == 0 {
			delete(t.accepted, client)
		} else {
			t.accepted[client] = times
		}
	}
}

// Rejected returns how many refreshes were turned away.
func (t *RefreshThrottle) Rejected() int64 {
	return t.rejected.Load()
}

func (t *RefreshThrottle) Stop() {
	t.stopOnce.Do(func() { close(t.stopSweep) })
}

// RetryAfterSeconds renders a wait as a Retry-After value, rounded up.
func RetryAfterSeconds(wait time.Duration) string {
	secs := int64((wait + time.Second - 1) / time.Second)
	if secs < 1 {
		secs = 1
	}
	return strconv.FormatInt(secs, 10)
}

// Middleware rejects throttled requests through onLimit, which receives the
// wait before the client may retry.
func (t *RefreshThrottle) Middleware(clientOf func(*http.Request) string, onLimit func(http.ResponseWriter, *http.Request, time.Duration)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, wait := t.Allow(clientOf(r))
			if !ok {
				if onLimit != nil {
					onLimit(w, r, wait)
					return
				}
				w.Header().Set("Retry-After", RetryAfterSeconds(wait))
				http.Error(w, "refresh rate exceeded", http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
