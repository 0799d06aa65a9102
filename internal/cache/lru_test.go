package cache

import (
	"errors"
	"testing"
	"time"
)

func TestLRUEvictsLeastRecentlyUsed(t *testing.T) {
	c := NewLRUCache[int](2, 0)
	c.Set("a", 1)
	c.Set("b", 2)
	if _, ok := c.Get("a"); !ok {
		t.Fatalf("expected a")
	}
	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Fatalf("b should have been evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Fatalf("a should survive, got %d %v", v, ok)
	}
	if c.Size() != 2 {
		t.Fatalf("expected size 2, got %d", c.Size())
	}
}

func TestLRUExpiry(t *testing.T) {
	c := NewLRUCache[string](10, time.Millisecond)
	c.Set("k", "v")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get("k"); ok {
		t.Fatalf("expected expired entry")
	}
	c.Set("k1", "v")
	c.Set("k2", "v")
	time.Sleep(5 * time.Millisecond)
	if n := c.CleanExpired(); n != 2 || c.Size() != 0 {
		t.Fatalf("expected 2 removed, got %d (size %d)", n, c.Size())
	}
}

func TestGetOrCompute(t *testing.T) {
	c := NewLRUCache[int](10, time.Minute)
	calls := 0
	compute := func() (int, error) {
		calls++
		return 42, nil
	}

	for i := 0; i < 3; i++ {
		v, hit, err := c.GetOrCompute(Key("g1", "rollup", "2024-01"), compute)
		if err != nil || v != 42 || hit != (i > 0) {
			t.Fatalf("call %d: v=%d hit=%v err=%v", i, v, hit, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected one computation, got %d", calls)
	}

	boom := errors.New("boom")
	if _, _, err := c.GetOrCompute("bad", func() (int, error) { return 0, boom }); !errors.Is(err, boom) {
		t.Fatalf("expected compute error, got %v", err)
	}
	if _, ok := c.Get("bad"); ok {
		t.Fatalf("errors must not be cached")
	}

	st := c.Stats()
	if st.Hits != 2 || st.Size != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
	c.Purge()
	if c.Size() != 0 {
		t.Fatalf("expected empty cache after purge")
	}
}

func TestKeySeparatesGenerations(t *testing.T) {
	if Key("g1", "a") == Key("g2", "a") {
		t.Fatalf("generations must not share keys")
	}
	if got := Key("g1", "months", "2024-01,2024-02"); got != "g1|months|2024-01,2024-02" {
		t.Fatalf("unexpected key %q", got)
	}
}

type countingCleaner struct{ n int }

func (c *countingCleaner) CleanExpired() int {
	c.n++
	return 1
}

func TestManagerCleansRegisteredCaches(t *testing.T) {
	m := NewManager(nil)
	a, b := &countingCleaner{}, &countingCleaner{}
	m.Register(a)
	m.Register(b)

	if n := m.CleanNow(); n != 2 || a.n != 1 || b.n != 1 {
		t.Fatalf("unexpected clean result %d", n)
	}

	m.StartCleanup(time.Millisecond)
	time.Sleep(10 * time.Millisecond)
	m.Stop()
	m.Stop()
}
