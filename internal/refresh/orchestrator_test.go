package refresh

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"financas/internal/canon"
	"financas/internal/core"
	"financas/internal/ledger"
)

type fixture struct {
	accountDir string
	invoiceDir string
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	f := fixture{
		accountDir: filepath.Join(root, "extrato"),
		invoiceDir: filepath.Join(root, "fatura"),
	}
	for _, dir := range []string{f.accountDir, f.invoiceDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}
	return f
}

func (f fixture) write(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func (f fixture) config() Config {
	return Config{
		AccountDir: f.accountDir,
		InvoiceDir: f.invoiceDir,
		Timeout:    5 * time.Second,
		Canon:      canon.DefaultConfig(),
	}
}

type recordingNotifier struct {
	mu      sync.Mutex
	results []Result
}

func (n *recordingNotifier) RefreshCompleted(_ context.Context, res Result) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.results = append(n.results, res)
	return nil
}

func TestRefreshPublishesGeneration(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "2024-01.csv", "date,value,id,description\n"+
		"2024-01-02,1000,a1,Salário\n"+
		"2024-01-03,-35.9,a2,Padaria - pão\n")
	f.write(t, f.invoiceDir, "2024-01.csv", "date,category,title,amount\n"+
		"2024-01-05,transporte,Uber *Trip,23.50\n")

	store := ledger.NewStore()
	notifier := &recordingNotifier{}
	o := New(f.config(), store, WithNotifier(notifier))

	var states []State
	o.observe = func(s State) { states = append(states, s) }

	res, err := o.Refresh(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Success || res.AccountEntries != 2 || res.InvoiceEntries != 1 || res.AccountFiles != 1 {
		t.Fatalf("unexpected result %+v", res)
	}
	snap := store.Snapshot()
	if snap.Generation != res.Generation || len(snap.Account) != 2 || len(snap.Invoice) != 1 {
		t.Fatalf("store does not hold the new generation: %+v", snap)
	}
	if !snap.Invoice[0].Amount.IsNegative() || snap.Account[1].Category != "Padaria" {
		t.Fatalf("entries were not canonicalized: %+v", snap)
	}
	if diff := cmp.Diff([]State{Ingesting, Canonicalizing, Swapping, Idle}, states); diff != "" {
		t.Fatalf("unexpected transitions (-want +got):\n%s", diff)
	}
	if len(notifier.results) != 1 || notifier.results[0].Generation != res.Generation {
		t.Fatalf("notifier not called with result: %+v", notifier.results)
	}
}

func TestRefreshFailureKeepsPreviousGeneration(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "a.csv", "2024-01-02,1000,a1,Salário\n")

	store := ledger.NewStore()
	notifier := &recordingNotifier{}
	o := New(f.config(), store, WithNotifier(notifier))
	first, err := o.Refresh(context.Background())
	if err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	before := store.Snapshot()

	f.write(t, f.invoiceDir, "b.csv", "2024-01-05,transporte,Uber,not-a-number\n")

	var states []State
	o.observe = func(s State) { states = append(states, s) }
	res, err := o.Refresh(context.Background())
	if !errors.Is(err, core.ErrMalformedInput) {
		t.Fatalf("expected ErrMalformedInput, got %v", err)
	}
	if res.Success || res.Diagnostic == "" || res.Generation == first.Generation {
		t.Fatalf("unexpected failed result %+v", res)
	}
	if store.Snapshot() != before {
		t.Fatalf("failed refresh must leave the previous generation visible")
	}
	if diff := cmp.Diff([]State{Ingesting, Failed, Idle}, states); diff != "" {
		t.Fatalf("unexpected transitions (-want +got):\n%s", diff)
	}
	if o.State() != Idle {
		t.Fatalf("expected idle, got %s", o.State())
	}
	if len(notifier.results) != 2 || notifier.results[1].Success {
		t.Fatalf("failure must be notified: %+v", notifier.results)
	}
}

func TestRefreshMissingSourcesYieldEmptyLedger(t *testing.T) {
	cfg := Config{
		AccountDir: filepath.Join(t.TempDir(), "none"),
		InvoiceDir: filepath.Join(t.TempDir(), "none"),
		Canon:      canon.DefaultConfig(),
	}
	store := ledger.NewStore()
	res, err := New(cfg, store).Refresh(context.Background())
	if err != nil {
		t.Fatalf("missing sources must not fail: %v", err)
	}
	if !res.AccountMissing || !res.InvoiceMissing || store.Snapshot().Len() != 0 || !store.Snapshot().Loaded() {
		t.Fatalf("unexpected result %+v", res)
	}
}

func TestConcurrentRefreshRejected(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "a.csv", "2024-01-02,1000,a1,Salário\n")

	o := New(f.config(), ledger.NewStore())

	// the first refresh parks before swapping
	entered := make(chan struct{})
	release := make(chan struct{})
	parked := false
	o.observe = func(s State) {
		if s == Swapping && !parked {
			parked = true
			close(entered)
			<-release
		}
	}

	done := make(chan error, 1)
	go func() {
		_, err := o.Refresh(context.Background())
		done <- err
	}()
	<-entered

	if _, err := o.Refresh(context.Background()); !errors.Is(err, core.ErrRefreshInProgress) {
		t.Fatalf("expected ErrRefreshInProgress, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}

	if _, err := o.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh after completion must be accepted: %v", err)
	}
}

// slowNotifier holds the first notification until released.
type slowNotifier struct {
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (n *slowNotifier) RefreshCompleted(context.Context, Result) error {
	if n.calls.Add(1) == 1 {
		close(n.entered)
		<-n.release
	}
	return nil
}

func TestSlowNotifierDoesNotHoldRefresh(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "a.csv", "2024-01-02,1000,a1,Salário\n")

	notifier := &slowNotifier{entered: make(chan struct{}), release: make(chan struct{})}
	o := New(f.config(), ledger.NewStore(), WithNotifier(notifier))

	done := make(chan error, 1)
	go func() {
		_, err := o.Refresh(context.Background())
		done <- err
	}()
	<-notifier.entered

	if got := o.State(); got != Idle {
		t.Fatalf("state while notifying = %v, want idle", got)
	}
	if _, err := o.Refresh(context.Background()); err != nil {
		t.Fatalf("refresh while the previous outcome is being published: %v", err)
	}

	close(notifier.release)
	if err := <-done; err != nil {
		t.Fatalf("first refresh: %v", err)
	}
	if got := notifier.calls.Load(); got != 2 {
		t.Fatalf("notifications = %d, want 2", got)
	}
}

func TestRefreshIngestionTimeout(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "a.csv", "2024-01-02,1000,a1,Salário\n")

	store := ledger.NewStore()
	o := New(f.config(), store)

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()

	_, err := o.Refresh(ctx)
	if !errors.Is(err, core.ErrIngestionTimeout) {
		t.Fatalf("expected ErrIngestionTimeout, got %v", err)
	}
	if store.Snapshot().Loaded() || o.State() != Idle {
		t.Fatalf("timeout must leave the store untouched and the orchestrator idle")
	}
}

type failingPersister struct{}

func (failingPersister) SaveGeneration(context.Context, *ledger.Snapshot) error {
	return errors.New("disk full")
}

func (failingPersister) LoadGeneration(context.Context) (*ledger.Snapshot, error) {
	return nil, nil
}

func TestRefreshPersistFailure(t *testing.T) {
	f := newFixture(t)
	f.write(t, f.accountDir, "a.csv", "2024-01-02,1000,a1,Salário\n")

	store := ledger.NewStore(ledger.WithPersister(failingPersister{}))
	res, err := New(f.config(), store).Refresh(context.Background())
	if err == nil || res.Success {
		t.Fatalf("expected persistence failure, got %+v", res)
	}
	if store.Snapshot().Loaded() {
		t.Fatalf("store must stay empty when persistence fails")
	}
}
