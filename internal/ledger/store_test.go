package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"financas/internal/core"
)

type fakePersister struct {
	saved   *Snapshot
	saveErr error
	loadErr error
}

func (f *fakePersister) SaveGeneration(_ context.Context, snap *Snapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = snap
	return nil
}

func (f *fakePersister) LoadGeneration(context.Context) (*Snapshot, error) {
	return f.saved, f.loadErr
}

func snapshot(gen string, n int) *Snapshot {
	s := &Snapshot{Generation: gen, CreatedAt: time.Now()}
	for i := 0; i < n; i++ {
		s.Account = append(s.Account, core.LedgerEntry{
			Date:   core.NewDate(2024, 1, i+1),
			Amount: decimal.NewFromInt(int64(i)),
			Source: core.SourceAccount,
		})
	}
	return s
}

func TestSnapshotNeverNil(t *testing.T) {
	s := NewStore()
	snap := s.Snapshot()
	if snap == nil {
		t.Fatalf("expected empty snapshot before first ingestion")
	}
	if snap.Loaded() || snap.Len() != 0 || snap.Entries(core.SourceAccount) != nil {
		t.Fatalf("expected empty snapshot, got %+v", snap)
	}
}

func TestReplacePublishes(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(WithPersister(p))
	next := snapshot("g1", 3)

	if err := s.Replace(context.Background(), next); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Snapshot() != next || p.saved != next {
		t.Fatalf("expected g1 to be persisted and visible")
	}
	if got := len(s.Snapshot().Entries(core.SourceAccount)); got != 3 {
		t.Fatalf("expected 3 account entries, got %d", got)
	}
}

func TestReplaceKeepsPreviousOnPersistFailure(t *testing.T) {
	p := &fakePersister{}
	s := NewStore(WithPersister(p))
	first := snapshot("g1", 1)
	if err := s.Replace(context.Background(), first); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	boom := errors.New("disk full")
	p.saveErr = boom
	if err := s.Replace(context.Background(), snapshot("g2", 2)); !errors.Is(err, boom) {
		t.Fatalf("expected persist error, got %v", err)
	}
	if s.Snapshot() != first {
		t.Fatalf("previous generation must stay visible")
	}
}

func TestLoadRestoresPersistedGeneration(t *testing.T) {
	p := &fakePersister{saved: snapshot("g7", 2)}
	s := NewStore(WithPersister(p))
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Snapshot().Generation != "g7" {
		t.Fatalf("expected g7, got %q", s.Snapshot().Generation)
	}

	empty := NewStore(WithPersister(&fakePersister{}))
	if err := empty.Load(context.Background()); err != nil || empty.Snapshot().Loaded() {
		t.Fatalf("expected nothing restored, err=%v", err)
	}
}

// Readers see whole generations only.
func TestConcurrentReadersSeeConsistentSnapshots(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := s.Snapshot()
				if snap.Loaded() && len(snap.Account) != 5 {
					t.Errorf("torn snapshot %s with %d entries", snap.Generation, len(snap.Account))
					return
				}
			}
		}()
	}
	for i := 0; i < 100; i++ {
		if err := s.Replace(ctx, snapshot("g", 5)); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	close(stop)
	wg.Wait()
}
