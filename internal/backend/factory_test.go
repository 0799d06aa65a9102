package backend

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"

	"financas/internal/config"
	"financas/internal/core"
	"financas/internal/ledger"
)

func TestFromAppConfig(t *testing.T) {
	tests := []struct {
		name    string
		app     *config.Config
		want    Config
		wantErr bool
	}{
		{"nil config", nil, Config{}, true},
		{"unknown backend", &config.Config{LedgerBackend: "postgres"}, Config{}, true},
		{"memory", &config.Config{LedgerBackend: "memory"}, Config{Type: MemoryBackend}, false},
		{
			"sqlite",
			&config.Config{LedgerBackend: "sqlite", SQLiteDBPath: "/tmp/financas.db"},
			Config{Type: SQLiteBackend, SQLiteDBPath: "/tmp/financas.db"},
			false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromAppConfig(tt.app)
			if (err != nil) != tt.wantErr {
				t.Fatalf("FromAppConfig() error = %v, wantErr %v", err, tt.wantErr)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromAppConfig() (-want +got):\n%s", diff)
			}
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	if err := (Config{Type: SQLiteBackend}).Validate(); err == nil {
		t.Error("sqlite backend without a path must be rejected")
	}
	if err := (Config{Type: MemoryBackend}).Validate(); err != nil {
		t.Errorf("memory backend: %v", err)
	}
	if diff := cmp.Diff([]string{"sqlite", "memory"}, GetBackendTypeStrings()); diff != "" {
		t.Errorf("backend types (-want +got):\n%s", diff)
	}
}

func TestCreateMemoryBackend(t *testing.T) {
	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: MemoryBackend})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	if res.Cleanup != nil || res.Store.Snapshot().Loaded() {
		t.Fatalf("memory backend must start empty without cleanup")
	}
}

func TestCreateSQLiteBackendRestoresGeneration(t *testing.T) {
	ctx := context.Background()
	cfg := Config{Type: SQLiteBackend, SQLiteDBPath: filepath.Join(t.TempDir(), "data", "financas.db")}
	factory := NewFactory(nil)

	first, err := factory.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	snap := &ledger.Snapshot{
		Generation: "gen-1",
		CreatedAt:  time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		Account: []core.LedgerEntry{{
			ID: "a1", HasID: true,
			Date:     core.NewDate(2024, 1, 5),
			Amount:   decimal.RequireFromString("-12.30"),
			Category: "Padaria",
		}},
	}
	if err := first.Store.Replace(ctx, snap); err != nil {
		t.Fatalf("Replace: %v", err)
	}
	if err := first.Cleanup(); err != nil {
		t.Fatalf("Cleanup: %v", err)
	}

	second, err := factory.CreateBackend(ctx, cfg)
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer second.Cleanup()

	got := second.Store.Snapshot()
	if got.Generation != "gen-1" || len(got.Account) != 1 || !got.Account[0].Amount.Equal(snap.Account[0].Amount) {
		t.Fatalf("generation not restored: %+v", got)
	}
}
