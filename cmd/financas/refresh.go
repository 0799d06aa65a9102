package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/google/subcommands"

	"financas/internal/cli"
	"financas/internal/config"
	"financas/internal/log"
	"financas/internal/storage"
)

type refreshCmd struct{}

func (*refreshCmd) Name() string     { return "refresh" }
func (*refreshCmd) Synopsis() string { return "re-ingest the account and invoice exports" }
func (*refreshCmd) Usage() string {
	return `financas refresh

  Reads every CSV under ACCOUNT_DIR and INVOICE_DIR, rebuilds the ledger and
  publishes it as a new generation. On failure the previous generation stays
  visible. Prints the refresh result as JSON.
`
}

func (*refreshCmd) SetFlags(*flag.FlagSet) {}

func (c *refreshCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	a.open(ctx)

	res, err := a.orch.Refresh(ctx)
	if werr := writeJSON(os.Stdout, res); werr != nil {
		return fail(werr)
	}
	if err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type requestRefreshCmd struct {
	requestedBy string
}

func (*requestRefreshCmd) Name() string     { return "request-refresh" }
func (*requestRefreshCmd) Synopsis() string { return "ask financas-worker for a refresh over AMQP" }
func (*requestRefreshCmd) Usage() string {
	return `financas request-refresh [-by <name>]

  Publishes a refresh request to AMQP_QUEUE. The worker reports the outcome
  on AMQP_EVENTS_QUEUE. Prints the request id.
`
}

func (c *requestRefreshCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.requestedBy, "by", "cli", "Name recorded as the requester")
}

func (c *requestRefreshCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	cfg, logger := cli.Bootstrap()

	client, err := cli.InitAMQP(logger, cfg)
	if err != nil {
		return fail(err)
	}
	defer client.Close()

	id, err := client.PublishRefreshRequest(ctx, c.requestedBy)
	if err != nil {
		return fail(err)
	}
	if err := writeJSON(os.Stdout, map[string]string{"request_id": id}); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type statusCmd struct{}

func (*statusCmd) Name() string     { return "status" }
func (*statusCmd) Synopsis() string { return "show the visible ledger generation" }
func (*statusCmd) Usage() string {
	return `financas status

  Prints the visible generation, its entry counts and, for the sqlite
  backend, the schema version.
`
}

func (*statusCmd) SetFlags(*flag.FlagSet) {}

type statusView struct {
	Backend        string `json:"backend"`
	Generation     string `json:"generation,omitempty"`
	CreatedAt      string `json:"created_at,omitempty"`
	AccountEntries int    `json:"account_entries"`
	InvoiceEntries int    `json:"invoice_entries"`
	SchemaVersion  *uint  `json:"schema_version,omitempty"`
}

func (c *statusCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	a := appFrom(args)
	a.open(ctx)

	snap := a.res.Store.Snapshot()
	view := statusView{
		Backend:        a.cfg.LedgerBackend,
		Generation:     snap.Generation,
		AccountEntries: len(snap.Account),
		InvoiceEntries: len(snap.Invoice),
	}
	if snap.Loaded() {
		view.CreatedAt = snap.CreatedAt.Format(time.RFC3339)
	}
	if a.cfg.LedgerBackend == config.BackendSQLite {
		version, dirty, err := storage.SchemaVersion(a.cfg.SQLiteDBPath)
		if err != nil {
			return fail(err)
		}
		if dirty {
			a.logger.WarnContext(ctx, "Ledger schema is dirty", "version", version, log.FieldPath, a.cfg.SQLiteDBPath)
		}
		view.SchemaVersion = &version
	}
	if err := writeJSON(os.Stdout, view); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
