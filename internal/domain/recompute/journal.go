// Package recompute orchestrates batch ledger recomputation across
// tenants and records each run in the journal.
package recompute

import (
	"context"
	"time"

	"gasledger/internal/core/anomaly"
	"gasledger/internal/core/id"
	"gasledger/internal/core/types"
)

// RunEntry is one journal row: what ran, for which tenant and date, how
// many units succeeded or failed, and the full anomaly report for
// operator forensics.
type RunEntry struct {
	ID       id.ID      `db:"id"`
	TenantID id.ID      `db:"tenant_id"`
	RunAt    time.Time  `db:"run_at"`
	Date     types.Date `db:"ledger_date"`

	Units       int `db:"units"`
	FailedUnits int `db:"failed_units"`

	Anomalies []anomaly.Anomaly `db:"-"`

	// Failures holds per-unit error strings; a failed unit never aborts
	// the rest of the run.
	Failures []string `db:"-"`
}

// JournalWriter persists run entries. Large anomaly payloads are
// compressed by the implementation before storage.
type JournalWriter interface {
	Write(ctx context.Context, entry RunEntry) error
}

// NopJournal discards entries; used in tests and one-off CLI runs.
type NopJournal struct{}

func (NopJournal) Write(ctx context.Context, entry RunEntry) error { return nil }
