package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/klauspost/compress/zstd"

	"gasledger/internal/core/id"
	"gasledger/internal/domain/recompute"
)

// CompressionAlgo specifies the compression algorithm used.
type CompressionAlgo string

const (
	CompressionNone CompressionAlgo = "none"
	CompressionZstd CompressionAlgo = "zstd"
)

// JournalStore persists recompute run entries. Anomaly reports can get
// large on backfills (one LedgerGap per product per missing day), so
// payloads over the threshold are zstd-compressed.
type JournalStore struct {
	txManager         *TxManager
	encoder           *zstd.Encoder
	decoder           *zstd.Decoder
	compressThreshold int // bytes
}

// NewJournalStore creates a journal store.
func NewJournalStore(txManager *TxManager) (*JournalStore, error) {
	encoder, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}

	decoder, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd decoder: %w", err)
	}

	return &JournalStore{
		txManager:         txManager,
		encoder:           encoder,
		decoder:           decoder,
		compressThreshold: 10 * 1024, // 10KB
	}, nil
}

// journalPayload is the JSON shape stored in the report column.
type journalPayload struct {
	Anomalies any      `json:"anomalies,omitempty"`
	Failures  []string `json:"failures,omitempty"`
}

// Write records a run entry.
func (s *JournalStore) Write(ctx context.Context, entry recompute.RunEntry) error {
	if id.IsNil(entry.ID) {
		entry.ID = id.New()
	}
	if entry.RunAt.IsZero() {
		entry.RunAt = time.Now().UTC()
	}

	payload, err := json.Marshal(journalPayload{
		Anomalies: entry.Anomalies,
		Failures:  entry.Failures,
	})
	if err != nil {
		return fmt.Errorf("marshal journal payload: %w", err)
	}

	var compressed []byte
	algo := CompressionNone
	if len(payload) > s.compressThreshold {
		compressed = s.encoder.EncodeAll(payload, nil)
		payload = nil
		algo = CompressionZstd
	}

	sql := `
		INSERT INTO reconcile_run_journal (
			id, tenant_id, run_at, ledger_date, units, failed_units,
			report, report_compressed, compression_algo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	querier := s.txManager.GetQuerier(ctx)
	_, err = querier.Exec(ctx, sql,
		entry.ID, entry.TenantID, entry.RunAt, entry.Date.Time(),
		entry.Units, entry.FailedUnits,
		payload, compressed, algo,
	)
	if err != nil {
		return fmt.Errorf("insert journal entry: %w", err)
	}

	return nil
}

// ReadReport returns the decompressed report payload of a run.
func (s *JournalStore) ReadReport(ctx context.Context, entryID id.ID) (json.RawMessage, error) {
	sql := `
		SELECT report, report_compressed, compression_algo
		FROM reconcile_run_journal
		WHERE id = $1
	`

	var (
		report     []byte
		compressed []byte
		algo       CompressionAlgo
	)
	querier := s.txManager.GetQuerier(ctx)
	if err := querier.QueryRow(ctx, sql, entryID).Scan(&report, &compressed, &algo); err != nil {
		return nil, fmt.Errorf("read journal entry: %w", err)
	}

	if algo == CompressionZstd {
		decoded, err := s.decoder.DecodeAll(compressed, nil)
		if err != nil {
			return nil, fmt.Errorf("decompress journal report: %w", err)
		}
		return decoded, nil
	}
	return report, nil
}

var _ recompute.JournalWriter = (*JournalStore)(nil)
