package export

import (
	"context"
	"database/sql"
	"fmt"
)

// TxRunner is implemented by pkg/postgres.Client.
type TxRunner interface {
	InTx(ctx context.Context, fn func(tx *sql.Tx) error) error
}

// Postgres writes a run and its words in one transaction.
//
// It requires:
//
//	CREATE TABLE wordfreq_runs (
//	    run_id      TEXT PRIMARY KEY,
//	    total_words BIGINT NOT NULL,
//	    distinct_words BIGINT NOT NULL,
//	    captured_at TIMESTAMPTZ NOT NULL
//	);
//	CREATE TABLE wordfreq_words (
//	    run_id TEXT NOT NULL REFERENCES wordfreq_runs(run_id) ON DELETE CASCADE,
//	    word   TEXT NOT NULL,
//	    count  BIGINT NOT NULL,
//	    PRIMARY KEY (run_id, word)
//	);
type Postgres struct {
	db TxRunner
}

func NewPostgres(db TxRunner) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Name() string { return "postgres" }

func (p *Postgres) Export(ctx context.Context, snap Snapshot) error {
	return p.db.InTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO wordfreq_runs (run_id, total_words, distinct_words, captured_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id) DO UPDATE
			 SET total_words = EXCLUDED.total_words,
			     distinct_words = EXCLUDED.distinct_words,
			     captured_at = EXCLUDED.captured_at`,
			snap.RunID, snap.Total, len(snap.Entries), snap.CapturedAt,
		)
		if err != nil {
			return fmt.Errorf("inserting run %s: %w", snap.RunID, err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM wordfreq_words WHERE run_id = $1`, snap.RunID); err != nil {
			return fmt.Errorf("clearing words for run %s: %w", snap.RunID, err)
		}
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO wordfreq_words (run_id, word, count) VALUES ($1, $2, $3)`)
		if err != nil {
			return fmt.Errorf("preparing word insert: %w", err)
		}
		defer stmt.Close()
		for _, e := range snap.Entries {
			if _, err := stmt.ExecContext(ctx, snap.RunID, e.Word, e.Count); err != nil {
				return fmt.Errorf("inserting word %q: %w", e.Word, err)
			}
		}
		return nil
	})
}
