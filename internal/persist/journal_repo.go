package persist

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// RunRecord is written when the controllers have been ordered.
type RunRecord struct {
	ID          uuid.UUID
	App         string
	Order       []string
	Fingerprint string
	StartedAt   time.Time
}

// FrameSample is one sampled frame timing.
type FrameSample struct {
	Frame   uint64
	DT      float64
	TakenAt time.Time
}

// RunEnd closes a run.
type RunEnd struct {
	Frames    uint64
	StoppedBy string
	Reason    string
	EndedAt   time.Time
}

type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) StartRun(ctx context.Context, run RunRecord) error {
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO journal_runs (id, app, controllers, fingerprint, started_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		run.ID, run.App, run.Order, run.Fingerprint, run.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("journal start run: %w", err)
	}
	return nil
}

// AppendSamples writes a batch of samples in one round trip.
func (r *JournalRepo) AppendSamples(ctx context.Context, runID uuid.UUID, samples []FrameSample) error {
	if len(samples) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, s := range samples {
		batch.Queue(
			`INSERT INTO journal_frames (run_id, frame, dt, taken_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (run_id, frame) DO NOTHING`,
			runID, int64(s.Frame), s.DT, s.TakenAt,
		)
	}
	if err := r.db.Pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("journal append samples: %w", err)
	}
	return nil
}

func (r *JournalRepo) FinishRun(ctx context.Context, runID uuid.UUID, end RunEnd) error {
	tag, err := r.db.Pool.Exec(ctx,
		`UPDATE journal_runs
		    SET ended_at = $2, frames = $3, stopped_by = $4, reason = $5
		  WHERE id = $1`,
		runID, end.EndedAt, int64(end.Frames), end.StoppedBy, end.Reason,
	)
	if err != nil {
		return fmt.Errorf("journal finish run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("journal finish run: run %s not found", runID)
	}
	return nil
}

// RecentRuns returns the latest runs, newest first.
func (r *JournalRepo) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := r.db.Pool.Query(ctx,
		`SELECT id, app, controllers, fingerprint, started_at
		   FROM journal_runs
		  ORDER BY started_at DESC
		  LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("journal recent runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		var run RunRecord
		if err := rows.Scan(&run.ID, &run.App, &run.Order, &run.Fingerprint, &run.StartedAt); err != nil {
			return nil, fmt.Errorf("journal scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
