package usage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"leadertalk-backend/internal/billing"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed usage store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) Get(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *pgStore) EnsurePeriod(ctx context.Context, userID string) (Usage, error) {
	return s.ensure(ctx, userID)
}

func (s *pgStore) Consume(ctx context.Context, userID string, entry Entry) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	u, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}

	// The dedupe runs before the limit gate: a retry of an already-charged
	// recording must stay a no-op even when that charge filled the cycle.
	var existingID string
	err = tx.QueryRowContext(ctx, `
SELECT id FROM usage_entries WHERE recording_id = $1`, entry.RecordingID).Scan(&existingID)
	if err == nil {
		if err = tx.Commit(); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Usage{}, err
	}
	err = nil

	if entry.WordCount <= 0 {
		if err = tx.Commit(); err != nil {
			return Usage{}, err
		}
		return u, nil
	}
	if u.Used+entry.WordCount > u.WordLimit {
		err = ErrLimitReached
		return Usage{}, err
	}

	now := time.Now().UTC()
	// The unique index on recording_id backstops concurrent charges for the
	// same recording.
	res, execErr := tx.ExecContext(ctx, `
INSERT INTO usage_entries (id, user_id, recording_id, word_count, cycle_number, cycle_start, cycle_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (recording_id) DO NOTHING`,
		uuid.NewString(), userID, entry.RecordingID, entry.WordCount,
		u.CycleNumber, u.CycleStart, u.CycleEnd, now)
	if execErr != nil {
		err = execErr
		return Usage{}, err
	}
	inserted, execErr := res.RowsAffected()
	if execErr != nil {
		err = execErr
		return Usage{}, err
	}
	if inserted > 0 {
		u.Used += entry.WordCount
		if _, err = tx.ExecContext(ctx, `
UPDATE word_usage SET used = $1 WHERE user_id = $2`, u.Used, userID); err != nil {
			return Usage{}, err
		}
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) ListEntries(ctx context.Context, userID string) ([]Entry, error) {
	const query = `
SELECT id, user_id, recording_id, word_count, cycle_number, cycle_start, cycle_end, created_at
FROM usage_entries
WHERE user_id = $1
ORDER BY created_at ASC`
	rows, err := s.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.UserID, &e.RecordingID, &e.WordCount,
			&e.CycleNumber, &e.CycleStart, &e.CycleEnd, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *pgStore) SetPlan(ctx context.Context, userID, plan string, wordLimit int) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	u.Plan = plan
	u.WordLimit = wordLimit
	if _, err = tx.ExecContext(ctx, `
UPDATE word_usage SET plan = $1, limit_amount = $2 WHERE user_id = $3`, plan, wordLimit, userID); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) Reset(ctx context.Context, userID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	now := time.Now().UTC()
	u := defaultUsage(now)
	if _, err = tx.ExecContext(ctx, `
INSERT INTO word_usage (user_id, plan, limit_amount, used, cycle_anchor, resets_at)
VALUES ($1, $2, $3, 0, $4, $5)
ON CONFLICT (user_id) DO UPDATE SET used = 0, cycle_anchor = EXCLUDED.cycle_anchor, resets_at = EXCLUDED.resets_at`,
		userID, u.Plan, u.WordLimit, now, u.ResetsAt); err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) ensure(ctx context.Context, userID string) (Usage, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return Usage{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	u, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return Usage{}, err
	}
	if err = tx.Commit(); err != nil {
		return Usage{}, err
	}
	return u, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (Usage, error) {
	var u Usage
	var anchor time.Time
	row := tx.QueryRowContext(ctx, `
SELECT plan, limit_amount, used, cycle_anchor, resets_at FROM word_usage WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&u.Plan, &u.WordLimit, &u.Used, &anchor, &u.ResetsAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			now := time.Now().UTC()
			u = defaultUsage(now)
			if _, err = tx.ExecContext(ctx, `
INSERT INTO word_usage (user_id, plan, limit_amount, used, cycle_anchor, resets_at) VALUES ($1, $2, $3, $4, $5, $6)`,
				userID, u.Plan, u.WordLimit, u.Used, now, u.ResetsAt); err != nil {
				return Usage{}, err
			}
			return u, nil
		}
		return Usage{}, err
	}

	now := time.Now().UTC()
	cycle := billing.CycleAt(anchor, now)
	u.CycleNumber = cycle.Number
	u.CycleStart = cycle.Start
	u.CycleEnd = cycle.End
	if now.After(u.ResetsAt) || now.Equal(u.ResetsAt) {
		u.Used = 0
		u.ResetsAt = cycle.End
		if _, err = tx.ExecContext(ctx, `UPDATE word_usage SET used = $1, resets_at = $2 WHERE user_id = $3`, u.Used, u.ResetsAt, userID); err != nil {
			return Usage{}, err
		}
	} else {
		u.ResetsAt = u.ResetsAt.UTC()
	}
	return u, nil
}
