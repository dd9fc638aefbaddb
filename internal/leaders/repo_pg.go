package leaders

import (
	"context"
	"database/sql"
	"errors"
	"strings"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Traits are stored as TEXT[]; selecting them joined keeps scanning on plain
// database/sql without an array codec.
const listQuery = `
SELECT id, name, title, bio, array_to_string(traits, E'\n'), sample_quote, featured, sort_order
FROM leaders
ORDER BY sort_order ASC`

func (r *PGRepo) List(ctx context.Context) ([]Leader, error) {
	rows, err := r.DB.QueryContext(ctx, listQuery)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Leader
	for rows.Next() {
		leader, err := scanLeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, leader)
	}
	return out, rows.Err()
}

func (r *PGRepo) ListFeatured(ctx context.Context) ([]Leader, error) {
	const query = `
SELECT id, name, title, bio, array_to_string(traits, E'\n'), sample_quote, featured, sort_order
FROM leaders
WHERE featured = TRUE
ORDER BY sort_order ASC`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Leader
	for rows.Next() {
		leader, err := scanLeader(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, leader)
	}
	return out, rows.Err()
}

func (r *PGRepo) GetByID(ctx context.Context, leaderID string) (Leader, error) {
	const query = `
SELECT id, name, title, bio, array_to_string(traits, E'\n'), sample_quote, featured, sort_order
FROM leaders
WHERE id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, leaderID)
	leader, err := scanLeader(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Leader{}, ErrNotFound
		}
		return Leader{}, err
	}
	return leader, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLeader(row rowScanner) (Leader, error) {
	var leader Leader
	var traits string
	if err := row.Scan(
		&leader.ID,
		&leader.Name,
		&leader.Title,
		&leader.Bio,
		&traits,
		&leader.SampleQuote,
		&leader.Featured,
		&leader.SortOrder,
	); err != nil {
		return Leader{}, err
	}
	if traits != "" {
		leader.Traits = strings.Split(traits, "\n")
	}
	return leader, nil
}
