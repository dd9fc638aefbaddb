package users

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

type PGRepo struct {
	DB *sql.DB
}

func (r *PGRepo) Upsert(ctx context.Context, user User) error {
	const query = `
INSERT INTO users (id, email, full_name, picture_url, subscription_started_at, created_at, updated_at)
VALUES ($1, $2, $3, $4, now(), now(), now())
ON CONFLICT (id) DO UPDATE SET
  email = EXCLUDED.email,
  full_name = EXCLUDED.full_name,
  picture_url = EXCLUDED.picture_url,
  updated_at = now()`
	_, err := r.DB.ExecContext(ctx, query,
		user.ID,
		user.Email,
		nullableString(user.FullName),
		nullableString(user.PictureURL),
	)
	return err
}

func (r *PGRepo) GetByID(ctx context.Context, userID string) (User, error) {
	const query = `
SELECT id, email, full_name, picture_url, goals,
       array_to_string(selected_leaders, E'\n'),
       onboarding_completed, subscription_started_at, created_at, updated_at
FROM users
WHERE id = $1
LIMIT 1`
	var user User
	var fullName sql.NullString
	var pictureURL sql.NullString
	var goals sql.NullString
	var selectedLeaders string
	var startedAt sql.NullTime
	var updatedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(
		&user.ID,
		&user.Email,
		&fullName,
		&pictureURL,
		&goals,
		&selectedLeaders,
		&user.OnboardingCompleted,
		&startedAt,
		&user.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return User{}, ErrNotFound
		}
		return User{}, err
	}
	if fullName.Valid {
		user.FullName = fullName.String
	}
	if pictureURL.Valid {
		user.PictureURL = pictureURL.String
	}
	if goals.Valid {
		user.Goals = goals.String
	}
	if selectedLeaders != "" {
		user.SelectedLeaders = strings.Split(selectedLeaders, "\n")
	}
	if startedAt.Valid {
		t := startedAt.Time
		user.SubscriptionStartedAt = &t
	}
	if updatedAt.Valid {
		user.UpdatedAt = updatedAt.Time
	} else {
		user.UpdatedAt = time.Now().UTC()
	}
	return user, nil
}

func (r *PGRepo) SetOnboarding(ctx context.Context, userID, goals string, selectedLeaders []string) error {
	const query = `
UPDATE users
SET goals = $2,
    selected_leaders = string_to_array($3, E'\n'),
    onboarding_completed = TRUE,
    updated_at = now()
WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, userID, goals, strings.Join(selectedLeaders, "\n"))
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
