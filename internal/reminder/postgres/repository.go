// Package postgres provides the PostgreSQL implementation of the reminder
// repository.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cortexlab/labops/internal/domain"
	"github.com/cortexlab/labops/internal/reminder"
)

// Repository implements reminder.Repository using PostgreSQL.
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL repository.
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// RecentSurvivalSurgeries returns survival-outcome surgeries strictly inside
// the (after, before) date window, newest first.
func (r *Repository) RecentSurvivalSurgeries(ctx context.Context, after, before time.Time) ([]domain.Surgery, error) {
	query := `
		SELECT animal_id, surgery_id, username, mouse_room, date, surgery_outcome
		FROM surgery
		WHERE surgery_outcome = 'Survival' AND date > $1 AND date < $2
		ORDER BY date DESC
	`
	rows, err := r.db.Query(ctx, query, after, before)
	if err != nil {
		return nil, fmt.Errorf("list recent surgeries: %w", err)
	}
	defer rows.Close()

	surgeries := make([]domain.Surgery, 0)
	for rows.Next() {
		var s domain.Surgery
		if err := rows.Scan(&s.AnimalID, &s.SurgeryID, &s.Username, &s.MouseRoom, &s.Date, &s.Outcome); err != nil {
			return nil, fmt.Errorf("scan surgery: %w", err)
		}
		surgeries = append(surgeries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surgeries: %w", err)
	}

	return surgeries, nil
}

// LatestStatus returns the newest status snapshot for a surgery.
func (r *Repository) LatestStatus(ctx context.Context, key domain.SurgeryKey) (*domain.SurgeryStatus, error) {
	query := `
		SELECT animal_id, surgery_id, day_one, day_two, day_three, euthanized, checkup_notes, created_at
		FROM surgery_status
		WHERE animal_id = $1 AND surgery_id = $2
		ORDER BY created_at DESC
		LIMIT 1
	`
	var status domain.SurgeryStatus
	err := r.db.QueryRow(ctx, query, key.AnimalID, key.SurgeryID).Scan(
		&status.AnimalID,
		&status.SurgeryID,
		&status.DayOne,
		&status.DayTwo,
		&status.DayThree,
		&status.Euthanized,
		&status.CheckupNotes,
		&status.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, reminder.ErrStatusNotFound
		}
		return nil, fmt.Errorf("get latest status: %w", err)
	}
	return &status, nil
}

// MissingStatusKeys lists surgeries that have no status snapshot at all.
func (r *Repository) MissingStatusKeys(ctx context.Context) ([]domain.SurgeryKey, error) {
	query := `
		SELECT s.animal_id, s.surgery_id
		FROM surgery s
		LEFT JOIN surgery_status st
			ON st.animal_id = s.animal_id AND st.surgery_id = s.surgery_id
		WHERE st.animal_id IS NULL
	`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list missing statuses: %w", err)
	}
	defer rows.Close()

	keys := make([]domain.SurgeryKey, 0)
	for rows.Next() {
		var key domain.SurgeryKey
		if err := rows.Scan(&key.AnimalID, &key.SurgeryID); err != nil {
			return nil, fmt.Errorf("scan surgery key: %w", err)
		}
		keys = append(keys, key)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate surgery keys: %w", err)
	}

	return keys, nil
}

// InsertDefaultStatus creates an all-clear status row for a surgery.
func (r *Repository) InsertDefaultStatus(ctx context.Context, key domain.SurgeryKey) error {
	query := `
		INSERT INTO surgery_status (animal_id, surgery_id)
		VALUES ($1, $2)
	`
	if _, err := r.db.Exec(ctx, query, key.AnimalID, key.SurgeryID); err != nil {
		return fmt.Errorf("insert default status: %w", err)
	}
	return nil
}
