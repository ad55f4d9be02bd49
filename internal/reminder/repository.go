package reminder

import (
	"context"
	"errors"
	"time"

	"github.com/cortexlab/labops/internal/domain"
)

// Repository errors.
var (
	ErrStatusNotFound = errors.New("surgery status not found")
)

// Repository is the tracked-record store the sweep reads from. Records are
// created and mutated by the dashboard's web layer; the sweep only reads
// them, plus the backfill write for missing status rows.
type Repository interface {
	// RecentSurvivalSurgeries returns survival-outcome surgeries with
	// after < date < before, newest first.
	RecentSurvivalSurgeries(ctx context.Context, after, before time.Time) ([]domain.Surgery, error)

	// LatestStatus returns the newest status snapshot for a surgery, or
	// ErrStatusNotFound when the record has none.
	LatestStatus(ctx context.Context, key domain.SurgeryKey) (*domain.SurgeryStatus, error)

	// MissingStatusKeys lists surgeries without any status snapshot.
	MissingStatusKeys(ctx context.Context) ([]domain.SurgeryKey, error)

	// InsertDefaultStatus creates an all-clear status row for a surgery.
	InsertDefaultStatus(ctx context.Context, key domain.SurgeryKey) error
}
