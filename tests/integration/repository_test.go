//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cortexlab/labops/internal/domain"
	"github.com/cortexlab/labops/internal/pkg/postgres"
	"github.com/cortexlab/labops/internal/reminder"
	reminderpostgres "github.com/cortexlab/labops/internal/reminder/postgres"
	"github.com/cortexlab/labops/internal/testutil"
)

func setupRepository(t *testing.T) (*reminderpostgres.Repository, *pgxpool.Pool) {
	t.Helper()
	ctx := context.Background()

	container, err := testutil.NewPostgresContainer(ctx)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(ctx) })

	require.NoError(t, postgres.Migrate(container.ConnectionString, "../../migrations"))

	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             container.ConnectionString,
		MaxOpenConns:    5,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectAttempts: 3,
	})
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	return reminderpostgres.NewRepository(pool), pool
}

func insertSurgery(t *testing.T, pool *pgxpool.Pool, animalID, surgeryID string, outcome domain.SurgeryOutcome, date time.Time) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO surgery (animal_id, surgery_id, username, mouse_room, date, surgery_outcome)
		VALUES ($1, $2, 'jdoe', 'R12', $3, $4)
	`, animalID, surgeryID, date, string(outcome))
	require.NoError(t, err)
}

func TestRepository_RecentSurvivalSurgeries(t *testing.T) {
	repo, pool := setupRepository(t)
	now := time.Now().UTC().Truncate(24 * time.Hour)

	insertSurgery(t, pool, "A100", "S1", domain.SurgeryOutcomeSurvival, now.AddDate(0, 0, -1))
	insertSurgery(t, pool, "A200", "S1", domain.SurgeryOutcomeSurvival, now.AddDate(0, 0, -3))
	insertSurgery(t, pool, "A300", "S1", domain.SurgeryOutcomeAcute, now.AddDate(0, 0, -1))
	insertSurgery(t, pool, "A400", "S1", domain.SurgeryOutcomeSurvival, now.AddDate(0, 0, -10))

	got, err := repo.RecentSurvivalSurgeries(context.Background(), now.AddDate(0, 0, -4), now.AddDate(0, 0, 1))
	require.NoError(t, err)

	require.Len(t, got, 2, "non-survival and out-of-window rows are excluded")
	assert.Equal(t, "A100", got[0].AnimalID, "newest first")
	assert.Equal(t, "A200", got[1].AnimalID)
	assert.Equal(t, "jdoe", got[0].Username)
	assert.Equal(t, "R12", got[0].MouseRoom)
}

func TestRepository_LatestStatus(t *testing.T) {
	repo, pool := setupRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertSurgery(t, pool, "A100", "S1", domain.SurgeryOutcomeSurvival, now)
	key := domain.SurgeryKey{AnimalID: "A100", SurgeryID: "S1"}

	_, err := repo.LatestStatus(ctx, key)
	require.ErrorIs(t, err, reminder.ErrStatusNotFound)

	_, err = pool.Exec(ctx, `
		INSERT INTO surgery_status (animal_id, surgery_id, day_one, created_at)
		VALUES ('A100', 'S1', TRUE, $1)
	`, now.Add(-time.Hour))
	require.NoError(t, err)
	_, err = pool.Exec(ctx, `
		INSERT INTO surgery_status (animal_id, surgery_id, day_one, day_two, checkup_notes, created_at)
		VALUES ('A100', 'S1', TRUE, TRUE, 'looking good', $1)
	`, now)
	require.NoError(t, err)

	status, err := repo.LatestStatus(ctx, key)
	require.NoError(t, err)
	assert.True(t, status.DayOne)
	assert.True(t, status.DayTwo, "the newest snapshot wins")
	assert.False(t, status.Euthanized)
	assert.Equal(t, "looking good", status.CheckupNotes)
}

func TestRepository_BackfillRoundTrip(t *testing.T) {
	repo, pool := setupRepository(t)
	ctx := context.Background()
	now := time.Now().UTC()

	insertSurgery(t, pool, "A100", "S1", domain.SurgeryOutcomeSurvival, now)
	insertSurgery(t, pool, "A200", "S1", domain.SurgeryOutcomeSurvival, now)
	require.NoError(t, repo.InsertDefaultStatus(ctx, domain.SurgeryKey{AnimalID: "A200", SurgeryID: "S1"}))

	missing, err := repo.MissingStatusKeys(ctx)
	require.NoError(t, err)
	require.Len(t, missing, 1)
	assert.Equal(t, domain.SurgeryKey{AnimalID: "A100", SurgeryID: "S1"}, missing[0])

	require.NoError(t, repo.InsertDefaultStatus(ctx, missing[0]))

	missing, err = repo.MissingStatusKeys(ctx)
	require.NoError(t, err)
	assert.Empty(t, missing)

	status, err := repo.LatestStatus(ctx, domain.SurgeryKey{AnimalID: "A100", SurgeryID: "S1"})
	require.NoError(t, err)
	assert.False(t, status.DayOne)
	assert.False(t, status.Euthanized)
	assert.Empty(t, status.CheckupNotes)
}
