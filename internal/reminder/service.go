package reminder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/cortexlab/labops/internal/chat"
	"github.com/cortexlab/labops/internal/domain"
)

// lookback bounds the sweep's record query. Anything older than the 3-day
// reminder window is out of scope.
const lookback = 4 * 24 * time.Hour

// Summary is the aggregate outcome of one reminder sweep.
type Summary struct {
	RunID   string   `json:"run_id"`
	Date    string   `json:"date"`
	DryRun  bool     `json:"dry_run"`
	Forced  bool     `json:"forced"`
	Sent    int      `json:"sent"`
	Skipped int      `json:"skipped"`
	Errors  int      `json:"errors"`
	Notes   []string `json:"notes"`
}

// TestResult is the outcome of a wiring test.
type TestResult struct {
	Test    bool   `json:"test"`
	DryRun  bool   `json:"dry_run"`
	Message string `json:"message"`
}

// Service drives the reminder sweep over tracked surgery records.
type Service struct {
	repo     Repository
	notifier *chat.Notifier
	baseURL  string
	logger   *slog.Logger
	title    cases.Caser
}

// NewService creates the reminder sweep service. baseURL is the dashboard's
// external URL, used to build status-update links in reminder messages.
func NewService(repo Repository, notifier *chat.Notifier, baseURL string, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		baseURL:  baseURL,
		logger:   logger,
		title:    cases.Title(language.English),
	}
}

// RunSweep evaluates every tracked surgery record against today's date and
// fans reminders out to the surgery channel, the surgery manager DM and the
// shikigami feed. No failure terminates the sweep; the returned summary is
// always complete, degraded at worst.
func (s *Service) RunSweep(ctx context.Context, today time.Time, force bool) Summary {
	summary := Summary{
		RunID:  uuid.NewString(),
		Date:   today.Format("2006-01-02"),
		DryRun: s.notifier.DryRun(),
		Forced: force,
		Notes:  []string{},
	}
	logger := s.logger.With("run_id", summary.RunID)

	surgeries, err := s.repo.RecentSurvivalSurgeries(ctx, today.Add(-lookback), today)
	if err != nil {
		summary.Errors++
		logger.Error("reminder sweep failed", "error", err)
		s.escalate(ctx, fmt.Sprintf(":rotating_light: Surgery notification job failed: %v", err))
		s.logSummary(logger, summary)
		return summary
	}

	for _, rec := range surgeries {
		status, err := s.repo.LatestStatus(ctx, rec.Key())
		switch {
		case errors.Is(err, ErrStatusNotFound):
			status = nil
		case err != nil:
			summary.Errors++
			summary.Notes = append(summary.Notes, fmt.Sprintf("error: status fetch failed (animal_id=%s)", rec.AnimalID))
			logger.Error("status fetch failed", "animal_id", rec.AnimalID, "surgery_id", rec.SurgeryID, "error", err)
			continue
		}

		decision := Evaluate(rec, status, today, force)
		if !decision.Send {
			summary.Skipped++
			summary.Notes = append(summary.Notes, fmt.Sprintf("skip: %s (animal_id=%s)", decision.SkipReason, rec.AnimalID))
			level := slog.LevelInfo
			if decision.SkipReason == "unknown_reason" {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "reminder skipped",
				"animal_id", rec.AnimalID,
				"day", decision.Day,
				"reason", decision.SkipReason,
			)
			continue
		}

		failures := s.dispatch(ctx, logger, rec)
		if failures > 0 {
			summary.Errors += failures
			continue
		}

		summary.Sent++
		note := fmt.Sprintf("sent: animal_id=%s day=%d", rec.AnimalID, decision.Day)
		if decision.Forced {
			note += " (forced)"
		}
		summary.Notes = append(summary.Notes, note)
	}

	s.logSummary(logger, summary)
	return summary
}

// dispatch fans one reminder out to all three destinations. Each delivery
// failure is counted and logged independently; the remaining destinations
// are still attempted.
func (s *Service) dispatch(ctx context.Context, logger *slog.Logger, rec domain.Surgery) int {
	msg := s.reminderText(rec)
	failures := 0

	if _, err := s.notifier.SendToSurgeryChannel(ctx, "Reminder: "+msg, true); err != nil {
		failures++
		logger.Error("surgery channel delivery failed", "animal_id", rec.AnimalID, "error", err)
	}
	if _, err := s.notifier.DMSurgeryManager(ctx, msg); err != nil {
		failures++
		logger.Error("surgery manager dm failed", "animal_id", rec.AnimalID, "error", err)
	}
	if _, err := s.notifier.SendToShikigamiFeed(ctx, "[surgery] "+msg, false); err != nil {
		failures++
		logger.Error("shikigami feed delivery failed", "animal_id", rec.AnimalID, "error", err)
	}

	if failures > 0 {
		s.alertManager(ctx, fmt.Sprintf(":rotating_light: Surgery notify send failed for animal %s", rec.AnimalID))
	}
	return failures
}

func (s *Service) reminderText(rec domain.Surgery) string {
	room := rec.MouseRoom
	if room == "" {
		room = "N/A"
	}
	editURL := fmt.Sprintf("<%s/surgery/update/%s/%s|Update Status Here>", s.baseURL, rec.AnimalID, rec.SurgeryID)
	return fmt.Sprintf("%s needs to check animal %s in room %s for surgery on %s. %s",
		s.title.String(rec.Username), rec.AnimalID, room, rec.Date.Format("2006-01-02"), editURL)
}

// RunWiringTest sends one synthetic message to all three destinations to
// validate configuration and logging, bypassing the record loop.
func (s *Service) RunWiringTest(ctx context.Context) (TestResult, error) {
	const msg = "[test] surgery notification logger check"
	result := TestResult{Test: true, DryRun: s.notifier.DryRun(), Message: msg}

	s.logger.Info("reminder wiring test", "dry_run", result.DryRun, "message", msg)

	var errs []error
	if _, err := s.notifier.SendToSurgeryChannel(ctx, msg, true); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.notifier.DMSurgeryManager(ctx, msg); err != nil {
		errs = append(errs, err)
	}
	if _, err := s.notifier.SendToShikigamiFeed(ctx, "[surgery] "+msg, false); err != nil {
		errs = append(errs, err)
	}

	if err := errors.Join(errs...); err != nil {
		s.logger.Error("reminder wiring test failed", "error", err)
		s.alertManager(ctx, fmt.Sprintf(":warning: Surgery notify test failed: %v", err))
		return result, err
	}
	return result, nil
}

// Backfill inserts a default status snapshot for every surgery that has
// none, and returns how many rows were created.
func (s *Service) Backfill(ctx context.Context) (int, error) {
	keys, err := s.repo.MissingStatusKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("find missing statuses: %w", err)
	}

	created := 0
	for _, key := range keys {
		if err := s.repo.InsertDefaultStatus(ctx, key); err != nil {
			return created, fmt.Errorf("backfill status for animal %s: %w", key.AnimalID, err)
		}
		created++
	}

	if created > 0 {
		s.logger.Info("backfilled surgery statuses", "created", created)
	}
	return created, nil
}

// escalate sends a best-effort failure notice to the shikigami feed and its
// manager. Errors here are already logged by the sender and dropped.
func (s *Service) escalate(ctx context.Context, msg string) {
	_, _ = s.notifier.SendToShikigamiFeed(ctx, msg, true)
	s.alertManager(ctx, msg)
}

func (s *Service) alertManager(ctx context.Context, msg string) {
	_, _ = s.notifier.DMShikigamiManager(ctx, msg)
}

// logSummary always fires, regardless of outcome counts.
func (s *Service) logSummary(logger *slog.Logger, summary Summary) {
	logger.Info("reminder sweep summary",
		"date", summary.Date,
		"sent", summary.Sent,
		"skipped", summary.Skipped,
		"errors", summary.Errors,
		"dry_run", summary.DryRun,
		"forced", summary.Forced,
	)
}
