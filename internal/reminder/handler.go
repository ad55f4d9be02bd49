package reminder

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/cortexlab/labops/internal/pkg/httputil"
)

// Handler exposes the reminder operations over HTTP. These endpoints are
// driven by cron, not by browsers.
type Handler struct {
	service *Service
	now     func() time.Time
}

// NewHandler creates a reminder handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service, now: time.Now}
}

// RegisterRoutes registers reminder routes.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/surgery/notification", h.Notification)
	r.Get("/surgery/spawn_missing_data", h.SpawnMissingData)
}

// Notification handles GET /surgery/notification.
// Query parameters: force=1 overrides the status-flag guards, test=1 sends a
// single wiring-test message instead of running the sweep.
func (h *Handler) Notification(w http.ResponseWriter, r *http.Request) {
	force := parseFlag(r.URL.Query().Get("force"))
	test := parseFlag(r.URL.Query().Get("test"))

	if test {
		result, err := h.service.RunWiringTest(r.Context())
		if err != nil {
			httputil.JSON(w, http.StatusInternalServerError, map[string]any{
				"status": "error",
				"error":  err.Error(),
			})
			return
		}
		httputil.JSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"test":    true,
			"dry_run": result.DryRun,
			"message": result.Message,
		})
		return
	}

	summary := h.service.RunSweep(r.Context(), h.now(), force)
	httputil.JSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"run_id":  summary.RunID,
		"date":    summary.Date,
		"dry_run": summary.DryRun,
		"sent":    summary.Sent,
		"skipped": summary.Skipped,
		"errors":  summary.Errors,
		"notes":   summary.Notes,
		"forced":  summary.Forced,
	})
}

// SpawnMissingData handles GET /surgery/spawn_missing_data.
func (h *Handler) SpawnMissingData(w http.ResponseWriter, r *http.Request) {
	if _, err := h.service.Backfill(r.Context()); err != nil {
		httputil.HandleError(r.Context(), w, err, nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// parseFlag accepts the flag spellings the dashboard's cron jobs use.
func parseFlag(v string) bool {
	switch strings.ToLower(v) {
	case "1", "true", "yes", "y":
		return true
	}
	return false
}
