package chat

import (
	"context"
	"log/slog"
)

// SendStatus classifies the outcome of one delivery attempt.
type SendStatus string

// Send statuses.
const (
	StatusSent    SendStatus = "sent"
	StatusSkipped SendStatus = "skipped"
	StatusFailed  SendStatus = "failed"
)

// SendResult is the outcome of one (destination, message) delivery.
type SendResult struct {
	Status SendStatus
	Reason string // set for skipped and failed
	Ref    string // delivery timestamp for sent
}

// Skipped reports whether the delivery was skipped.
func (r SendResult) Skipped() bool { return r.Status == StatusSkipped }

// Sender delivers text to resolved conversation IDs. Every attempt logs a
// PLAN line before the call and an outcome line (SENT, DRY-RUN, SKIP or
// ERROR) after, so the audit trail is complete even for dry runs.
type Sender struct {
	api    API
	dryRun bool
	logger *slog.Logger
}

// NewSender creates a message sender. With dryRun set, deliveries are logged
// but never transmitted.
func NewSender(api API, dryRun bool, logger *slog.Logger) *Sender {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sender{api: api, dryRun: dryRun, logger: logger}
}

// DryRun reports whether the sender is in dry-run mode.
func (s *Sender) DryRun() bool { return s.dryRun }

// Send posts text to channelID. target is the human-readable destination
// label used only for logging. Delivery failures are logged and returned to
// the caller; missing inputs and dry runs are skips, not errors.
func (s *Sender) Send(ctx context.Context, target, channelID, text string) (SendResult, error) {
	if channelID == "" || text == "" {
		s.log("SKIP", target, channelID, text, "missing channel or text")
		recordMessagePhase("skip")
		return SendResult{Status: StatusSkipped, Reason: "missing channel or text"}, nil
	}

	s.log("PLAN", target, channelID, text, "")
	recordMessagePhase("plan")

	if s.dryRun {
		s.log("DRY-RUN", target, channelID, text, "")
		recordMessagePhase("dry_run")
		return SendResult{Status: StatusSkipped, Reason: "dry_run"}, nil
	}

	ts, err := s.api.PostMessage(ctx, channelID, text)
	if err != nil {
		s.log("ERROR", target, channelID, text, ErrorCode(err))
		recordMessagePhase("error")
		return SendResult{Status: StatusFailed, Reason: ErrorCode(err)}, err
	}

	s.log("SENT", target, channelID, text, "ts="+ts)
	recordMessagePhase("sent")
	return SendResult{Status: StatusSent, Ref: ts}, nil
}

func (s *Sender) log(phase, target, resolved, text, extra string) {
	attrs := []any{
		"phase", phase,
		"target", target,
		"dry_run", s.dryRun,
		"text", text,
	}
	if resolved != "" {
		attrs = append(attrs, "resolved", resolved)
	}
	if extra != "" {
		attrs = append(attrs, "note", extra)
	}
	s.logger.Info("chat delivery", attrs...)
}
