// Package reminder implements the surgery follow-up reminder sweep: the
// per-record decision policy and the fan-out to the configured chat
// destinations.
package reminder

import (
	"fmt"
	"strings"
	"time"

	"github.com/cortexlab/labops/internal/domain"
)

// dayBuckets maps elapsed days to the status flag covering that day.
var dayBuckets = map[int]string{
	1: "day_one",
	2: "day_two",
	3: "day_three",
}

// Decision is the evaluation outcome for one tracked record.
type Decision struct {
	Send       bool
	Day        int    // 1, 2 or 3 when inside the reminder window
	Bucket     string // day_one / day_two / day_three
	SkipReason string // set when Send is false
	Forced     bool   // force was the deciding factor
}

// Evaluate decides whether a reminder is due for rec on today's date. The
// decision is idempotent: it depends only on the record's date, its latest
// status snapshot and the force flag, never on previous runs.
func Evaluate(rec domain.Surgery, status *domain.SurgeryStatus, today time.Time, force bool) Decision {
	delta := daysBetween(rec.Date, today)
	if delta < 1 || delta > 3 {
		return Decision{SkipReason: fmt.Sprintf("delta_days=%d", delta)}
	}

	if status == nil {
		return Decision{Day: delta, SkipReason: "no_status"}
	}

	bucket := dayBuckets[delta]
	checked := dayFlag(status, delta)

	shouldSend := force || (!status.Euthanized && !checked)
	if !shouldSend {
		var flags []string
		if status.Euthanized {
			flags = append(flags, "euthanized=1")
		}
		if checked {
			flags = append(flags, bucket+"=1")
		}
		reason := strings.Join(flags, " and ")
		if reason == "" {
			// Cannot happen unless the guard expression above is wrong;
			// surfaced rather than silently swallowed.
			reason = "unknown_reason"
		}
		return Decision{Day: delta, Bucket: bucket, SkipReason: reason}
	}

	return Decision{
		Send:   true,
		Day:    delta,
		Bucket: bucket,
		Forced: force && (status.Euthanized || checked),
	}
}

func dayFlag(status *domain.SurgeryStatus, day int) bool {
	switch day {
	case 1:
		return status.DayOne
	case 2:
		return status.DayTwo
	case 3:
		return status.DayThree
	}
	return false
}

// daysBetween returns whole calendar days from one date to another,
// ignoring the time-of-day components.
func daysBetween(from, to time.Time) int {
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}
