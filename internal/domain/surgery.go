package domain

import "time"

// SurgeryOutcome classifies the result of a surgery.
type SurgeryOutcome string

const (
	SurgeryOutcomeSurvival SurgeryOutcome = "Survival"
	SurgeryOutcomeAcute    SurgeryOutcome = "Acute"
)

// SurgeryKey is the composite key identifying a surgery record.
type SurgeryKey struct {
	AnimalID  string
	SurgeryID string
}

// Surgery is a tracked surgery record from the experiment store.
type Surgery struct {
	AnimalID  string
	SurgeryID string
	Username  string
	MouseRoom string
	Date      time.Time
	Outcome   SurgeryOutcome
}

// Key returns the composite key for the record.
func (s Surgery) Key() SurgeryKey {
	return SurgeryKey{AnimalID: s.AnimalID, SurgeryID: s.SurgeryID}
}

// SurgeryStatus is the latest follow-up snapshot for a surgery.
// DayOne/DayTwo/DayThree mark completed daily checkups; Euthanized is terminal.
type SurgeryStatus struct {
	AnimalID     string
	SurgeryID    string
	DayOne       bool
	DayTwo       bool
	DayThree     bool
	Euthanized   bool
	CheckupNotes string
	CreatedAt    time.Time
}
