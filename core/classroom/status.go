package classroom

import "time"

// SubmissionStatus is the dashboard-facing classification of a student's work on one assignment.
type SubmissionStatus string

const (
	StatusMissing     SubmissionStatus = "missing"
	StatusTurnedIn    SubmissionStatus = "turned_in"
	StatusResubmitted SubmissionStatus = "resubmitted"
	StatusLate        SubmissionStatus = "late"
	StatusPending     SubmissionStatus = "pending"
	StatusUnknown     SubmissionStatus = "unknown"
	StatusError       SubmissionStatus = "error"
)

func (s SubmissionStatus) Valid() bool {
	switch s {
	case StatusMissing, StatusTurnedIn, StatusResubmitted, StatusLate, StatusPending, StatusUnknown:
		return true
	}
	return false
}

// StatusOf classifies sub against cw at now. sub is nil when the student has no submission.
func StatusOf(cw CourseWork, sub *Submission, now time.Time) SubmissionStatus {
	if sub == nil {
		return StatusMissing
	}
	switch sub.State {
	case StateTurnedIn, StateReturned:
		return StatusTurnedIn
	case StateReclaimedByStudent:
		return StatusResubmitted
	case StateNew, StateCreated:
		if due, ok := cw.DueAt(now.Location()); ok && now.After(due) {
			return StatusLate
		}
		return StatusPending
	default:
		return StatusUnknown
	}
}

// IsOpen reports whether a submission state still counts as outstanding work.
func IsOpen(state string) bool {
	return state == StateNew || state == StateCreated
}
