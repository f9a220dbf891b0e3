package classroom

import (
	"fmt"
	"time"
)

type Role string

const (
	RoleStudent     Role = "student"
	RoleTeacher     Role = "teacher"
	RoleCoordinator Role = "coordinator"
)

var AllRoles = []Role{RoleStudent, RoleTeacher, RoleCoordinator}

func (r Role) Valid() bool {
	for _, role := range AllRoles {
		if r == role {
			return true
		}
	}
	return false
}

// Submission states as reported by Classroom.
const (
	StateNew                = "NEW"
	StateCreated            = "CREATED"
	StateTurnedIn           = "TURNED_IN"
	StateReturned           = "RETURNED"
	StateReclaimedByStudent = "RECLAIMED_BY_STUDENT"
)

// Date is a calendar date without time zone. The zero value means "unset".
type Date struct {
	Year  int `json:"year"`
	Month int `json:"month"`
	Day   int `json:"day"`
}

func (d Date) IsZero() bool { return d == Date{} }

// String formats d as dd/mm/yyyy.
func (d Date) String() string {
	return fmt.Sprintf("%02d/%02d/%d", d.Day, d.Month, d.Year)
}

// In returns midnight of d in loc.
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year, time.Month(d.Month), d.Day, 0, 0, 0, 0, loc)
}

type TimeOfDay struct {
	Hours   int `json:"hours"`
	Minutes int `json:"minutes"`
}

type (
	Member struct {
		UserID   string `json:"userId"`
		Name     string `json:"name"`
		Email    string `json:"email"`
		PhotoURL string `json:"photoUrl,omitempty"`
	}

	Course struct {
		ID             string  `json:"id"`
		Name           string  `json:"name"`
		Section        string  `json:"section,omitempty"`
		Description    string  `json:"description,omitempty"`
		Room           string  `json:"room,omitempty"`
		OwnerID        string  `json:"ownerId"`
		State          string  `json:"courseState"`
		AlternateLink  string  `json:"alternateLink,omitempty"`
		StudentCount   int     `json:"studentCount"`
		PrimaryTeacher *Member `json:"primaryTeacher"`
	}

	CourseWork struct {
		ID            string     `json:"id"`
		CourseID      string     `json:"courseId"`
		Title         string     `json:"title"`
		Description   string     `json:"description,omitempty"`
		State         string     `json:"state"`
		WorkType      string     `json:"workType,omitempty"`
		AlternateLink string     `json:"alternateLink,omitempty"`
		MaxPoints     float64    `json:"maxPoints,omitempty"`
		DueDate       *Date      `json:"dueDate,omitempty"`
		DueTime       *TimeOfDay `json:"dueTime,omitempty"`
		CreationTime  time.Time  `json:"creationTime"`
	}

	Submission struct {
		ID            string    `json:"id"`
		CourseID      string    `json:"courseId"`
		CourseWorkID  string    `json:"courseWorkId"`
		UserID        string    `json:"userId"`
		State         string    `json:"state"`
		Late          bool      `json:"late"`
		AssignedGrade *float64  `json:"assignedGrade,omitempty"`
		AlternateLink string    `json:"alternateLink,omitempty"`
		CreationTime  time.Time `json:"creationTime"`
		UpdateTime    time.Time `json:"updateTime"`
	}
)

// DueAt returns the instant cw is due in loc. Missing due time defaults to 23:59.
// ok is false when cw has no due date.
func (cw CourseWork) DueAt(loc *time.Location) (due time.Time, ok bool) {
	if cw.DueDate == nil || cw.DueDate.IsZero() {
		return time.Time{}, false
	}
	hour, min := 23, 59
	if cw.DueTime != nil {
		hour, min = cw.DueTime.Hours, cw.DueTime.Minutes
	}
	d := cw.DueDate
	return time.Date(d.Year, time.Month(d.Month), d.Day, hour, min, 0, 0, loc), true
}

// FindSubmission returns the submission owned by any of userIDs.
func FindSubmission(subs []Submission, userIDs ...string) (Submission, bool) {
	for _, s := range subs {
		for _, id := range userIDs {
			if id != "" && s.UserID == id {
				return s, true
			}
		}
	}
	return Submission{}, false
}
