package classroom

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCourseWork_DueAt(t *testing.T) {
	loc := time.UTC
	tests := []struct {
		name   string
		cw     CourseWork
		want   time.Time
		wantOk bool
	}{
		{name: "no due date", cw: CourseWork{}, wantOk: false},
		{name: "zero due date", cw: CourseWork{DueDate: &Date{}}, wantOk: false},
		{
			name:   "missing due time defaults to 23:59",
			cw:     CourseWork{DueDate: &Date{Year: 2024, Month: 12, Day: 15}},
			want:   time.Date(2024, 12, 15, 23, 59, 0, 0, loc),
			wantOk: true,
		},
		{
			name:   "explicit due time",
			cw:     CourseWork{DueDate: &Date{Year: 2024, Month: 12, Day: 10}, DueTime: &TimeOfDay{Hours: 18}},
			want:   time.Date(2024, 12, 10, 18, 0, 0, 0, loc),
			wantOk: true,
		},
		{
			name:   "midnight due time is kept",
			cw:     CourseWork{DueDate: &Date{Year: 2024, Month: 12, Day: 10}, DueTime: &TimeOfDay{}},
			want:   time.Date(2024, 12, 10, 0, 0, 0, 0, loc),
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.cw.DueAt(loc)
			assert.Equal(t, tt.wantOk, ok)
			assert.True(t, tt.want.Equal(got), "got %v; want %v", got, tt.want)
		})
	}
}

func TestStatusOf(t *testing.T) {
	now := time.Date(2024, 12, 12, 10, 0, 0, 0, time.UTC)
	past := CourseWork{DueDate: &Date{Year: 2024, Month: 12, Day: 11}}
	future := CourseWork{DueDate: &Date{Year: 2024, Month: 12, Day: 20}}
	undated := CourseWork{}

	sub := func(state string) *Submission { return &Submission{State: state} }

	tests := []struct {
		name string
		cw   CourseWork
		sub  *Submission
		want SubmissionStatus
	}{
		{name: "no submission", cw: future, sub: nil, want: StatusMissing},
		{name: "turned in", cw: past, sub: sub(StateTurnedIn), want: StatusTurnedIn},
		{name: "returned", cw: past, sub: sub(StateReturned), want: StatusTurnedIn},
		{name: "reclaimed", cw: future, sub: sub(StateReclaimedByStudent), want: StatusResubmitted},
		{name: "new & past due", cw: past, sub: sub(StateNew), want: StatusLate},
		{name: "created & past due", cw: past, sub: sub(StateCreated), want: StatusLate},
		{name: "new & not due", cw: future, sub: sub(StateNew), want: StatusPending},
		{name: "created & undated", cw: undated, sub: sub(StateCreated), want: StatusPending},
		{name: "unspecified state", cw: future, sub: sub("SUBMISSION_STATE_UNSPECIFIED"), want: StatusUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StatusOf(tt.cw, tt.sub, now))
		})
	}
}

func TestDate_String(t *testing.T) {
	assert.Equal(t, "05/03/2025", Date{Year: 2025, Month: 3, Day: 5}.String())
}

func TestFindSubmission(t *testing.T) {
	subs := []Submission{{ID: "1", UserID: "111"}, {ID: "2", UserID: "222"}}

	got, ok := FindSubmission(subs, "", "222")
	assert.True(t, ok)
	assert.Equal(t, "2", got.ID)

	_, ok = FindSubmission(subs, "")
	assert.False(t, ok, "empty ids never match")

	_, ok = FindSubmission(subs, "333")
	assert.False(t, ok)
}
