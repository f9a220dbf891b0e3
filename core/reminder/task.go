// Package reminder finds each user's pending Classroom work and delivers reminders about it.
package reminder

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/classroom"
)

// PendingWindow is how far ahead a due date may be for the work to be reminded about.
const PendingWindow = 7 * 24 * time.Hour

// PendingTask is one assignment the user still has to turn in. Derived fresh on each tick, never stored.
type PendingTask struct {
	CourseID        string               `json:"courseId,omitempty"`
	CourseName      string               `json:"courseName"`
	AssignmentID    string               `json:"assignmentId,omitempty"`
	AssignmentTitle string               `json:"assignmentTitle"`
	Description     string               `json:"description,omitempty"`
	DueDate         *classroom.Date      `json:"dueDate,omitempty"`
	DueTime         *classroom.TimeOfDay `json:"dueTime,omitempty"`
}

// IsDueSoon reports whether cw falls in the reminder window: undated work always does,
// dated work only when due in (now, now+PendingWindow].
func IsDueSoon(cw classroom.CourseWork, now time.Time) bool {
	due, ok := cw.DueAt(now.Location())
	if !ok {
		return true
	}
	return due.After(now) && !due.After(now.Add(PendingWindow))
}

// PendingTasks walks every enrolled course of the gateway's user and returns the due-soon work
// the user (matched by any of userIDs) has not turned in yet.
// Failing to list courses is an error; failures inside one course are logged and that course skipped.
func PendingTasks(ctx context.Context, gw classroom.Gateway, logger core.Logger, now time.Time, userIDs ...string) ([]PendingTask, error) {
	courses, err := gw.ListCourses(ctx, classroom.EnrolledCourses)
	if err != nil {
		return nil, errors.Wrap(err, "listing enrolled courses")
	}

	tasks := make([]PendingTask, 0)
	for _, c := range courses {
		ct, err := coursePendingTasks(ctx, gw, c, now, userIDs)
		if err != nil {
			logger.Warn(fmt.Sprintf("collecting pending tasks of course %s: %v", c.ID, err), err)
			continue
		}
		tasks = append(tasks, ct...)
	}
	return tasks, nil
}

func coursePendingTasks(ctx context.Context, gw classroom.Gateway, c classroom.Course, now time.Time, userIDs []string) ([]PendingTask, error) {
	work, err := gw.ListCourseWork(ctx, c.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing coursework")
	}

	var tasks []PendingTask
	for _, cw := range work {
		if !IsDueSoon(cw, now) {
			continue
		}
		subs, err := gw.ListSubmissions(ctx, c.ID, cw.ID)
		if err != nil {
			return nil, errors.Wrapf(err, "listing submissions of %s", cw.ID)
		}
		if sub, ok := classroom.FindSubmission(subs, userIDs...); ok && !classroom.IsOpen(sub.State) {
			continue
		}
		tasks = append(tasks, PendingTask{
			CourseID:        c.ID,
			CourseName:      c.Name,
			AssignmentID:    cw.ID,
			AssignmentTitle: cw.Title,
			Description:     cw.Description,
			DueDate:         cw.DueDate,
			DueTime:         cw.DueTime,
		})
	}
	return tasks, nil
}
