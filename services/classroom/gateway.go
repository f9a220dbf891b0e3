// Package classroomsvc reads Google Classroom on behalf of a signed-in user.
package classroomsvc

import (
	"context"
	"time"

	"github.com/pkg/errors"
	gclassroom "google.golang.org/api/classroom/v1"

	"github.com/trezcool/semillero/core/classroom"
)

const (
	activeState    = "ACTIVE"
	publishedState = "PUBLISHED"
	dueDateDesc    = "dueDate desc"
	me             = "me"
	pageSize       = 100
)

var submissionStates = []string{
	classroom.StateNew,
	classroom.StateCreated,
	classroom.StateTurnedIn,
	classroom.StateReturned,
	classroom.StateReclaimedByStudent,
}

// googleGateway pages through the Classroom v1 API with the user's credentials.
type googleGateway struct {
	api *gclassroom.Service
}

var _ classroom.Gateway = (*googleGateway)(nil)

func (gw *googleGateway) ListCourses(ctx context.Context, filter classroom.CourseFilter) ([]classroom.Course, error) {
	call := gw.api.Courses.List().CourseStates(activeState).PageSize(pageSize)
	switch filter {
	case classroom.TeachingCourses:
		call = call.TeacherId(me)
	case classroom.EnrolledCourses:
		call = call.StudentId(me)
	}

	courses := make([]classroom.Course, 0)
	err := call.Pages(ctx, func(res *gclassroom.ListCoursesResponse) error {
		for _, c := range res.Courses {
			courses = append(courses, classroom.Course{
				ID:            c.Id,
				Name:          c.Name,
				Section:       c.Section,
				Description:   c.Description,
				Room:          c.Room,
				OwnerID:       c.OwnerId,
				State:         c.CourseState,
				AlternateLink: c.AlternateLink,
			})
		}
		return nil
	})
	return courses, errors.Wrap(err, "listing courses")
}

func (gw *googleGateway) ListCourseWork(ctx context.Context, courseID string) ([]classroom.CourseWork, error) {
	work := make([]classroom.CourseWork, 0)
	err := gw.api.Courses.CourseWork.List(courseID).
		CourseWorkStates(publishedState).OrderBy(dueDateDesc).PageSize(pageSize).
		Pages(ctx, func(res *gclassroom.ListCourseWorkResponse) error {
			for _, cw := range res.CourseWork {
				work = append(work, classroom.CourseWork{
					ID:            cw.Id,
					CourseID:      cw.CourseId,
					Title:         cw.Title,
					Description:   cw.Description,
					State:         cw.State,
					WorkType:      cw.WorkType,
					AlternateLink: cw.AlternateLink,
					MaxPoints:     cw.MaxPoints,
					DueDate:       toDate(cw.DueDate),
					DueTime:       toTimeOfDay(cw.DueTime),
					CreationTime:  parseTime(cw.CreationTime),
				})
			}
			return nil
		})
	return work, errors.Wrapf(err, "listing coursework of %s", courseID)
}

func (gw *googleGateway) ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]classroom.Submission, error) {
	subs := make([]classroom.Submission, 0)
	err := gw.api.Courses.CourseWork.StudentSubmissions.List(courseID, courseWorkID).
		States(submissionStates...).PageSize(pageSize).
		Pages(ctx, func(res *gclassroom.ListStudentSubmissionsResponse) error {
			for _, s := range res.StudentSubmissions {
				sub := classroom.Submission{
					ID:            s.Id,
					CourseID:      s.CourseId,
					CourseWorkID:  s.CourseWorkId,
					UserID:        s.UserId,
					State:         s.State,
					Late:          s.Late,
					AlternateLink: s.AlternateLink,
					CreationTime:  parseTime(s.CreationTime),
					UpdateTime:    parseTime(s.UpdateTime),
				}
				if s.AssignedGrade != 0 {
					grade := s.AssignedGrade
					sub.AssignedGrade = &grade
				}
				subs = append(subs, sub)
			}
			return nil
		})
	return subs, errors.Wrapf(err, "listing submissions of %s/%s", courseID, courseWorkID)
}

func (gw *googleGateway) ListStudents(ctx context.Context, courseID string) ([]classroom.Member, error) {
	members := make([]classroom.Member, 0)
	err := gw.api.Courses.Students.List(courseID).PageSize(pageSize).
		Pages(ctx, func(res *gclassroom.ListStudentsResponse) error {
			for _, s := range res.Students {
				members = append(members, toMember(s.UserId, s.Profile))
			}
			return nil
		})
	return members, errors.Wrapf(err, "listing students of %s", courseID)
}

func (gw *googleGateway) ListTeachers(ctx context.Context, courseID string) ([]classroom.Member, error) {
	members := make([]classroom.Member, 0)
	err := gw.api.Courses.Teachers.List(courseID).PageSize(pageSize).
		Pages(ctx, func(res *gclassroom.ListTeachersResponse) error {
			for _, t := range res.Teachers {
				members = append(members, toMember(t.UserId, t.Profile))
			}
			return nil
		})
	return members, errors.Wrapf(err, "listing teachers of %s", courseID)
}

func toMember(userID string, p *gclassroom.UserProfile) classroom.Member {
	m := classroom.Member{UserID: userID}
	if p == nil {
		return m
	}
	m.Email = p.EmailAddress
	m.PhotoURL = p.PhotoUrl
	if p.Name != nil {
		m.Name = p.Name.FullName
	}
	return m
}

func toDate(d *gclassroom.Date) *classroom.Date {
	if d == nil {
		return nil
	}
	return &classroom.Date{Year: int(d.Year), Month: int(d.Month), Day: int(d.Day)}
}

func toTimeOfDay(t *gclassroom.TimeOfDay) *classroom.TimeOfDay {
	if t == nil {
		return nil
	}
	return &classroom.TimeOfDay{Hours: int(t.Hours), Minutes: int(t.Minutes)}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339Nano, s)
	return t
}
