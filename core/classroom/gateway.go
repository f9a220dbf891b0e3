package classroom

import (
	"context"

	"golang.org/x/oauth2"
)

// CourseFilter selects which ACTIVE courses ListCourses returns.
type CourseFilter int

const (
	AllCourses      CourseFilter = iota // every course visible to the caller
	TeachingCourses                     // teacherId=me
	EnrolledCourses                     // studentId=me
)

// FilterFor maps a role to the course listing it is entitled to.
func FilterFor(role Role) CourseFilter {
	switch role {
	case RoleCoordinator:
		return AllCourses
	case RoleTeacher:
		return TeachingCourses
	default:
		return EnrolledCourses
	}
}

// Gateway reads Classroom data on behalf of one authorized user.
// Every List method follows pagination to completion.
type Gateway interface {
	ListCourses(ctx context.Context, filter CourseFilter) ([]Course, error)
	// ListCourseWork returns PUBLISHED coursework ordered by due date, latest first.
	ListCourseWork(ctx context.Context, courseID string) ([]CourseWork, error)
	// ListSubmissions returns submissions in states NEW, CREATED, TURNED_IN, RETURNED and RECLAIMED_BY_STUDENT.
	ListSubmissions(ctx context.Context, courseID, courseWorkID string) ([]Submission, error)
	ListStudents(ctx context.Context, courseID string) ([]Member, error)
	ListTeachers(ctx context.Context, courseID string) ([]Member, error)
}

// Connector builds a Gateway bound to an OAuth token.
type Connector interface {
	Connect(ctx context.Context, token *oauth2.Token) (Gateway, error)
}
