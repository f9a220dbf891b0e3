// Package classroomtest provides an in-memory classroom.Gateway for tests.
package classroomtest

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/trezcool/semillero/core/classroom"
)

var ErrUnavailable = errors.New("classroom unavailable")

// Gateway serves canned data. Keys of the error maps are course IDs (or course/work IDs for submissions).
type Gateway struct {
	Courses     map[classroom.CourseFilter][]classroom.Course
	CourseWork  map[string][]classroom.CourseWork
	Submissions map[string][]classroom.Submission // key: courseID + "/" + courseWorkID
	Students    map[string][]classroom.Member
	Teachers    map[string][]classroom.Member

	CoursesErr    error
	CourseWorkErr map[string]error
	RosterErr     map[string]error

	mu    sync.Mutex
	calls int
}

var _ classroom.Gateway = (*Gateway)(nil)

func NewGateway() *Gateway {
	return &Gateway{
		Courses:       make(map[classroom.CourseFilter][]classroom.Course),
		CourseWork:    make(map[string][]classroom.CourseWork),
		Submissions:   make(map[string][]classroom.Submission),
		Students:      make(map[string][]classroom.Member),
		Teachers:      make(map[string][]classroom.Member),
		CourseWorkErr: make(map[string]error),
		RosterErr:     make(map[string]error),
	}
}

// Calls returns how many List* calls were served.
func (gw *Gateway) Calls() int {
	gw.mu.Lock()
	defer gw.mu.Unlock()
	return gw.calls
}

func (gw *Gateway) hit() {
	gw.mu.Lock()
	gw.calls++
	gw.mu.Unlock()
}

func (gw *Gateway) AddCourse(filter classroom.CourseFilter, c classroom.Course) {
	gw.Courses[filter] = append(gw.Courses[filter], c)
}

func (gw *Gateway) AddCourseWork(cw classroom.CourseWork) {
	gw.CourseWork[cw.CourseID] = append(gw.CourseWork[cw.CourseID], cw)
}

func (gw *Gateway) AddSubmission(s classroom.Submission) {
	key := s.CourseID + "/" + s.CourseWorkID
	gw.Submissions[key] = append(gw.Submissions[key], s)
}

func (gw *Gateway) ListCourses(_ context.Context, filter classroom.CourseFilter) ([]classroom.Course, error) {
	gw.hit()
	if gw.CoursesErr != nil {
		return nil, gw.CoursesErr
	}
	out := make([]classroom.Course, len(gw.Courses[filter]))
	copy(out, gw.Courses[filter])
	return out, nil
}

func (gw *Gateway) ListCourseWork(_ context.Context, courseID string) ([]classroom.CourseWork, error) {
	gw.hit()
	if err := gw.CourseWorkErr[courseID]; err != nil {
		return nil, err
	}
	return gw.CourseWork[courseID], nil
}

func (gw *Gateway) ListSubmissions(_ context.Context, courseID, courseWorkID string) ([]classroom.Submission, error) {
	gw.hit()
	return gw.Submissions[courseID+"/"+courseWorkID], nil
}

func (gw *Gateway) ListStudents(_ context.Context, courseID string) ([]classroom.Member, error) {
	gw.hit()
	if err := gw.RosterErr[courseID]; err != nil {
		return nil, err
	}
	return gw.Students[courseID], nil
}

func (gw *Gateway) ListTeachers(_ context.Context, courseID string) ([]classroom.Member, error) {
	gw.hit()
	if err := gw.RosterErr[courseID]; err != nil {
		return nil, err
	}
	return gw.Teachers[courseID], nil
}

// Connector hands out Gateway for every token; ConnectErr fails every Connect.
type Connector struct {
	Gateway    classroom.Gateway
	ConnectErr error

	mu     sync.Mutex
	tokens []*oauth2.Token
}

var _ classroom.Connector = (*Connector)(nil)

func (c *Connector) Connect(_ context.Context, token *oauth2.Token) (classroom.Gateway, error) {
	c.mu.Lock()
	c.tokens = append(c.tokens, token)
	c.mu.Unlock()
	if c.ConnectErr != nil {
		return nil, c.ConnectErr
	}
	return c.Gateway, nil
}

// Connections returns how many times Connect was called.
func (c *Connector) Connections() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}
