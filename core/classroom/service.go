package classroom

import (
	"context"
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
)

type (
	// Viewer is the authenticated user a request is served for.
	Viewer struct {
		UserID string
		Email  string
		Role   Role
	}

	SubmissionFilter struct {
		CourseID     string           `query:"courseId"`
		TeacherEmail string           `query:"teacher"`
		Status       SubmissionStatus `query:"status"`
	}

	// SubmissionRecord is a Submission flattened with its course and assignment.
	SubmissionRecord struct {
		Submission
		CourseName      string           `json:"courseName"`
		AssignmentID    string           `json:"assignmentId"`
		AssignmentTitle string           `json:"assignmentTitle"`
		DueDate         *Date            `json:"dueDate,omitempty"`
		Status          SubmissionStatus `json:"status"`
	}

	CourseProgress struct {
		Course
		Progress Progress `json:"progress"`
	}

	CourseSummary struct {
		Course
		Students    int `json:"students"`
		Assignments int `json:"assignments"`
	}

	StudentDashboard struct {
		Role            Role             `json:"role"`
		Courses         []CourseProgress `json:"courses"`
		TotalCourses    int              `json:"totalCourses"`
		AverageProgress int              `json:"averageProgress"`
	}

	TeacherDashboard struct {
		Role             Role            `json:"role"`
		Courses          []CourseSummary `json:"courses"`
		TotalCourses     int             `json:"totalCourses"`
		TotalStudents    int             `json:"totalStudents"`
		TotalAssignments int             `json:"totalAssignments"`
	}

	CoordinatorDashboard struct {
		Role Role `json:"role"`
		GlobalMetrics
	}

	Service struct {
		logger       core.Logger
		clock        core.Clock
		coordinators map[string]struct{}
	}
)

func NewService(logger core.Logger, clock core.Clock, coordinatorEmails []string) *Service {
	coords := make(map[string]struct{}, len(coordinatorEmails))
	for _, e := range coordinatorEmails {
		coords[core.CleanString(e, true)] = struct{}{}
	}
	return &Service{logger: logger, clock: clock, coordinators: coords}
}

// ResolveRole returns coordinator for configured emails, teacher for anyone teaching an ACTIVE course,
// student otherwise. Lookup failures resolve to student.
func (svc *Service) ResolveRole(ctx context.Context, gw Gateway, email string) Role {
	if _, ok := svc.coordinators[core.CleanString(email, true)]; ok {
		return RoleCoordinator
	}
	courses, err := gw.ListCourses(ctx, TeachingCourses)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("resolving role for %s: %v", email, err), err)
		return RoleStudent
	}
	if len(courses) > 0 {
		return RoleTeacher
	}
	return RoleStudent
}

// Courses lists the courses role may see, each enriched with its student count and primary teacher.
func (svc *Service) Courses(ctx context.Context, gw Gateway, role Role) ([]Course, error) {
	courses, err := gw.ListCourses(ctx, FilterFor(role))
	if err != nil {
		return nil, errors.Wrap(err, "listing courses")
	}

	var wg sync.WaitGroup
	for i := range courses {
		wg.Add(1)
		go func(c *Course) {
			defer wg.Done()
			svc.enrich(ctx, gw, c)
		}(&courses[i])
	}
	wg.Wait()
	return courses, nil
}

// enrich leaves c untouched when either roster lookup fails.
func (svc *Service) enrich(ctx context.Context, gw Gateway, c *Course) {
	students, err := gw.ListStudents(ctx, c.ID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("enriching course %s: %v", c.ID, err), err)
		return
	}
	teachers, err := gw.ListTeachers(ctx, c.ID)
	if err != nil {
		svc.logger.Warn(fmt.Sprintf("enriching course %s: %v", c.ID, err), err)
		return
	}

	c.StudentCount = len(students)
	for i := range teachers {
		if teachers[i].UserID == c.OwnerID {
			c.PrimaryTeacher = &teachers[i]
			return
		}
	}
	if len(teachers) > 0 {
		c.PrimaryTeacher = &teachers[0]
	}
}

// StudentProgress computes the completion of studentID across every assignment of courseID.
func (svc *Service) StudentProgress(ctx context.Context, gw Gateway, courseID, studentID string) (Progress, error) {
	work, err := gw.ListCourseWork(ctx, courseID)
	if err != nil {
		return Progress{}, errors.Wrap(err, "listing coursework")
	}
	now := svc.clock.Now()

	assignments := make([]AssignmentProgress, len(work))
	var wg sync.WaitGroup
	for i := range work {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cw := work[i]
			ap := AssignmentProgress{ID: cw.ID, Title: cw.Title, DueDate: cw.DueDate}

			subs, err := gw.ListSubmissions(ctx, courseID, cw.ID)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("listing submissions of %s: %v", cw.ID, err), err)
				ap.Status = StatusError
				assignments[i] = ap
				return
			}
			var subPtr *Submission
			if sub, ok := FindSubmission(subs, studentID); ok {
				subPtr = &sub
			}
			ap.Submission = subPtr
			ap.Status = StatusOf(cw, subPtr, now)
			assignments[i] = ap
		}(i)
	}
	wg.Wait()
	return newProgress(assignments), nil
}

// GlobalMetrics aggregates roster size, assignment count, turned-in submissions and on-time rate over every course.
// A submission is on time when its last update falls on or before the due date (date only).
func (svc *Service) GlobalMetrics(ctx context.Context, gw Gateway) (GlobalMetrics, error) {
	courses, err := svc.Courses(ctx, gw, RoleCoordinator)
	if err != nil {
		return GlobalMetrics{}, err
	}
	metrics := make([]CourseMetrics, len(courses))
	var wg sync.WaitGroup
	for i := range courses {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			c := courses[i]
			cm, err := svc.courseMetrics(ctx, gw, c)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("computing metrics of course %s: %v", c.ID, err), err)
				cm = CourseMetrics{CourseID: c.ID, CourseName: c.Name}
			}
			metrics[i] = cm
		}(i)
	}
	wg.Wait()
	return aggregateMetrics(metrics), nil
}

func (svc *Service) courseMetrics(ctx context.Context, gw Gateway, c Course) (CourseMetrics, error) {
	cm := CourseMetrics{CourseID: c.ID, CourseName: c.Name}

	students, err := gw.ListStudents(ctx, c.ID)
	if err != nil {
		return cm, errors.Wrap(err, "listing students")
	}
	work, err := gw.ListCourseWork(ctx, c.ID)
	if err != nil {
		return cm, errors.Wrap(err, "listing coursework")
	}
	cm.StudentCount = len(students)
	cm.AssignmentCount = len(work)

	now := svc.clock.Now()
	for _, cw := range work {
		subs, err := gw.ListSubmissions(ctx, c.ID, cw.ID)
		if err != nil {
			return cm, errors.Wrapf(err, "listing submissions of %s", cw.ID)
		}
		for _, s := range subs {
			if s.State != StateTurnedIn {
				continue
			}
			cm.SubmissionCount++
			if cw.DueDate != nil && !cw.DueDate.IsZero() {
				if s.UpdateTime.Before(cw.DueDate.In(now.Location()).AddDate(0, 0, 1)) {
					cm.onTime++
				}
			}
		}
	}
	cm.OnTimePercentage = percent(cm.onTime, cm.SubmissionCount)
	return cm, nil
}

// Submissions lists the submissions visible to viewer, narrowed by filter.
// The teacher filter only applies to coordinators.
func (svc *Service) Submissions(ctx context.Context, gw Gateway, viewer Viewer, filter SubmissionFilter) ([]SubmissionRecord, error) {
	courses, err := svc.Courses(ctx, gw, viewer.Role)
	if err != nil {
		return nil, err
	}
	now := svc.clock.Now()

	records := make([]SubmissionRecord, 0)
	for _, c := range courses {
		if filter.CourseID != "" && c.ID != filter.CourseID {
			continue
		}
		if filter.TeacherEmail != "" && viewer.Role == RoleCoordinator {
			if c.PrimaryTeacher == nil || !sameEmail(c.PrimaryTeacher.Email, filter.TeacherEmail) {
				continue
			}
		}

		work, err := gw.ListCourseWork(ctx, c.ID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("listing coursework of %s: %v", c.ID, err), err)
			continue
		}
		for _, cw := range work {
			subs, err := gw.ListSubmissions(ctx, c.ID, cw.ID)
			if err != nil {
				svc.logger.Warn(fmt.Sprintf("listing submissions of %s: %v", cw.ID, err), err)
				continue
			}
			for i := range subs {
				status := StatusOf(cw, &subs[i], now)
				if filter.Status != "" && status != filter.Status {
					continue
				}
				rec := SubmissionRecord{
					Submission:      subs[i],
					CourseName:      c.Name,
					AssignmentID:    cw.ID,
					AssignmentTitle: cw.Title,
					DueDate:         cw.DueDate,
					Status:          status,
				}
				rec.CourseID = c.ID
				records = append(records, rec)
			}
		}
	}
	return records, nil
}

// Dashboard returns the role-specific landing data for viewer.
func (svc *Service) Dashboard(ctx context.Context, gw Gateway, viewer Viewer) (interface{}, error) {
	switch viewer.Role {
	case RoleCoordinator:
		gm, err := svc.GlobalMetrics(ctx, gw)
		if err != nil {
			return nil, errors.Wrap(err, "computing global metrics")
		}
		return CoordinatorDashboard{Role: viewer.Role, GlobalMetrics: gm}, nil
	case RoleTeacher:
		return svc.teacherDashboard(ctx, gw)
	default:
		return svc.studentDashboard(ctx, gw, viewer)
	}
}

func (svc *Service) studentDashboard(ctx context.Context, gw Gateway, viewer Viewer) (StudentDashboard, error) {
	courses, err := svc.Courses(ctx, gw, RoleStudent)
	if err != nil {
		return StudentDashboard{}, err
	}

	dash := StudentDashboard{
		Role:         RoleStudent,
		Courses:      make([]CourseProgress, len(courses)),
		TotalCourses: len(courses),
	}
	var sum int
	for i, c := range courses {
		p, err := svc.StudentProgress(ctx, gw, c.ID, viewer.UserID)
		if err != nil {
			svc.logger.Warn(fmt.Sprintf("computing progress for course %s: %v", c.ID, err), err)
			p = Progress{Assignments: []AssignmentProgress{}}
		}
		dash.Courses[i] = CourseProgress{Course: c, Progress: p}
		sum += p.Percentage
	}
	if len(courses) > 0 {
		dash.AverageProgress = percent(sum, len(courses)*100)
	}
	return dash, nil
}

func (svc *Service) teacherDashboard(ctx context.Context, gw Gateway) (TeacherDashboard, error) {
	courses, err := svc.Courses(ctx, gw, RoleTeacher)
	if err != nil {
		return TeacherDashboard{}, err
	}

	dash := TeacherDashboard{
		Role:         RoleTeacher,
		Courses:      make([]CourseSummary, len(courses)),
		TotalCourses: len(courses),
	}
	for i, c := range courses {
		cs := CourseSummary{Course: c}
		if err := svc.summarize(ctx, gw, &cs); err != nil {
			svc.logger.Warn(fmt.Sprintf("summarizing course %s: %v", c.ID, err), err)
		}
		dash.Courses[i] = cs
		dash.TotalStudents += cs.Students
		dash.TotalAssignments += cs.Assignments
	}
	return dash, nil
}

func (svc *Service) summarize(ctx context.Context, gw Gateway, cs *CourseSummary) error {
	students, err := gw.ListStudents(ctx, cs.ID)
	if err != nil {
		return errors.Wrap(err, "listing students")
	}
	work, err := gw.ListCourseWork(ctx, cs.ID)
	if err != nil {
		return errors.Wrap(err, "listing coursework")
	}
	cs.Students = len(students)
	cs.Assignments = len(work)
	return nil
}

func sameEmail(a, b string) bool {
	return core.CleanString(a, true) == core.CleanString(b, true)
}
