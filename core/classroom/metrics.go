package classroom

import "math"

type (
	AssignmentProgress struct {
		ID         string           `json:"id"`
		Title      string           `json:"title"`
		DueDate    *Date            `json:"dueDate,omitempty"`
		Status     SubmissionStatus `json:"status"`
		Submission *Submission      `json:"submission,omitempty"`
	}

	Progress struct {
		TotalAssignments     int                  `json:"totalAssignments"`
		CompletedAssignments int                  `json:"completedAssignments"`
		Percentage           int                  `json:"percentage"`
		Assignments          []AssignmentProgress `json:"assignments"`
	}

	CourseMetrics struct {
		CourseID         string `json:"courseId"`
		CourseName       string `json:"courseName"`
		StudentCount     int    `json:"studentCount"`
		AssignmentCount  int    `json:"assignmentCount"`
		SubmissionCount  int    `json:"submissionCount"`
		OnTimePercentage int    `json:"onTimePercentage"`

		onTime int
	}

	GlobalMetrics struct {
		TotalCourses           int             `json:"totalCourses"`
		TotalStudents          int             `json:"totalStudents"`
		TotalAssignments       int             `json:"totalAssignments"`
		TotalSubmissions       int             `json:"totalSubmissions"`
		GlobalOnTimePercentage int             `json:"globalOnTimePercentage"`
		CourseMetrics          []CourseMetrics `json:"courseMetrics"`
	}
)

// percent returns round(part/total*100), 0 when total is 0.
func percent(part, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func newProgress(assignments []AssignmentProgress) Progress {
	p := Progress{
		TotalAssignments: len(assignments),
		Assignments:      assignments,
	}
	for _, a := range assignments {
		if a.Status == StatusTurnedIn {
			p.CompletedAssignments++
		}
	}
	p.Percentage = percent(p.CompletedAssignments, p.TotalAssignments)
	return p
}

func aggregateMetrics(courses []CourseMetrics) GlobalMetrics {
	gm := GlobalMetrics{
		TotalCourses:  len(courses),
		CourseMetrics: courses,
	}
	var onTime int
	for _, cm := range courses {
		gm.TotalStudents += cm.StudentCount
		gm.TotalAssignments += cm.AssignmentCount
		gm.TotalSubmissions += cm.SubmissionCount
		onTime += cm.onTime
	}
	gm.GlobalOnTimePercentage = percent(onTime, gm.TotalSubmissions)
	return gm
}
