package dashboard

import (
	"context"
	"sort"
	"time"

	"github.com/pot-code/course-reader/internal/content"
	"github.com/pot-code/course-reader/internal/progress"
	"go.elastic.co/apm"
)

// CourseEntry one started course
type CourseEntry struct {
	Course           string    `json:"course"`
	Title            string    `json:"title"`
	Lang             string    `json:"lang"`
	Img              string    `json:"img,omitempty"`
	TotalLessons     int       `json:"totalLessons"`
	CompletedLessons int       `json:"completedLessons"`
	Completion       int       `json:"completion"`
	CurrentLesson    string    `json:"currentLesson"`
	TimeSpent        int64     `json:"timeSpent"`
	LastAccessedAt   time.Time `json:"lastAccessedAt"`
}

// Dashboard per user summary
type Dashboard struct {
	CoursesStarted   int            `json:"coursesStarted"`
	LessonsCompleted int            `json:"lessonsCompleted"`
	TotalTimeSpent   int64          `json:"totalTimeSpent"` // seconds
	Courses          []*CourseEntry `json:"courses"`
}

// DashboardUseCase .
type DashboardUseCase interface {
	GetDashboard(ctx context.Context, userID string) (*Dashboard, error)
}

// DashboardUseCaseImpl joins progress records with the catalog
type DashboardUseCaseImpl struct {
	Resolver        content.Resolver
	ProgressUseCase progress.ProgressUseCase
}

var _ DashboardUseCase = &DashboardUseCaseImpl{}

// NewDashboardUseCase ...
func NewDashboardUseCase(
	Resolver content.Resolver,
	ProgressUseCase progress.ProgressUseCase,
) *DashboardUseCaseImpl {
	return &DashboardUseCaseImpl{Resolver, ProgressUseCase}
}

// GetDashboard summary of every started course, most recently accessed first.
// Courses missing from the catalog keep their id as title and zero totals.
func (du *DashboardUseCaseImpl) GetDashboard(ctx context.Context, userID string) (*Dashboard, error) {
	apmSpan, _ := apm.StartSpan(ctx, "DashboardUseCaseImpl.GetDashboard", "service")
	defer apmSpan.End()

	up, err := du.ProgressUseCase.GetUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	courses, err := du.Resolver.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	catalog := make(map[string]*content.CourseMeta, len(courses))
	for _, c := range courses {
		catalog[c.Course] = c
	}

	dash := &Dashboard{Courses: make([]*CourseEntry, 0, len(up))}
	for courseID, cp := range up {
		entry := &CourseEntry{
			Course:           courseID,
			Title:            courseID,
			CompletedLessons: len(cp.CompletedLessons),
			CurrentLesson:    cp.CurrentLesson,
			TimeSpent:        cp.TotalTimeSpent(),
			LastAccessedAt:   cp.LastAccessedAt,
		}
		if meta, ok := catalog[courseID]; ok {
			lessons, err := du.Resolver.ListLessons(ctx, courseID)
			if err != nil {
				return nil, err
			}
			entry.Title = meta.Title
			entry.Lang = meta.Lang
			entry.Img = meta.Img
			entry.TotalLessons = len(lessons)
			entry.Completion = progress.CalculateCourseCompletion(cp, len(lessons))
		}

		dash.CoursesStarted++
		dash.LessonsCompleted += entry.CompletedLessons
		dash.TotalTimeSpent += entry.TimeSpent
		dash.Courses = append(dash.Courses, entry)
	}

	sort.Slice(dash.Courses, func(i, j int) bool {
		a, b := dash.Courses[i], dash.Courses[j]
		if !a.LastAccessedAt.Equal(b.LastAccessedAt) {
			return a.LastAccessedAt.After(b.LastAccessedAt)
		}
		return a.Course < b.Course
	})
	return dash, nil
}
