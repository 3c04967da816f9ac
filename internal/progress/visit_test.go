package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var testNow = time.Date(2021, 3, 14, 15, 9, 26, 0, time.UTC)

func TestVisitLesson_NewRecord(t *testing.T) {
	cp := VisitLesson(nil, "intro", false, testNow)

	assert.Equal(t, testNow, cp.StartedAt)
	assert.Equal(t, testNow, cp.LastAccessedAt)
	assert.Equal(t, "intro", cp.CurrentLesson)
	assert.Equal(t, []string{}, cp.CompletedLessons)
	assert.Equal(t, &LessonProgress{}, cp.LessonsProgress["intro"])
}

func TestVisitLesson_Complete(t *testing.T) {
	cp := VisitLesson(nil, "intro", true, testNow)

	assert.Equal(t, []string{"intro"}, cp.CompletedLessons)
	assert.True(t, cp.LessonsProgress["intro"].Completed)
	assert.Equal(t, testNow, *cp.LessonsProgress["intro"].CompletedAt)
}

func TestVisitLesson_Idempotent(t *testing.T) {
	later := testNow.Add(time.Hour)
	once := VisitLesson(nil, "intro", true, testNow)
	twice := VisitLesson(once, "intro", true, later)

	assert.Equal(t, once.CompletedLessons, twice.CompletedLessons)
	// completing again keeps the first completion time
	assert.Equal(t, testNow, *twice.LessonsProgress["intro"].CompletedAt)
	assert.Equal(t, later, twice.LastAccessedAt)
}

func TestVisitLesson_CompletionIsSticky(t *testing.T) {
	cp := VisitLesson(nil, "intro", true, testNow)
	cp = VisitLesson(cp, "variables", false, testNow)
	cp = VisitLesson(cp, "intro", false, testNow)

	assert.Equal(t, []string{"intro"}, cp.CompletedLessons)
	assert.True(t, cp.LessonsProgress["intro"].Completed)
	assert.False(t, cp.LessonsProgress["variables"].Completed)
	assert.Equal(t, "intro", cp.CurrentLesson)
}

func TestVisitLesson_DoesNotMutateInput(t *testing.T) {
	original := VisitLesson(nil, "intro", false, testNow)
	original.Revision = 3
	next := VisitLesson(original, "variables", true, testNow.Add(time.Minute))

	assert.Equal(t, "intro", original.CurrentLesson)
	assert.Empty(t, original.CompletedLessons)
	assert.NotContains(t, original.LessonsProgress, "variables")
	assert.Equal(t, int64(3), next.Revision)
	assert.Equal(t, testNow, next.StartedAt)
}

func TestAddTimeSpent(t *testing.T) {
	cp := AddTimeSpent(nil, "intro", 30, testNow)
	cp = AddTimeSpent(cp, "intro", 45, testNow)
	cp = AddTimeSpent(cp, "loops", 10, testNow)

	assert.Equal(t, int64(75), cp.LessonsProgress["intro"].TimeSpent)
	assert.Equal(t, int64(85), cp.TotalTimeSpent())
	assert.Equal(t, "loops", cp.CurrentLesson)
}

func TestCalculateCourseCompletion(t *testing.T) {
	withCompleted := func(slugs ...string) *CourseProgress {
		cp := NewCourseProgress("intro", testNow)
		cp.CompletedLessons = slugs
		return cp
	}
	tests := []struct {
		name  string
		cp    *CourseProgress
		total int
		want  int
	}{
		{name: "nil record", cp: nil, total: 3, want: 0},
		{name: "empty course", cp: withCompleted("intro"), total: 0, want: 0},
		{name: "none", cp: withCompleted(), total: 3, want: 0},
		{name: "one of three", cp: withCompleted("intro"), total: 3, want: 33},
		{name: "two of three", cp: withCompleted("intro", "variables"), total: 3, want: 67},
		{name: "all", cp: withCompleted("intro", "variables", "loops"), total: 3, want: 100},
		{name: "lessons removed from course", cp: withCompleted("a", "b", "c"), total: 2, want: 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateCourseCompletion(tt.cp, tt.total))
		})
	}
}
