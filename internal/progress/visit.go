package progress

import (
	"math"
	"time"
)

// NewCourseProgress empty record of a course first visited at now
func NewCourseProgress(slug string, now time.Time) *CourseProgress {
	return &CourseProgress{
		StartedAt:        now,
		LastAccessedAt:   now,
		CurrentLesson:    slug,
		CompletedLessons: []string{},
		LessonsProgress:  map[string]*LessonProgress{},
	}
}

// VisitLesson record a visit of slug on a copy of cp (nil starts a new record).
// A completion is never cleared by a later visit with completed false.
func VisitLesson(cp *CourseProgress, slug string, completed bool, now time.Time) *CourseProgress {
	next := cp.Clone()
	if next == nil {
		next = NewCourseProgress(slug, now)
	}
	next.LastAccessedAt = now
	next.CurrentLesson = slug

	lp, ok := next.LessonsProgress[slug]
	if !ok {
		lp = new(LessonProgress)
		next.LessonsProgress[slug] = lp
	}
	if completed && !lp.Completed {
		lp.Completed = true
		at := now
		lp.CompletedAt = &at
	}
	if lp.Completed && !next.IsCompleted(slug) {
		next.CompletedLessons = append(next.CompletedLessons, slug)
	}
	return next
}

// AddTimeSpent accumulate seconds on slug, on a copy of cp
func AddTimeSpent(cp *CourseProgress, slug string, seconds int64, now time.Time) *CourseProgress {
	next := VisitLesson(cp, slug, false, now)
	next.LessonsProgress[slug].TimeSpent += seconds
	return next
}

// CalculateCourseCompletion percent of totalLessons completed, 0 for a nil record
// or an empty course
func CalculateCourseCompletion(cp *CourseProgress, totalLessons int) int {
	if cp == nil || totalLessons <= 0 {
		return 0
	}
	percent := int(math.Round(100 * float64(len(cp.CompletedLessons)) / float64(totalLessons)))
	if percent > 100 {
		return 100
	}
	if percent < 0 {
		return 0
	}
	return percent
}
