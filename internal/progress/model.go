package progress

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrAccountNotInitialized progress write for a user without an account document
	ErrAccountNotInitialized = errors.New("account not initialized")
	// ErrConflict the stored course record changed between read and conditional write
	ErrConflict = errors.New("course progress was modified concurrently")
)

// LessonProgress per lesson record
type LessonProgress struct {
	Completed   bool       `json:"completed" bson:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty" bson:"completedAt,omitempty"`
	TimeSpent   int64      `json:"timeSpent,omitempty" bson:"timeSpent,omitempty"` // seconds
}

// CourseProgress one user's record of one course. Revision counts successful
// writes and guards conditional updates, 0 means never stored.
type CourseProgress struct {
	StartedAt        time.Time                  `json:"startedAt" bson:"startedAt"`
	LastAccessedAt   time.Time                  `json:"lastAccessedAt" bson:"lastAccessedAt"`
	CurrentLesson    string                     `json:"currentLesson" bson:"currentLesson"`
	CompletedLessons []string                   `json:"completedLessons" bson:"completedLessons"`
	LessonsProgress  map[string]*LessonProgress `json:"lessonsProgress" bson:"lessonsProgress"`
	Revision         int64                      `json:"revision" bson:"revision"`
}

// UserProgress course id to course record
type UserProgress map[string]*CourseProgress

// Clone deep copy
func (cp *CourseProgress) Clone() *CourseProgress {
	if cp == nil {
		return nil
	}
	out := *cp
	out.CompletedLessons = append([]string{}, cp.CompletedLessons...)
	out.LessonsProgress = make(map[string]*LessonProgress, len(cp.LessonsProgress))
	for slug, lp := range cp.LessonsProgress {
		if lp == nil {
			continue
		}
		c := *lp
		if lp.CompletedAt != nil {
			at := *lp.CompletedAt
			c.CompletedAt = &at
		}
		out.LessonsProgress[slug] = &c
	}
	return &out
}

// IsCompleted reports whether slug is in the completed set
func (cp *CourseProgress) IsCompleted(slug string) bool {
	if cp == nil {
		return false
	}
	for _, s := range cp.CompletedLessons {
		if s == slug {
			return true
		}
	}
	return false
}

// TotalTimeSpent seconds spent over all lessons
func (cp *CourseProgress) TotalTimeSpent() int64 {
	if cp == nil {
		return 0
	}
	var total int64
	for _, lp := range cp.LessonsProgress {
		if lp != nil {
			total += lp.TimeSpent
		}
	}
	return total
}

// ProgressRepository per course record storage. Each write touches exactly one
// course record of one user.
type ProgressRepository interface {
	// FindUserProgress all course records, exists is false when the account document is absent
	FindUserProgress(ctx context.Context, userID string) (progress UserProgress, exists bool, err error)
	// FindCourseProgress one course record (nil when absent), exists is false when the account document is absent
	FindCourseProgress(ctx context.Context, userID, courseID string) (cp *CourseProgress, exists bool, err error)
	// SaveCourseProgress store cp if the stored record still has revision expected
	// (0 for no record). Returns ErrConflict when it does not and
	// ErrAccountNotInitialized when the account document is absent.
	SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error
}

// ProgressUseCase .
type ProgressUseCase interface {
	GetUserProgress(ctx context.Context, userID string) (UserProgress, error)
	GetCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, error)
	UpdateLessonProgress(ctx context.Context, userID, courseID, slug string, completed bool) (*CourseProgress, error)
	MarkLessonComplete(ctx context.Context, userID, courseID, slug string) (*CourseProgress, error)
	RecordTimeSpent(ctx context.Context, userID, courseID, slug string, seconds int64) (*CourseProgress, error)
}
