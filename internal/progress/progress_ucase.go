package progress

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/infrastructure/logging"
	"go.elastic.co/apm"
	"go.uber.org/zap"
)

// DefaultMaxRetries conditional write attempts when none is configured
const DefaultMaxRetries = 5

// ProgressUseCaseImpl ...
type ProgressUseCaseImpl struct {
	ProgressRepository ProgressRepository
	MaxRetries         int
	Now                func() time.Time
}

var _ ProgressUseCase = &ProgressUseCaseImpl{}

// NewProgressUseCase ...
func NewProgressUseCase(
	ProgressRepository ProgressRepository,
	MaxRetries int,
) *ProgressUseCaseImpl {
	if MaxRetries < 1 {
		MaxRetries = DefaultMaxRetries
	}
	return &ProgressUseCaseImpl{
		ProgressRepository: ProgressRepository,
		MaxRetries:         MaxRetries,
		Now:                time.Now,
	}
}

// GetUserProgress all course records of the user, empty when there are none
func (pu *ProgressUseCaseImpl) GetUserProgress(ctx context.Context, userID string) (UserProgress, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.GetUserProgress", "service")
	defer apmSpan.End()

	progress, _, err := pu.ProgressRepository.FindUserProgress(ctx, userID)
	if err != nil {
		return nil, err
	}
	if progress == nil {
		progress = UserProgress{}
	}
	return progress, nil
}

// GetCourseProgress record of one course, nil when absent
func (pu *ProgressUseCaseImpl) GetCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.GetCourseProgress", "service")
	defer apmSpan.End()

	cp, _, err := pu.ProgressRepository.FindCourseProgress(ctx, userID, courseID)
	return cp, err
}

// UpdateLessonProgress record a visit of a lesson, optionally completing it
func (pu *ProgressUseCaseImpl) UpdateLessonProgress(ctx context.Context, userID, courseID, slug string, completed bool) (*CourseProgress, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.UpdateLessonProgress", "service")
	defer apmSpan.End()

	return pu.updateCourse(ctx, userID, courseID, func(cp *CourseProgress, now time.Time) *CourseProgress {
		return VisitLesson(cp, slug, completed, now)
	})
}

// MarkLessonComplete same as UpdateLessonProgress with completed set
func (pu *ProgressUseCaseImpl) MarkLessonComplete(ctx context.Context, userID, courseID, slug string) (*CourseProgress, error) {
	return pu.UpdateLessonProgress(ctx, userID, courseID, slug, true)
}

// RecordTimeSpent add seconds spent reading a lesson
func (pu *ProgressUseCaseImpl) RecordTimeSpent(ctx context.Context, userID, courseID, slug string, seconds int64) (*CourseProgress, error) {
	apmSpan, _ := apm.StartSpan(ctx, "ProgressUseCaseImpl.RecordTimeSpent", "service")
	defer apmSpan.End()

	if seconds <= 0 {
		return nil, errors.Errorf("time spent must be positive, got %d", seconds)
	}
	return pu.updateCourse(ctx, userID, courseID, func(cp *CourseProgress, now time.Time) *CourseProgress {
		return AddTimeSpent(cp, slug, seconds, now)
	})
}

// updateCourse read the course record, apply mutate and write it back guarded
// by the read revision, retrying lost races up to MaxRetries attempts
func (pu *ProgressUseCaseImpl) updateCourse(ctx context.Context, userID, courseID string, mutate func(*CourseProgress, time.Time) *CourseProgress) (*CourseProgress, error) {
	repo := pu.ProgressRepository
	logger := logging.ExtractLoggerFromContext(ctx)
	maxRetries := pu.MaxRetries
	if maxRetries < 1 {
		maxRetries = DefaultMaxRetries
	}
	now := pu.Now
	if now == nil {
		now = time.Now
	}

	for attempt := 1; attempt <= maxRetries; attempt++ {
		current, exists, err := repo.FindCourseProgress(ctx, userID, courseID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ErrAccountNotInitialized
		}

		var expected int64
		if current != nil {
			expected = current.Revision
		}
		next := mutate(current, now().UTC())
		next.Revision = expected + 1

		err = repo.SaveCourseProgress(ctx, userID, courseID, next, expected)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrConflict) {
			return nil, err
		}
		logger.Debug("Course progress write conflicted, retrying",
			zap.String("user.id", userID),
			zap.String("course.id", courseID),
			zap.Int("attempt", attempt),
		)
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
	return nil, errors.Wrapf(ErrConflict, "giving up after %d attempts", maxRetries)
}
