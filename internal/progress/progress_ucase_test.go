package progress

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/stretchr/testify/assert"
)

func newTestUseCase(t *testing.T, users ...string) (*ProgressUseCaseImpl, *driver.MemoryDB) {
	t.Helper()
	db := driver.NewMemoryDB()
	for _, uid := range users {
		err := db.Mutate(uid, func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
			doc[driver.AccountField] = []byte(`{}`)
			return doc, nil
		})
		assert.NoError(t, err)
	}
	uc := NewProgressUseCase(NewProgressMemory(db), DefaultMaxRetries)
	uc.Now = func() time.Time { return testNow }
	return uc, db
}

func TestProgressUseCase_NewUser(t *testing.T) {
	uc, _ := newTestUseCase(t)
	ctx := context.Background()

	progress, err := uc.GetUserProgress(ctx, "nobody")
	assert.NoError(t, err)
	assert.NotNil(t, progress)
	assert.Empty(t, progress)

	cp, err := uc.GetCourseProgress(ctx, "nobody", "cpp-101")
	assert.NoError(t, err)
	assert.Nil(t, cp)
}

func TestProgressUseCase_AccountNotInitialized(t *testing.T) {
	uc, _ := newTestUseCase(t)

	_, err := uc.MarkLessonComplete(context.Background(), "nobody", "cpp-101", "intro")
	assert.True(t, errors.Is(err, ErrAccountNotInitialized))
}

func TestProgressUseCase_RoundTrip(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	ctx := context.Background()

	_, err := uc.UpdateLessonProgress(ctx, "u1", "cpp-101", "intro", true)
	assert.NoError(t, err)

	cp, err := uc.GetCourseProgress(ctx, "u1", "cpp-101")
	assert.NoError(t, err)
	assert.True(t, cp.IsCompleted("intro"))
	assert.True(t, cp.LessonsProgress["intro"].Completed)
	assert.Equal(t, int64(1), cp.Revision)
}

func TestProgressUseCase_MarkCompleteTwice(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	ctx := context.Background()

	first, err := uc.MarkLessonComplete(ctx, "u1", "cpp-101", "intro")
	assert.NoError(t, err)
	later := testNow.Add(time.Hour)
	uc.Now = func() time.Time { return later }
	second, err := uc.MarkLessonComplete(ctx, "u1", "cpp-101", "intro")
	assert.NoError(t, err)

	assert.Equal(t, first.CompletedLessons, second.CompletedLessons)
	assert.Equal(t, int64(2), second.Revision)
	// completedAt keeps the first completion
	assert.Equal(t, testNow, *second.LessonsProgress["intro"].CompletedAt)
	assert.Equal(t, later, second.LastAccessedAt)
}

func TestProgressUseCase_CompletionScenario(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	ctx := context.Background()

	_, err := uc.MarkLessonComplete(ctx, "u1", "cpp-101", "intro")
	assert.NoError(t, err)
	_, err = uc.MarkLessonComplete(ctx, "u1", "cpp-101", "variables")
	assert.NoError(t, err)

	cp, err := uc.GetCourseProgress(ctx, "u1", "cpp-101")
	assert.NoError(t, err)
	assert.Equal(t, 67, CalculateCourseCompletion(cp, 3))
	assert.Equal(t, "variables", cp.CurrentLesson)
}

func TestProgressUseCase_CoursesAreIndependent(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	ctx := context.Background()

	_, err := uc.MarkLessonComplete(ctx, "u1", "cpp-101", "intro")
	assert.NoError(t, err)
	_, err = uc.UpdateLessonProgress(ctx, "u1", "go-101", "hello", false)
	assert.NoError(t, err)

	progress, err := uc.GetUserProgress(ctx, "u1")
	assert.NoError(t, err)
	assert.Len(t, progress, 2)
	assert.Equal(t, []string{"intro"}, progress["cpp-101"].CompletedLessons)
	assert.Empty(t, progress["go-101"].CompletedLessons)
}

func TestProgressUseCase_ConcurrentWritesAreNotLost(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	uc.MaxRetries = 16
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make(chan error, 10)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := uc.MarkLessonComplete(ctx, "u1", "cpp-101", fmt.Sprintf("lesson-%d", i))
			errs <- err
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}

	cp, err := uc.GetCourseProgress(ctx, "u1", "cpp-101")
	assert.NoError(t, err)
	assert.Len(t, cp.CompletedLessons, 10)
	assert.Len(t, cp.LessonsProgress, 10)
	assert.Equal(t, int64(10), cp.Revision)
}

func TestProgressUseCase_RecordTimeSpent(t *testing.T) {
	uc, _ := newTestUseCase(t, "u1")
	ctx := context.Background()

	_, err := uc.RecordTimeSpent(ctx, "u1", "cpp-101", "intro", 0)
	assert.Error(t, err)

	_, err = uc.RecordTimeSpent(ctx, "u1", "cpp-101", "intro", 120)
	assert.NoError(t, err)
	cp, err := uc.RecordTimeSpent(ctx, "u1", "cpp-101", "intro", 60)
	assert.NoError(t, err)
	assert.Equal(t, int64(180), cp.LessonsProgress["intro"].TimeSpent)
	assert.False(t, cp.IsCompleted("intro"))
}

// conflictingRepository fails the first n conditional writes
type conflictingRepository struct {
	ProgressRepository
	conflicts int
	saves     int
}

func (cr *conflictingRepository) SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error {
	cr.saves++
	if cr.saves <= cr.conflicts {
		return ErrConflict
	}
	return cr.ProgressRepository.SaveCourseProgress(ctx, userID, courseID, cp, expected)
}

func TestProgressUseCase_RetriesConflicts(t *testing.T) {
	_, db := newTestUseCase(t, "u1")
	tests := []struct {
		name      string
		conflicts int
		wantSaves int
		wantErr   bool
	}{
		{name: "recovers", conflicts: 2, wantSaves: 3},
		{name: "gives up", conflicts: 3, wantSaves: 3, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &conflictingRepository{ProgressRepository: NewProgressMemory(db), conflicts: tt.conflicts}
			uc := NewProgressUseCase(repo, 3)

			_, err := uc.MarkLessonComplete(context.Background(), "u1", tt.name, "intro")
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrConflict))
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.wantSaves, repo.saves)
		})
	}
}

func TestProgressUseCase_ZeroValueRetries(t *testing.T) {
	_, db := newTestUseCase(t, "u1")
	tests := []struct {
		name      string
		conflicts int
		wantErr   bool
	}{
		{name: "writes", conflicts: 0},
		{name: "retries the default attempts", conflicts: DefaultMaxRetries, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &conflictingRepository{ProgressRepository: NewProgressMemory(db), conflicts: tt.conflicts}
			uc := &ProgressUseCaseImpl{ProgressRepository: repo}

			_, err := uc.MarkLessonComplete(context.Background(), "u1", tt.name, "intro")
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrConflict))
				assert.Equal(t, DefaultMaxRetries, repo.saves)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, 1, repo.saves)
			}
		})
	}
}

// failingRepository store is unreachable
type failingRepository struct {
	ProgressRepository
}

var errUnavailable = errors.New("connection refused")

func (failingRepository) FindCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, bool, error) {
	return nil, false, errUnavailable
}

func TestProgressUseCase_StoreUnavailable(t *testing.T) {
	uc := NewProgressUseCase(failingRepository{}, 3)
	_, err := uc.MarkLessonComplete(context.Background(), "u1", "cpp-101", "intro")
	assert.Equal(t, errUnavailable, err)
}
