package progress

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgressMemory_SaveCourseProgress(t *testing.T) {
	_, db := newTestUseCase(t, "u1")
	repo := NewProgressMemory(db)
	cp := VisitLesson(nil, "intro", true, testNow)
	cp.Revision = 1

	assert.Equal(t, ErrAccountNotInitialized, repo.SaveCourseProgress(context.Background(), "nobody", "cpp-101", cp, 0))
	assert.NoError(t, repo.SaveCourseProgress(context.Background(), "u1", "cpp-101", cp, 0))
	assert.Equal(t, ErrConflict, repo.SaveCourseProgress(context.Background(), "u1", "cpp-101", cp, 0))

	stored, exists, err := repo.FindCourseProgress(context.Background(), "u1", "cpp-101")
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.Equal(t, int64(1), stored.Revision)

	next := VisitLesson(stored, "variables", false, testNow)
	next.Revision = 2
	assert.Equal(t, ErrConflict, repo.SaveCourseProgress(context.Background(), "u1", "cpp-101", next, 5))
	assert.NoError(t, repo.SaveCourseProgress(context.Background(), "u1", "cpp-101", next, 1))
}

func TestProgressPath(t *testing.T) {
	path, err := progressPath("cpp-101")
	assert.NoError(t, err)
	assert.Equal(t, "progress.cpp-101", path)

	for _, id := range []string{"", "cpp.101", "$where"} {
		_, err := progressPath(id)
		assert.Error(t, err, id)
	}
}

func TestProgressField(t *testing.T) {
	assert.Equal(t, "progress:cpp-101", ProgressField("cpp-101"))
}

func TestMillis(t *testing.T) {
	at := time.Date(2021, 3, 14, 15, 9, 26, 535000000, time.UTC)
	assert.Equal(t, int64(1615734566535), toMillis(at))
	assert.Equal(t, at, fromMillis(toMillis(at)))
}

func TestProgressRow_ToModel(t *testing.T) {
	empty := &progressRow{}
	cp, err := empty.toModel()
	assert.NoError(t, err)
	assert.Nil(t, cp)

	row := &progressRow{
		CourseID:         sql.NullString{String: "cpp-101", Valid: true},
		StartedAt:        sql.NullInt64{Int64: 1615734566000, Valid: true},
		LastAccessedAt:   sql.NullInt64{Int64: 1615734567000, Valid: true},
		CurrentLesson:    sql.NullString{String: "intro", Valid: true},
		CompletedLessons: sql.NullString{String: `["intro"]`, Valid: true},
		LessonsProgress:  sql.NullString{String: `{"intro":{"completed":true,"timeSpent":30}}`, Valid: true},
		Revision:         sql.NullInt64{Int64: 4, Valid: true},
	}
	cp, err = row.toModel()
	assert.NoError(t, err)
	assert.Equal(t, "intro", cp.CurrentLesson)
	assert.Equal(t, []string{"intro"}, cp.CompletedLessons)
	assert.Equal(t, int64(30), cp.LessonsProgress["intro"].TimeSpent)
	assert.Equal(t, int64(4), cp.Revision)
	assert.Equal(t, fromMillis(1615734566000), cp.StartedAt)

	row.LessonsProgress.String = "{"
	_, err = row.toModel()
	assert.Error(t, err)
}
