package progress

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/pot-code/course-reader/internal/infrastructure/driver"
)

// ProgressFieldPrefix prefix of the per course fields of a user document
const ProgressFieldPrefix = "progress:"

// ProgressField document field holding the record of courseID
func ProgressField(courseID string) string {
	return ProgressFieldPrefix + courseID
}

// ProgressMemory ProgressRepository on a process local MemoryDB
type ProgressMemory struct {
	DB *driver.MemoryDB
}

var _ ProgressRepository = &ProgressMemory{}

// NewProgressMemory ...
func NewProgressMemory(DB *driver.MemoryDB) *ProgressMemory {
	return &ProgressMemory{DB}
}

func (repo *ProgressMemory) FindUserProgress(ctx context.Context, userID string) (UserProgress, bool, error) {
	doc, ok := repo.DB.Get(userID)
	if !ok {
		return UserProgress{}, false, nil
	}
	progress, err := decodeProgressFields(doc)
	return progress, true, err
}

func (repo *ProgressMemory) FindCourseProgress(ctx context.Context, userID, courseID string) (*CourseProgress, bool, error) {
	doc, ok := repo.DB.Get(userID)
	if !ok {
		return nil, false, nil
	}
	raw, ok := doc[ProgressField(courseID)]
	if !ok {
		return nil, true, nil
	}
	cp, err := decodeCourseProgress(raw)
	return cp, true, err
}

func (repo *ProgressMemory) SaveCourseProgress(ctx context.Context, userID, courseID string, cp *CourseProgress, expected int64) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return err
	}
	field := ProgressField(courseID)
	return repo.DB.Mutate(userID, func(doc map[string][]byte, exists bool) (map[string][]byte, error) {
		if !exists {
			return nil, ErrAccountNotInitialized
		}
		var revision int64
		if raw, ok := doc[field]; ok {
			stored, err := decodeCourseProgress(raw)
			if err != nil {
				return nil, err
			}
			revision = stored.Revision
		}
		if revision != expected {
			return nil, ErrConflict
		}
		doc[field] = data
		return doc, nil
	})
}

func decodeProgressFields(fields map[string][]byte) (UserProgress, error) {
	progress := UserProgress{}
	for field, raw := range fields {
		if !strings.HasPrefix(field, ProgressFieldPrefix) {
			continue
		}
		cp, err := decodeCourseProgress(raw)
		if err != nil {
			return nil, err
		}
		progress[strings.TrimPrefix(field, ProgressFieldPrefix)] = cp
	}
	return progress, nil
}

func decodeCourseProgress(raw []byte) (*CourseProgress, error) {
	cp := new(CourseProgress)
	if err := json.Unmarshal(raw, cp); err != nil {
		return nil, err
	}
	normalize(cp)
	return cp, nil
}

// normalize replace nil collections of a decoded record
func normalize(cp *CourseProgress) {
	if cp.CompletedLessons == nil {
		cp.CompletedLessons = []string{}
	}
	if cp.LessonsProgress == nil {
		cp.LessonsProgress = map[string]*LessonProgress{}
	}
}
