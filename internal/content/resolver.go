package content

import (
	"context"
	"encoding/json"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// FileResolver Resolver reading the catalog from a content tree on every call:
//
//	courses.json
//	courses/<course>/<slug>.md
type FileResolver struct {
	fsys     fs.FS
	defaults Defaults
	logger   *zap.Logger
}

var _ Resolver = &FileResolver{}

type manifest struct {
	Courses []*CourseMeta `json:"courses"`
}

// NewFileResolver create a FileResolver over fsys
func NewFileResolver(fsys fs.FS, defaults Defaults, logger *zap.Logger) *FileResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileResolver{fsys: fsys, defaults: defaults, logger: logger}
}

// ListCourses published manifest entries ordered by order, then course id
func (fr *FileResolver) ListCourses(ctx context.Context) ([]*CourseMeta, error) {
	raw, err := fs.ReadFile(fr.fsys, ManifestFile)
	if err != nil {
		return nil, &LoadError{Path: ManifestFile, Err: errors.Wrap(err, "reading manifest")}
	}
	var m manifest
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, &LoadError{Path: ManifestFile, Err: errors.Wrap(err, "decoding manifest")}
	}

	courses := make([]*CourseMeta, 0, len(m.Courses))
	for _, c := range m.Courses {
		if c == nil || !c.Published {
			continue
		}
		if c.Tags == nil {
			c.Tags = []string{}
		}
		courses = append(courses, c)
	}
	sort.SliceStable(courses, func(i, j int) bool {
		if courses[i].Order != courses[j].Order {
			return courses[i].Order < courses[j].Order
		}
		return courses[i].Course < courses[j].Course
	})
	return courses, nil
}

// ListCoursesByTag published courses carrying tag
func (fr *FileResolver) ListCoursesByTag(ctx context.Context, tag string) ([]*CourseMeta, error) {
	return fr.filterCourses(ctx, func(c *CourseMeta) bool {
		for _, t := range c.Tags {
			if t == tag {
				return true
			}
		}
		return false
	})
}

// ListCoursesByLang published courses written for lang
func (fr *FileResolver) ListCoursesByLang(ctx context.Context, lang string) ([]*CourseMeta, error) {
	return fr.filterCourses(ctx, func(c *CourseMeta) bool {
		return c.Lang == lang
	})
}

func (fr *FileResolver) filterCourses(ctx context.Context, keep func(*CourseMeta) bool) ([]*CourseMeta, error) {
	courses, err := fr.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	result := make([]*CourseMeta, 0, len(courses))
	for _, c := range courses {
		if keep(c) {
			result = append(result, c)
		}
	}
	return result, nil
}

// GetCourse published course with its lessons, nil when courseID is not published
func (fr *FileResolver) GetCourse(ctx context.Context, courseID string) (*Course, error) {
	courses, err := fr.ListCourses(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range courses {
		if c.Course != courseID {
			continue
		}
		lessons, err := fr.ListLessons(ctx, courseID)
		if err != nil {
			return nil, err
		}
		return &Course{CourseMeta: *c, Lessons: lessons}, nil
	}
	return nil, nil
}

// ListLessons published lessons of courseID ordered by order, then slug.
// A missing course directory yields no lessons, an unparsable lesson is skipped.
func (fr *FileResolver) ListLessons(ctx context.Context, courseID string) ([]*LessonMeta, error) {
	lessons := []*LessonMeta{}
	if !isPathElement(courseID) {
		return lessons, nil
	}

	dir := path.Join(CoursesDir, courseID)
	entries, err := fs.ReadDir(fr.fsys, dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return lessons, nil
		}
		return nil, &LoadError{Path: dir, Err: errors.Wrap(err, "listing lessons")}
	}

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, LessonExt) {
			continue
		}
		slug := strings.TrimSuffix(name, LessonExt)
		if !isPathElement(slug) {
			continue
		}
		lesson, err := fr.readLesson(courseID, slug)
		if err != nil {
			fr.logger.Warn("Skipped unreadable lesson", zap.Error(err),
				zap.String("course.id", courseID),
				zap.String("lesson.slug", slug),
			)
			continue
		}
		if lesson.Published {
			meta := lesson.LessonMeta
			lessons = append(lessons, &meta)
		}
	}

	sort.SliceStable(lessons, func(i, j int) bool {
		if lessons[i].Order != lessons[j].Order {
			return lessons[i].Order < lessons[j].Order
		}
		return lessons[i].Slug < lessons[j].Slug
	})
	return lessons, nil
}

// GetLesson lesson with its raw markdown, nil when the file does not exist.
// Publication is not checked, callers decide whether drafts are visible.
func (fr *FileResolver) GetLesson(ctx context.Context, courseID, slug string) (*Lesson, error) {
	if !isPathElement(courseID) || !isPathElement(slug) {
		return nil, nil
	}
	lesson, err := fr.readLesson(courseID, slug)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	return lesson, nil
}

// GetAdjacentLessons previous and next published lesson around slug, both nil
// when slug is not a published lesson of the course
func (fr *FileResolver) GetAdjacentLessons(ctx context.Context, courseID, slug string) (*Adjacent, error) {
	lessons, err := fr.ListLessons(ctx, courseID)
	if err != nil {
		return nil, err
	}
	return AdjacentOf(lessons, slug), nil
}

// AdjacentOf neighbours of slug in an ordered lesson list
func AdjacentOf(lessons []*LessonMeta, slug string) *Adjacent {
	adj := new(Adjacent)
	index := -1
	for i, l := range lessons {
		if l.Slug == slug {
			index = i
			break
		}
	}
	if index < 0 {
		return adj
	}
	if index > 0 {
		adj.Prev = lessons[index-1]
	}
	if index < len(lessons)-1 {
		adj.Next = lessons[index+1]
	}
	return adj
}

func (fr *FileResolver) readLesson(courseID, slug string) (*Lesson, error) {
	file := path.Join(CoursesDir, courseID, slug+LessonExt)
	raw, err := fs.ReadFile(fr.fsys, file)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
		return nil, &LoadError{Path: file, Err: errors.Wrap(err, "reading lesson")}
	}
	lesson, err := parseLesson(courseID, slug, raw, fr.defaults)
	if err != nil {
		return nil, &LoadError{Path: file, Err: err}
	}
	return lesson, nil
}

// isPathElement reports whether s names exactly one entry inside its parent directory
func isPathElement(s string) bool {
	return s != "" && s != "." && s != ".." && !strings.ContainsAny(s, `/\`) && fs.ValidPath(s)
}
