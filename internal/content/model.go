package content

import (
	"context"
	"fmt"
)

// ManifestFile course manifest path relative to the content root
const ManifestFile = "courses.json"

// CoursesDir directory holding one sub directory of markdown lessons per course
const CoursesDir = "courses"

// LessonExt lesson file extension, the file name without it is the lesson slug
const LessonExt = ".md"

// CourseMeta one entry of the course manifest
type CourseMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Author      string   `json:"author"`
	Date        string   `json:"date"`
	Tags        []string `json:"tags"`
	Published   bool     `json:"published"`
	Lang        string   `json:"lang"`
	Course      string   `json:"course"`
	Img         string   `json:"img,omitempty"`
	Alt         string   `json:"alt,omitempty"`
	Order       int      `json:"order"`
}

// LessonMeta lesson front-matter with defaults applied
type LessonMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
	Published   bool     `json:"published"`
	Lang        string   `json:"lang"`
	Course      string   `json:"course"`
	Order       int      `json:"order"`
	Slug        string   `json:"slug"`
}

// Lesson metadata and the raw markdown body
type Lesson struct {
	LessonMeta
	Content string `json:"content"`
}

// Course manifest entry with its published lessons
type Course struct {
	CourseMeta
	Lessons []*LessonMeta `json:"lessons"`
}

// Adjacent neighbours of a lesson in course order, nil at the boundaries
type Adjacent struct {
	Prev *LessonMeta `json:"prev"`
	Next *LessonMeta `json:"next"`
}

// Defaults values applied to lesson front-matter fields that are absent.
// A missing title falls back to the slug.
type Defaults struct {
	Description string
	Published   bool
	Lang        string
	Order       int
}

// DefaultDefaults the stock defaults, unordered lessons sort last
func DefaultDefaults() Defaults {
	return Defaults{
		Description: "",
		Published:   true,
		Lang:        "cpp",
		Order:       999,
	}
}

// LoadError manifest or lesson file that could not be read or parsed
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("content: load %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Resolver read-only access to the course catalog. Absent courses and lessons
// are reported as nil results, never as errors.
type Resolver interface {
	ListCourses(ctx context.Context) ([]*CourseMeta, error)
	ListCoursesByTag(ctx context.Context, tag string) ([]*CourseMeta, error)
	ListCoursesByLang(ctx context.Context, lang string) ([]*CourseMeta, error)
	GetCourse(ctx context.Context, courseID string) (*Course, error)
	ListLessons(ctx context.Context, courseID string) ([]*LessonMeta, error)
	GetLesson(ctx context.Context, courseID, slug string) (*Lesson, error)
	GetAdjacentLessons(ctx context.Context, courseID, slug string) (*Adjacent, error)
}
