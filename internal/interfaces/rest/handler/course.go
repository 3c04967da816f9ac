package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-reader/internal/content"
	"github.com/pot-code/course-reader/internal/infrastructure/validate"
	"github.com/pot-code/course-reader/internal/render"
)

// LessonView published lesson with rendered body and neighbours
type LessonView struct {
	*content.Lesson
	HTML string              `json:"html"`
	Prev *content.LessonMeta `json:"prev"`
	Next *content.LessonMeta `json:"next"`
}

type CourseHandler struct {
	resolver  content.Resolver
	renderer  render.Renderer
	validator validate.Validator
}

func NewCourseHandler(
	Resolver content.Resolver,
	Renderer render.Renderer,
	Validator validate.Validator,
) *CourseHandler {
	return &CourseHandler{Resolver, Renderer, Validator}
}

func (ch *CourseHandler) HandleListCourses(c echo.Context) error {
	ctx := c.Request().Context()
	var (
		courses []*content.CourseMeta
		err     error
	)
	switch tag, lang := c.QueryParam("tag"), c.QueryParam("lang"); {
	case tag != "":
		courses, err = ch.resolver.ListCoursesByTag(ctx, tag)
	case lang != "":
		courses, err = ch.resolver.ListCoursesByLang(ctx, lang)
	default:
		courses, err = ch.resolver.ListCourses(ctx)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, courses)
}

func (ch *CourseHandler) HandleGetCourse(c echo.Context) error {
	courseID := c.Param("course")
	if fe := ch.validator.Slug("course", courseID); fe != nil {
		return respondInvalid(c, fe)
	}

	course, err := ch.resolver.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return respondError(c, http.StatusNotFound, "no such course")
	}
	return c.JSON(http.StatusOK, course)
}

func (ch *CourseHandler) HandleListLessons(c echo.Context) error {
	courseID := c.Param("course")
	if fe := ch.validator.Slug("course", courseID); fe != nil {
		return respondInvalid(c, fe)
	}

	course, err := ch.resolver.GetCourse(c.Request().Context(), courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return respondError(c, http.StatusNotFound, "no such course")
	}
	return c.JSON(http.StatusOK, course.Lessons)
}

func (ch *CourseHandler) HandleGetLesson(c echo.Context) error {
	courseID, slug, fe := ch.lessonParams(c)
	if fe != nil {
		return respondInvalid(c, fe)
	}
	ctx := c.Request().Context()

	course, err := ch.resolver.GetCourse(ctx, courseID)
	if err != nil {
		return err
	}
	if course == nil {
		return respondError(c, http.StatusNotFound, "no such course")
	}
	lesson, err := ch.resolver.GetLesson(ctx, courseID, slug)
	if err != nil {
		return err
	}
	if lesson == nil || !lesson.Published {
		return respondError(c, http.StatusNotFound, "no such lesson")
	}

	html, err := ch.renderer.Render(lesson.Content)
	if err != nil {
		return err
	}
	adj := content.AdjacentOf(course.Lessons, slug)
	return c.JSON(http.StatusOK, &LessonView{Lesson: lesson, HTML: html, Prev: adj.Prev, Next: adj.Next})
}

func (ch *CourseHandler) HandleGetAdjacentLessons(c echo.Context) error {
	courseID, slug, fe := ch.lessonParams(c)
	if fe != nil {
		return respondInvalid(c, fe)
	}

	adj, err := ch.resolver.GetAdjacentLessons(c.Request().Context(), courseID, slug)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, adj)
}

func (ch *CourseHandler) lessonParams(c echo.Context) (courseID, slug string, fe []*validate.FieldError) {
	courseID, slug = c.Param("course"), c.Param("lesson")
	fe = append(ch.validator.Slug("course", courseID), ch.validator.Slug("lesson", slug)...)
	return
}
