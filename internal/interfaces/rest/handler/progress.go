package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-reader/internal/content"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
	"github.com/pot-code/course-reader/internal/infrastructure/validate"
	"github.com/pot-code/course-reader/internal/progress"
)

// CourseProgressView course record with its completion percent
type CourseProgressView struct {
	*progress.CourseProgress
	Completion   int `json:"completion"`
	TotalLessons int `json:"totalLessons"`
}

type updateProgressPost struct {
	Completed bool `json:"completed"`
}

type timeSpentPost struct {
	Seconds int64 `json:"seconds" validate:"min=1,max=86400"`
}

type ProgressHandler struct {
	progressUseCase progress.ProgressUseCase
	resolver        content.Resolver
	jwtUtil         *auth.JWTUtil
	validator       validate.Validator
}

func NewProgressHandler(
	ProgressUseCase progress.ProgressUseCase,
	Resolver content.Resolver,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
) *ProgressHandler {
	return &ProgressHandler{ProgressUseCase, Resolver, JWTUtil, Validator}
}

func (ph *ProgressHandler) HandleGetUserProgress(c echo.Context) error {
	claims := ph.jwtUtil.GetContextToken(c)
	up, err := ph.progressUseCase.GetUserProgress(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, up)
}

func (ph *ProgressHandler) HandleGetCourseProgress(c echo.Context) error {
	courseID := c.Param("course")
	if fe := ph.validator.Slug("course", courseID); fe != nil {
		return respondInvalid(c, fe)
	}
	ctx := c.Request().Context()
	claims := ph.jwtUtil.GetContextToken(c)

	cp, err := ph.progressUseCase.GetCourseProgress(ctx, claims.UID, courseID)
	if err != nil {
		return err
	}
	if cp == nil {
		return respondError(c, http.StatusNotFound, "no progress recorded for this course")
	}
	lessons, err := ph.resolver.ListLessons(ctx, courseID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newCourseProgressView(cp, len(lessons)))
}

func (ph *ProgressHandler) HandleUpdateLessonProgress(c echo.Context) error {
	post := new(updateProgressPost)
	if err := c.Bind(post); err != nil {
		return respondInvalid(c, []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	return ph.write(c, func(ctx context.Context, uid, courseID, slug string) (*progress.CourseProgress, error) {
		return ph.progressUseCase.UpdateLessonProgress(ctx, uid, courseID, slug, post.Completed)
	})
}

func (ph *ProgressHandler) HandleMarkLessonComplete(c echo.Context) error {
	return ph.write(c, ph.progressUseCase.MarkLessonComplete)
}

func (ph *ProgressHandler) HandleRecordTimeSpent(c echo.Context) error {
	post := new(timeSpentPost)
	if err := c.Bind(post); err != nil {
		return respondInvalid(c, []*validate.FieldError{validate.NewFieldError("body", err.Error())})
	}
	if fe := ph.validator.Struct(post); fe != nil {
		return respondInvalid(c, fe)
	}
	return ph.write(c, func(ctx context.Context, uid, courseID, slug string) (*progress.CourseProgress, error) {
		return ph.progressUseCase.RecordTimeSpent(ctx, uid, courseID, slug, post.Seconds)
	})
}

type progressWrite func(ctx context.Context, uid, courseID, slug string) (*progress.CourseProgress, error)

// write run a progress write for a published lesson of a published course
func (ph *ProgressHandler) write(c echo.Context, fn progressWrite) error {
	courseID, slug := c.Param("course"), c.Param("lesson")
	if fe := append(ph.validator.Slug("course", courseID), ph.validator.Slug("lesson", slug)...); fe != nil {
		return respondInvalid(c, fe)
	}
	ctx := c.Request().Context()
	claims := ph.jwtUtil.GetContextToken(c)

	total, ok, err := publishedLesson(ctx, ph.resolver, courseID, slug)
	if err != nil {
		return err
	}
	if !ok {
		return respondError(c, http.StatusNotFound, "no such lesson")
	}

	cp, err := fn(ctx, claims.UID, courseID, slug)
	if err != nil {
		return respondDomainError(c, err)
	}
	return c.JSON(http.StatusOK, newCourseProgressView(cp, total))
}

// publishedLesson reports whether slug is a published lesson of a published
// course, along with the number of lessons in it
func publishedLesson(ctx context.Context, resolver content.Resolver, courseID, slug string) (int, bool, error) {
	course, err := resolver.GetCourse(ctx, courseID)
	if err != nil || course == nil {
		return 0, false, err
	}
	for _, l := range course.Lessons {
		if l.Slug == slug {
			return len(course.Lessons), true, nil
		}
	}
	return 0, false, nil
}

func newCourseProgressView(cp *progress.CourseProgress, totalLessons int) *CourseProgressView {
	return &CourseProgressView{
		CourseProgress: cp,
		Completion:     progress.CalculateCourseCompletion(cp, totalLessons),
		TotalLessons:   totalLessons,
	}
}
