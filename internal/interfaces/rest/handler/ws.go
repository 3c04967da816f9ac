package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/pot-code/course-reader/internal/content"
	infra "github.com/pot-code/course-reader/internal/infrastructure"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
	"github.com/pot-code/course-reader/internal/infrastructure/logging"
	"github.com/pot-code/course-reader/internal/infrastructure/validate"
	"github.com/pot-code/course-reader/internal/progress"
	"go.uber.org/zap"
)

// reader channel actions
const (
	ActionVisit    = "visit"
	ActionComplete = "complete"
)

// ProgressMessage client message of the reader channel
type ProgressMessage struct {
	Action string `json:"action" validate:"oneof=visit complete"`
	Course string `json:"course" validate:"slug"`
	Lesson string `json:"lesson" validate:"slug"`
}

// ProgressReply reply to one ProgressMessage, either Progress or Error is set
type ProgressReply struct {
	Action   string              `json:"action"`
	Course   string              `json:"course"`
	Lesson   string              `json:"lesson"`
	Progress *CourseProgressView `json:"progress,omitempty"`
	Error    *RESTStandardError  `json:"error,omitempty"`
}

// ProgressChannelHandler records lesson visits sent by the reader over a websocket
type ProgressChannelHandler struct {
	progressUseCase progress.ProgressUseCase
	resolver        content.Resolver
	jwtUtil         *auth.JWTUtil
	validator       validate.Validator
	websocket       *infra.Websocket
}

func NewProgressChannelHandler(
	ProgressUseCase progress.ProgressUseCase,
	Resolver content.Resolver,
	JWTUtil *auth.JWTUtil,
	Validator validate.Validator,
	Websocket *infra.Websocket,
) *ProgressChannelHandler {
	return &ProgressChannelHandler{ProgressUseCase, Resolver, JWTUtil, Validator, Websocket}
}

func (pch *ProgressChannelHandler) HandleProgressChannel(c echo.Context) error {
	claims := pch.jwtUtil.GetContextToken(c)
	ctx := c.Request().Context()
	logger := logging.ExtractLoggerFromContext(ctx).With(zap.String("user.id", claims.UID))

	return pch.websocket.Serve(c, func(conn *websocket.Conn) error {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if _, ok := err.(*websocket.CloseError); !ok {
				logger.Debug("Progress channel closed", zap.Error(err))
			}
			return err
		}

		msg := new(ProgressMessage)
		if err := json.Unmarshal(data, msg); err != nil {
			if !isMalformedJSON(err) {
				return err
			}
			return conn.WriteJSON(&ProgressReply{Error: NewRESTStandardError(http.StatusBadRequest, "malformed message")})
		}

		reply := pch.handleMessage(ctx, claims.UID, msg)
		if reply.Error != nil && reply.Error.Code >= http.StatusInternalServerError {
			logger.Error(reply.Error.Detail, zap.String("course.id", msg.Course), zap.String("lesson.slug", msg.Lesson))
		}
		return conn.WriteJSON(reply)
	})
}

func (pch *ProgressChannelHandler) handleMessage(ctx context.Context, uid string, msg *ProgressMessage) *ProgressReply {
	reply := &ProgressReply{Action: msg.Action, Course: msg.Course, Lesson: msg.Lesson}
	fail := func(code int, detail string) *ProgressReply {
		reply.Error = NewRESTStandardError(code, detail)
		return reply
	}

	if fe := pch.validator.Struct(msg); fe != nil {
		return fail(http.StatusBadRequest, fe[0].Reason)
	}
	total, ok, err := publishedLesson(ctx, pch.resolver, msg.Course, msg.Lesson)
	if err != nil {
		return fail(http.StatusInternalServerError, err.Error())
	}
	if !ok {
		return fail(http.StatusNotFound, "no such lesson")
	}

	cp, err := pch.progressUseCase.UpdateLessonProgress(ctx, uid, msg.Course, msg.Lesson, msg.Action == ActionComplete)
	switch {
	case errors.Is(err, progress.ErrAccountNotInitialized), errors.Is(err, progress.ErrConflict):
		return fail(http.StatusConflict, err.Error())
	case err != nil:
		return fail(http.StatusInternalServerError, err.Error())
	}
	reply.Progress = newCourseProgressView(cp, total)
	return reply
}

func isMalformedJSON(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}
