package rest

import (
	"expvar"
	"fmt"
	"net/http"
	"net/http/pprof"
	"strings"

	"github.com/labstack/echo/v4"
	echo_middleware "github.com/labstack/echo/v4/middleware"
	"github.com/pot-code/course-reader/internal/content"
	"github.com/pot-code/course-reader/internal/dashboard"
	infra "github.com/pot-code/course-reader/internal/infrastructure"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
	"github.com/pot-code/course-reader/internal/infrastructure/driver"
	"github.com/pot-code/course-reader/internal/infrastructure/uuid"
	"github.com/pot-code/course-reader/internal/infrastructure/validate"
	"github.com/pot-code/course-reader/internal/interfaces/rest/handler"
	"github.com/pot-code/course-reader/internal/interfaces/rest/middleware"
	"github.com/pot-code/course-reader/internal/progress"
	"github.com/pot-code/course-reader/internal/render"
	"github.com/pot-code/course-reader/internal/user"
	"go.elastic.co/apm/module/apmechov4"
	"go.uber.org/zap"
)

// Serve create http transport server and block until it stops
func Serve(
	store driver.Pinger,
	option *infra.AppConfig,
	Resolver content.Resolver,
	Renderer render.Renderer,
	UserUseCase user.UserUseCase,
	ProgressUseCase progress.ProgressUseCase,
	DashboardUseCase dashboard.DashboardUseCase,
	logger *zap.Logger,
) error {
	app := NewApp(store, option, Resolver, Renderer, UserUseCase, ProgressUseCase, DashboardUseCase, logger)
	printRoutes(app, logger)
	if err := app.Start(fmt.Sprintf("%s:%d", option.Host, option.Port)); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// NewApp create the echo app with all middlewares and routes registered
func NewApp(
	store driver.Pinger,
	option *infra.AppConfig,
	Resolver content.Resolver,
	Renderer render.Renderer,
	UserUseCase user.UserUseCase,
	ProgressUseCase progress.ProgressUseCase,
	DashboardUseCase dashboard.DashboardUseCase,
	logger *zap.Logger,
) *echo.Echo {
	var (
		app       = echo.New()
		validator = validate.NewValidator()
		websocket = infra.NewWebsocket()
		jwtUtil   = auth.NewJWTUtil(option.Security.JWTMethod,
			option.Security.JWTSecret,
			option.Security.TokenName)
		jwtMiddleware = middleware.VerifyToken(jwtUtil)
		requestID     = echo_middleware.RequestIDWithConfig(echo_middleware.RequestIDConfig{
			Generator: uuid.RequestIDFunc(uuid.NewNanoIDGenerator(option.Security.IDLength)),
		})
	)
	app.HideBanner = true

	registerLivenessProbe(app, store)
	if option.Env == infra.EnvDevelopment {
		registerProfileEndpoints(app)
	}
	app.Use(middleware.Logging(logger, &middleware.LoggingConfig{
		Skipper: func(e echo.Context) bool {
			return strings.HasPrefix(e.Request().RequestURI, "/healthz") ||
				strings.HasPrefix(e.Request().RequestURI, "/debug")
		},
	}))
	app.Use(middleware.ErrorHandling(
		&middleware.ErrorHandlingOption{
			Handler: func(c echo.Context, err error) {
				traceID := c.Response().Header().Get(echo.HeaderXRequestID)
				c.JSON(http.StatusInternalServerError,
					handler.NewRESTStandardError(http.StatusInternalServerError, err.Error()).SetTraceID(traceID),
				)
				logger.Error(err.Error(), zap.String("trace.id", traceID))
			},
		},
	))
	app.Use(echo_middleware.Secure())
	if option.DevOP.APM {
		app.Use(apmechov4.Middleware())
	}
	app.Use(echo_middleware.CORS())
	app.Use(middleware.AbortRequest(&middleware.AbortRequestOption{
		Timeout: option.RequestTimeout,
	}))

	var (
		CourseHandler    = handler.NewCourseHandler(Resolver, Renderer, validator)
		UserHandler      = handler.NewUserHandler(UserUseCase, jwtUtil)
		ProgressHandler  = handler.NewProgressHandler(ProgressUseCase, Resolver, jwtUtil, validator)
		DashboardHandler = handler.NewDashboardHandler(DashboardUseCase, jwtUtil)
		ChannelHandler   = handler.NewProgressChannelHandler(ProgressUseCase, Resolver, jwtUtil, validator, websocket)
	)

	createEndpoint(app,
		&endpoint{
			apiVersion:  "api/v1",
			middlewares: []echo.MiddlewareFunc{requestID, middleware.SetTraceLogger(logger)},
			groups: []*apiGroup{
				{
					prefix: "/courses",
					routes: []*route{
						{"GET", "", CourseHandler.HandleListCourses, nil},
						{"GET", "/:course", CourseHandler.HandleGetCourse, nil},
						{"GET", "/:course/lessons", CourseHandler.HandleListLessons, nil},
						{"GET", "/:course/lessons/:lesson", CourseHandler.HandleGetLesson, nil},
						{"GET", "/:course/lessons/:lesson/adjacent", CourseHandler.HandleGetAdjacentLessons, nil},
					},
				},
				{
					prefix:      "/user",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "/account", UserHandler.HandleGetAccount, nil},
						{"POST", "/account", UserHandler.HandleInitAccount, nil},
					},
				},
				{
					prefix:      "/progress",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", ProgressHandler.HandleGetUserProgress, nil},
						{"GET", "/:course", ProgressHandler.HandleGetCourseProgress, nil},
						{"PUT", "/:course/:lesson", ProgressHandler.HandleUpdateLessonProgress, nil},
						{"POST", "/:course/:lesson/complete", ProgressHandler.HandleMarkLessonComplete, nil},
						{"POST", "/:course/:lesson/time", ProgressHandler.HandleRecordTimeSpent, nil},
					},
				},
				{
					prefix:      "/dashboard",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "", DashboardHandler.HandleGetDashboard, nil},
					},
				},
				{
					prefix:      "/ws",
					middlewares: []echo.MiddlewareFunc{jwtMiddleware},
					routes: []*route{
						{"GET", "/progress", ChannelHandler.HandleProgressChannel, nil},
					},
				},
			},
		})
	return app
}

func printRoutes(app *echo.Echo, logger *zap.Logger) {
	for _, route := range app.Routes() {
		if !strings.HasPrefix(route.Name, "github.com/labstack/echo") {
			logger.Info("Registered route", zap.String("method", route.Method), zap.String("path", route.Path))
		}
	}
}

func registerLivenessProbe(app *echo.Echo, store driver.Pinger) {
	app.GET("/healthz", func(c echo.Context) error {
		if store.Ping(c.Request().Context()) == nil {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})
}

func registerProfileEndpoints(app *echo.Echo) {
	expvarHandler := expvar.Handler()
	app.GET("/debug/vars", func(c echo.Context) error {
		expvarHandler.ServeHTTP(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/", func(c echo.Context) error {
		pprof.Index(c.Response().Writer, c.Request())
		return nil
	})
	app.GET("/debug/pprof/:name", func(c echo.Context) error {
		switch c.Param("name") {
		case "cmdline":
			pprof.Cmdline(c.Response().Writer, c.Request())
		case "profile":
			pprof.Profile(c.Response().Writer, c.Request())
		case "symbol":
			pprof.Symbol(c.Response().Writer, c.Request())
		case "trace":
			pprof.Trace(c.Response().Writer, c.Request())
		default:
			pprof.Handler(c.Param("name")).ServeHTTP(c.Response().Writer, c.Request())
		}
		return nil
	})
}
