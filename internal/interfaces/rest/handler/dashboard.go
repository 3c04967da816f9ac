package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-reader/internal/dashboard"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
)

type DashboardHandler struct {
	dashboardUseCase dashboard.DashboardUseCase
	jwtUtil          *auth.JWTUtil
}

func NewDashboardHandler(
	DashboardUseCase dashboard.DashboardUseCase,
	JWTUtil *auth.JWTUtil,
) *DashboardHandler {
	return &DashboardHandler{DashboardUseCase, JWTUtil}
}

func (dh *DashboardHandler) HandleGetDashboard(c echo.Context) error {
	claims := dh.jwtUtil.GetContextToken(c)
	dash, err := dh.dashboardUseCase.GetDashboard(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dash)
}
