package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pot-code/course-reader/internal/infrastructure/auth"
	"github.com/pot-code/course-reader/internal/user"
)

type UserHandler struct {
	userUseCase user.UserUseCase
	jwtUtil     *auth.JWTUtil
}

func NewUserHandler(
	UserUseCase user.UserUseCase,
	JWTUtil *auth.JWTUtil,
) *UserHandler {
	return &UserHandler{UserUseCase, JWTUtil}
}

func (uh *UserHandler) HandleGetAccount(c echo.Context) error {
	claims := uh.jwtUtil.GetContextToken(c)
	account, err := uh.userUseCase.GetAccount(c.Request().Context(), claims.UID)
	if err != nil {
		return err
	}
	if account == nil {
		return respondError(c, http.StatusNotFound, "account is not initialized")
	}
	return c.JSON(http.StatusOK, account)
}

// HandleInitAccount create the account of the token identity, 201 on creation
func (uh *UserHandler) HandleInitAccount(c echo.Context) error {
	claims := uh.jwtUtil.GetContextToken(c)
	account, created, err := uh.userUseCase.InitAccount(c.Request().Context(), &user.UserModel{
		ID:          claims.UID,
		DisplayName: claims.Name,
		PhotoURL:    claims.Picture,
		Email:       claims.Email,
	})
	if err != nil {
		return err
	}
	if created {
		return c.JSON(http.StatusCreated, account)
	}
	return c.JSON(http.StatusOK, account)
}
