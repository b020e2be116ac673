package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/middleware/auth"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/service"
)

type AccountHandler struct {
	DB    *gorm.DB
	Users *service.UserService
}

func (h *AccountHandler) GetAccount(c echo.Context) error {
	principal := auth.Principal(c)

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, principal.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toPublic(&user))
}

func (h *AccountHandler) ChangePassword(c echo.Context) error {
	var req struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	principal := auth.Principal(c)
	if err := h.Users.ChangePassword(c.Request().Context(), principal.UserID, req.CurrentPassword, req.NewPassword); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "password updated"})
}

func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	principal := auth.Principal(c)
	if err := h.Users.DeleteAccount(c.Request().Context(), principal.UserID); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "account deleted"})
}
