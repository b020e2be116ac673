package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/service"
	"github.com/playersden/gamehub/internal/util"
)

type UserHandler struct {
	DB    *gorm.DB
	Users *service.UserService
}

func toPublic(u *models.User) service.PublicUser {
	return service.PublicUser{ID: u.ID, Username: u.Username, Role: u.Role}
}

func (h *UserHandler) ListUsers(c echo.Context) error {
	page := util.ParsePage(
		c.QueryParam("page"), c.QueryParam("size"),
		c.QueryParam("sortBy"), c.QueryParam("direction"),
	)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.User{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var users []models.User
	if err := q.Order(page.Order()).Offset(page.Offset()).Limit(page.Size).Find(&users).Error; err != nil {
		return respondError(c, err)
	}

	data := make([]service.PublicUser, len(users))
	for i := range users {
		data[i] = toPublic(&users[i])
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": data,
		"meta": echo.Map{
			"page":       page.Number,
			"size":       page.Size,
			"total":      total,
			"totalPages": util.TotalPages(total, page.Size),
		},
	})
}

func (h *UserHandler) GetUser(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var user models.User
	if err := h.DB.WithContext(c.Request().Context()).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toPublic(&user))
}

func (h *UserHandler) BanUser(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	removed, err := h.Users.Ban(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"message":      "user banned",
		"removedCount": removed,
	})
}

func (h *UserHandler) UnbanUser(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	if err := h.Users.Unban(c.Request().Context(), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "user unbanned"})
}

func (h *UserHandler) ChangeRole(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Role string `json:"role"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	if err := h.Users.ChangeRole(c.Request().Context(), id, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"message": "role updated"})
}
