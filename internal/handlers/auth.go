package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/playersden/gamehub/internal/middleware/auth"
	"github.com/playersden/gamehub/internal/service"
)

// HeaderRefreshToken carries the opaque refresh token on refresh and
// single-session-logout requests.
const HeaderRefreshToken = "X-Refresh-Token"

type AuthHandler struct {
	Sessions *service.SessionService
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.SignUp(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *AuthHandler) SignIn(c echo.Context) error {
	var req credentialsRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	res, err := h.Sessions.SignIn(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AuthHandler) RefreshAccessToken(c echo.Context) error {
	refresh := c.Request().Header.Get(HeaderRefreshToken)
	if refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing refresh token"})
	}

	access, err := h.Sessions.RefreshAccessToken(c.Request().Context(), refresh)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"accessToken": access})
}

func (h *AuthHandler) SingleSessionLogout(c echo.Context) error {
	refresh := c.Request().Header.Get(HeaderRefreshToken)
	if refresh == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing refresh token"})
	}

	removed, err := h.Sessions.SingleSessionLogout(c.Request().Context(), refresh)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"removedCount": removed,
		"message":      "logged out",
	})
}

func (h *AuthHandler) AllSessionsLogout(c echo.Context) error {
	principal := auth.Principal(c)
	removed, err := h.Sessions.AllSessionsLogout(c.Request().Context(), principal.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{
		"removedCount": removed,
		"message":      "logged out everywhere",
	})
}
