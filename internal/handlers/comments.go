package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/events"
	"github.com/playersden/gamehub/internal/logging"
	"github.com/playersden/gamehub/internal/middleware/auth"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/service"
	"github.com/playersden/gamehub/internal/util"
)

const maxBodyLen = 2000

type CommentHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *CommentHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicCommentEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func parseIDParam(c echo.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return 0, service.ErrNotFound
	}
	return uint(id), nil
}

func validateBody(body string) error {
	verr := service.NewValidationError()
	if len(body) == 0 || len(body) > maxBodyLen {
		verr.Add("body", fmt.Sprintf("must be 1-%d characters", maxBodyLen))
	}
	return verr.OrNil()
}

func (h *CommentHandler) ListComments(c echo.Context) error {
	page := util.ParsePage(
		c.QueryParam("page"), c.QueryParam("size"),
		c.QueryParam("sortBy"), c.QueryParam("direction"),
	)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.Comment{})
	if gameID := c.QueryParam("gameId"); gameID != "" {
		q = q.Where("game_id = ?", gameID)
	}
	// Reused for Count and Find.
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var items []models.Comment
	if err := q.Order(page.Order()).Offset(page.Offset()).Limit(page.Size).Find(&items).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"data": items,
		"meta": echo.Map{
			"page":       page.Number,
			"size":       page.Size,
			"total":      total,
			"totalPages": util.TotalPages(total, page.Size),
		},
	})
}

func (h *CommentHandler) GetComment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var comment models.Comment
	if err := h.DB.WithContext(c.Request().Context()).First(&comment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) CreateComment(c echo.Context) error {
	var req struct {
		GameID uint   `json:"game_id"`
		Body   string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateBody(req.Body); err != nil {
		return respondError(c, err)
	}

	principal := auth.Principal(c)
	ctx := c.Request().Context()

	var game models.Game
	if err := h.DB.WithContext(ctx).First(&game, req.GameID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}

	comment := models.Comment{
		GameID:   req.GameID,
		AuthorID: principal.UserID,
		Body:     req.Body,
	}
	if err := h.DB.WithContext(ctx).Create(&comment).Error; err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(comment.ID), map[string]any{
		"type":      "comment_created",
		"commentID": comment.ID,
		"gameID":    comment.GameID,
		"authorID":  comment.AuthorID,
	})
	return c.JSON(http.StatusCreated, comment)
}

// UpdateComment loads, checks ownership and writes inside one transaction so
// a concurrent delete or ban cannot race past the check.
func (h *CommentHandler) UpdateComment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Body string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateBody(req.Body); err != nil {
		return respondError(c, err)
	}

	principal := auth.Principal(c)
	var comment models.Comment

	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}
		if !principal.CanModify(comment.AuthorID) {
			return service.ErrOperationNotAllowed
		}
		comment.Body = req.Body
		return tx.Model(&comment).Update("body", req.Body).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(comment.ID), map[string]any{
		"type":      "comment_updated",
		"commentID": comment.ID,
		"editorID":  principal.UserID,
	})
	return c.JSON(http.StatusOK, comment)
}

func (h *CommentHandler) DeleteComment(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	principal := auth.Principal(c)

	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var comment models.Comment
		if err := tx.First(&comment, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}
		if !principal.CanModify(comment.AuthorID) {
			return service.ErrOperationNotAllowed
		}
		if err := tx.Where("comment_id = ?", id).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		return tx.Delete(&comment).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":      "comment_deleted",
		"commentID": id,
		"deleterID": principal.UserID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "comment deleted"})
}
