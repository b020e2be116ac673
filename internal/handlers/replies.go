package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
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

type ReplyHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
}

func (h *ReplyHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicCommentEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

func (h *ReplyHandler) ListReplies(c echo.Context) error {
	page := util.ParsePage(
		c.QueryParam("page"), c.QueryParam("size"),
		c.QueryParam("sortBy"), c.QueryParam("direction"),
	)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.Reply{})
	if commentID := c.QueryParam("commentId"); commentID != "" {
		q = q.Where("comment_id = ?", commentID)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var items []models.Reply
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

func (h *ReplyHandler) GetReply(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var reply models.Reply
	if err := h.DB.WithContext(c.Request().Context()).First(&reply, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, reply)
}

func (h *ReplyHandler) CreateReply(c echo.Context) error {
	var req struct {
		CommentID uint   `json:"comment_id"`
		Body      string `json:"body"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	if err := validateBody(req.Body); err != nil {
		return respondError(c, err)
	}

	principal := auth.Principal(c)
	ctx := c.Request().Context()

	var parent models.Comment
	if err := h.DB.WithContext(ctx).First(&parent, req.CommentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}

	reply := models.Reply{
		CommentID: req.CommentID,
		AuthorID:  principal.UserID,
		Body:      req.Body,
	}
	if err := h.DB.WithContext(ctx).Create(&reply).Error; err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(reply.ID), map[string]any{
		"type":      "reply_created",
		"replyID":   reply.ID,
		"commentID": reply.CommentID,
		"authorID":  reply.AuthorID,
	})
	return c.JSON(http.StatusCreated, reply)
}

func (h *ReplyHandler) UpdateReply(c echo.Context) error {
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
	var reply models.Reply

	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&reply, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}
		if !principal.CanModify(reply.AuthorID) {
			return service.ErrOperationNotAllowed
		}
		reply.Body = req.Body
		return tx.Model(&reply).Update("body", req.Body).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(reply.ID), map[string]any{
		"type":     "reply_updated",
		"replyID":  reply.ID,
		"editorID": principal.UserID,
	})
	return c.JSON(http.StatusOK, reply)
}

func (h *ReplyHandler) DeleteReply(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	principal := auth.Principal(c)

	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var reply models.Reply
		if err := tx.First(&reply, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}
		if !principal.CanModify(reply.AuthorID) {
			return service.ErrOperationNotAllowed
		}
		return tx.Delete(&reply).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":      "reply_deleted",
		"replyID":   id,
		"deleterID": principal.UserID,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "reply deleted"})
}
