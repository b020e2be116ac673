package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/events"
	"github.com/playersden/gamehub/internal/logging"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/service"
	"github.com/playersden/gamehub/internal/service/search"
	"github.com/playersden/gamehub/internal/util"
)

type GameHandler struct {
	DB       *gorm.DB
	Producer *events.Producer
	ES       *elasticsearch.Client
	Index    string
}

func (h *GameHandler) publish(c echo.Context, key string, event map[string]any) {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := h.Producer.PublishEvent(ctx, events.TopicGameEvents, key, event); err != nil {
		logging.FromContext(c.Request().Context()).Error("kafka publish failed", "error", err)
	}
}

// index mirrors the game into elasticsearch; search stays best-effort and
// never fails the write that triggered it.
func (h *GameHandler) index(c echo.Context, game *models.Game) {
	if h.ES == nil {
		return
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	if err := search.IndexGame(ctx, h.ES, h.Index, game); err != nil {
		logging.FromContext(c.Request().Context()).Error("es index failed", "game_id", game.ID, "error", err)
	}
}

func (h *GameHandler) ListGames(c echo.Context) error {
	page := util.ParsePage(
		c.QueryParam("page"), c.QueryParam("size"),
		c.QueryParam("sortBy"), c.QueryParam("direction"),
	)

	q := h.DB.WithContext(c.Request().Context()).Model(&models.Game{}).Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return respondError(c, err)
	}

	var items []models.Game
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

func (h *GameHandler) GetGame(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var game models.Game
	if err := h.DB.WithContext(c.Request().Context()).First(&game, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(c, service.ErrNotFound)
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, game)
}

func (h *GameHandler) CreateGame(c echo.Context) error {
	var req struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Genre       string `json:"genre"`
		ReleaseYear int    `json:"release_year"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	verr := service.NewValidationError()
	if req.Title == "" {
		verr.Add("title", "must not be empty")
	}
	if err := verr.OrNil(); err != nil {
		return respondError(c, err)
	}

	game := models.Game{
		Title:       req.Title,
		Description: req.Description,
		Genre:       req.Genre,
		ReleaseYear: req.ReleaseYear,
	}
	if err := h.DB.WithContext(c.Request().Context()).Create(&game).Error; err != nil {
		return respondError(c, err)
	}

	h.index(c, &game)
	h.publish(c, fmt.Sprint(game.ID), map[string]any{
		"type":   "game_created",
		"gameID": game.ID,
		"title":  game.Title,
	})
	return c.JSON(http.StatusCreated, game)
}

func (h *GameHandler) PatchGame(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title       *string `json:"title"`
		Description *string `json:"description"`
		Genre       *string `json:"genre"`
		ReleaseYear *int    `json:"release_year"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}

	var game models.Game
	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&game, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}

		updates := map[string]any{}
		if req.Title != nil {
			updates["title"] = *req.Title
		}
		if req.Description != nil {
			updates["description"] = *req.Description
		}
		if req.Genre != nil {
			updates["genre"] = *req.Genre
		}
		if req.ReleaseYear != nil {
			updates["release_year"] = *req.ReleaseYear
		}
		if len(updates) == 0 {
			return nil
		}
		return tx.Model(&game).Updates(updates).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	h.index(c, &game)
	h.publish(c, fmt.Sprint(game.ID), map[string]any{
		"type":   "game_updated",
		"gameID": game.ID,
	})
	return c.JSON(http.StatusOK, game)
}

func (h *GameHandler) DeleteGame(c echo.Context) error {
	id, err := parseIDParam(c)
	if err != nil {
		return respondError(c, err)
	}

	err = h.DB.WithContext(c.Request().Context()).Transaction(func(tx *gorm.DB) error {
		var game models.Game
		if err := tx.First(&game, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return service.ErrNotFound
			}
			return err
		}
		if err := tx.Where("comment_id IN (?)",
			tx.Model(&models.Comment{}).Select("id").Where("game_id = ?", id),
		).Delete(&models.Reply{}).Error; err != nil {
			return err
		}
		if err := tx.Where("game_id = ?", id).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Delete(&game).Error
	})
	if err != nil {
		return respondError(c, err)
	}

	if h.ES != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
		defer cancel()
		if err := search.DeleteGame(ctx, h.ES, h.Index, id); err != nil {
			logging.FromContext(c.Request().Context()).Error("es delete failed", "game_id", id, "error", err)
		}
	}
	h.publish(c, fmt.Sprint(id), map[string]any{
		"type":   "game_deleted",
		"gameID": id,
	})
	return c.JSON(http.StatusOK, echo.Map{"message": "game deleted"})
}
