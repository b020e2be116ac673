package handlers_test

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/roles"
)

func TestGameCRUD_AdminOnly(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, userTok := env.createUser(roles.RoleUser)
	_, adminTok := env.createUser(roles.RoleAdmin)

	payload := map[string]interface{}{
		"title": "Dwarf Keep", "genre": "strategy", "release_year": 2024,
	}

	// Plain users cannot manage the catalog.
	rec := env.do(http.MethodPost, "/games", payload, bearer(userTok))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodPost, "/games", payload, bearer(adminTok))
	require.Equal(t, http.StatusCreated, rec.Code)
	created := decode(t, rec)
	gameID := uint(created["id"].(float64))
	assert.Equal(t, "Dwarf Keep", created["title"])

	rec = env.do(http.MethodPatch, fmt.Sprintf("/games/%d", gameID), map[string]string{
		"genre": "city builder",
	}, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)

	var game models.Game
	require.NoError(t, env.DB.First(&game, gameID).Error)
	assert.Equal(t, "city builder", game.Genre)
	assert.Equal(t, "Dwarf Keep", game.Title)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/games/%d", gameID), nil, bearer(userTok))
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(http.MethodDelete, fmt.Sprintf("/games/%d", gameID), nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, fmt.Sprintf("/games/%d", gameID), nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGame_Validation(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	_, adminTok := env.createUser(roles.RoleAdmin)

	rec := env.do(http.MethodPost, "/games", map[string]string{"title": ""}, bearer(adminTok))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteGame_CascadesToThreads(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author, _ := env.createUser(roles.RoleUser)
	_, adminTok := env.createUser(roles.RoleAdmin)
	game := env.createGame("Dwarf Keep")

	comment := env.createComment(author.ID, game.ID, "thread root")
	require.NoError(t, env.DB.Create(&models.Reply{
		CommentID: comment.ID, AuthorID: author.ID, Body: "first",
	}).Error)

	rec := env.do(http.MethodDelete, fmt.Sprintf("/games/%d", game.ID), nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)

	var count int64
	env.DB.Model(&models.Comment{}).Where("game_id = ?", game.ID).Count(&count)
	assert.Zero(t, count)
	env.DB.Model(&models.Reply{}).Count(&count)
	assert.Zero(t, count)
}

func TestListGames_Pagination(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	for i := 0; i < 7; i++ {
		env.createGame(fmt.Sprintf("Game %d", i))
	}

	rec := env.do(http.MethodGet, "/games?page=0&size=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Len(t, body["data"].([]interface{}), 5)
	assert.Equal(t, float64(7), body["meta"].(map[string]interface{})["total"])

	rec = env.do(http.MethodGet, "/games?page=1&size=5", nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["data"].([]interface{}), 2)
}
