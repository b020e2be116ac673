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

func TestCreateReply(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author, access := env.createUser(roles.RoleUser)
	game := env.createGame("Dwarf Keep")
	comment := env.createComment(author.ID, game.ID, "thread root")

	rec := env.do(http.MethodPost, "/replies", map[string]interface{}{
		"comment_id": comment.ID, "body": "me too",
	}, bearer(access))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "me too", decode(t, rec)["body"])

	// Parent comment must exist.
	rec = env.do(http.MethodPost, "/replies", map[string]interface{}{
		"comment_id": 9999, "body": "orphan",
	}, bearer(access))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReplyOwnership(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author, authorTok := env.createUser(roles.RoleUser)
	_, otherTok := env.createUser(roles.RoleUser)
	_, adminTok := env.createUser(roles.RoleAdmin)
	game := env.createGame("Dwarf Keep")
	comment := env.createComment(author.ID, game.ID, "thread root")

	reply := models.Reply{CommentID: comment.ID, AuthorID: author.ID, Body: "original"}
	require.NoError(t, env.DB.Create(&reply).Error)
	path := fmt.Sprintf("/replies/%d", reply.ID)

	rec := env.do(http.MethodPatch, path, map[string]string{"body": "defaced"}, bearer(otherTok))
	require.Equal(t, http.StatusConflict, rec.Code)

	rec = env.do(http.MethodPatch, path, map[string]string{"body": "edited"}, bearer(authorTok))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodDelete, path, nil, bearer(adminTok))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(http.MethodGet, path, nil, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListReplies_ByComment(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	author, _ := env.createUser(roles.RoleUser)
	game := env.createGame("Dwarf Keep")
	first := env.createComment(author.ID, game.ID, "first thread")
	second := env.createComment(author.ID, game.ID, "second thread")

	for i := 0; i < 3; i++ {
		require.NoError(t, env.DB.Create(&models.Reply{
			CommentID: first.ID, AuthorID: author.ID, Body: fmt.Sprintf("r%d", i),
		}).Error)
	}
	require.NoError(t, env.DB.Create(&models.Reply{
		CommentID: second.ID, AuthorID: author.ID, Body: "elsewhere",
	}).Error)

	rec := env.do(http.MethodGet, fmt.Sprintf("/replies?commentId=%d", first.ID), nil, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Len(t, body["data"].([]interface{}), 3)
	assert.Equal(t, float64(3), body["meta"].(map[string]interface{})["total"])
}
