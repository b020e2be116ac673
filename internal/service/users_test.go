package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/roles"
)

func newTestUserService(t *testing.T, sessions *SessionService) *UserService {
	t.Helper()
	return &UserService{DB: sessions.DB, Ledger: sessions.Ledger}
}

func TestUserService_Ban_RevokesSessionsAndBlocksPermissions(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()

	up, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)
	in, err := sessions.SignIn(ctx, up.User.Username, "password123")
	require.NoError(t, err)

	removed, err := users.Ban(ctx, up.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), removed)

	for _, token := range []string{up.RefreshToken, in.RefreshToken} {
		_, err := sessions.RefreshAccessToken(ctx, token)
		assert.ErrorIs(t, err, ErrRefreshTokenExpiredOrRevoked)
	}

	var user models.User
	require.NoError(t, sessions.DB.First(&user, up.User.ID).Error)
	assert.Equal(t, string(roles.RoleBanned), user.Role)
}

func TestUserService_Ban_UnknownUser(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)

	_, err := users.Ban(context.Background(), 9999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_Unban(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()

	up, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)

	_, err = users.Ban(ctx, up.User.ID)
	require.NoError(t, err)
	require.NoError(t, users.Unban(ctx, up.User.ID))

	var user models.User
	require.NoError(t, sessions.DB.First(&user, up.User.ID).Error)
	assert.Equal(t, string(roles.RoleUser), user.Role)

	// Unban on a user who is not banned leaves the role alone.
	require.NoError(t, users.ChangeRole(ctx, up.User.ID, "ADMIN"))
	require.NoError(t, users.Unban(ctx, up.User.ID))
	require.NoError(t, sessions.DB.First(&user, up.User.ID).Error)
	assert.Equal(t, string(roles.RoleAdmin), user.Role)
}

func TestUserService_ChangeRole_RejectsBanned(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()

	up, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)

	var verr *ValidationError
	err = users.ChangeRole(ctx, up.User.ID, "BANNED")
	require.ErrorAs(t, err, &verr)
	err = users.ChangeRole(ctx, up.User.ID, "superuser")
	require.ErrorAs(t, err, &verr)
}

func TestUserService_ChangePassword(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()
	username := uniqueUsername()

	up, err := sessions.SignUp(ctx, username, "password123")
	require.NoError(t, err)

	err = users.ChangePassword(ctx, up.User.ID, "wrong_current", "new_password1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, users.ChangePassword(ctx, up.User.ID, "password123", "new_password1"))

	_, err = sessions.SignIn(ctx, username, "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = sessions.SignIn(ctx, username, "new_password1")
	assert.NoError(t, err)
}

func TestUserService_DeleteAccount_Cascades(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()
	db := sessions.DB

	up, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)
	other, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)

	game := models.Game{Title: "Dwarf Keep"}
	require.NoError(t, db.Create(&game).Error)

	mine := models.Comment{GameID: game.ID, AuthorID: up.User.ID, Body: "mine"}
	theirs := models.Comment{GameID: game.ID, AuthorID: other.User.ID, Body: "theirs"}
	require.NoError(t, db.Create(&mine).Error)
	require.NoError(t, db.Create(&theirs).Error)

	// A stranger's reply under my comment goes away with the comment.
	strangerReply := models.Reply{CommentID: mine.ID, AuthorID: other.User.ID, Body: "hi"}
	myReply := models.Reply{CommentID: theirs.ID, AuthorID: up.User.ID, Body: "yo"}
	require.NoError(t, db.Create(&strangerReply).Error)
	require.NoError(t, db.Create(&myReply).Error)

	require.NoError(t, users.DeleteAccount(ctx, up.User.ID))

	var count int64
	db.Model(&models.User{}).Where("id = ?", up.User.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Comment{}).Where("author_id = ?", up.User.ID).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.Reply{}).Count(&count)
	assert.Zero(t, count)
	db.Model(&models.RefreshToken{}).Where("user_id = ?", up.User.ID).Count(&count)
	assert.Zero(t, count)

	// The other user's comment survives.
	db.Model(&models.Comment{}).Where("id = ?", theirs.ID).Count(&count)
	assert.Equal(t, int64(1), count)

	_, err = sessions.RefreshAccessToken(ctx, up.RefreshToken)
	assert.ErrorIs(t, err, ErrRefreshTokenNotFound)

	require.NoError(t, users.DeleteAccount(ctx, other.User.ID))
	err = users.DeleteAccount(ctx, other.User.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserService_BanInsideTransactionUsesSharedClock(t *testing.T) {
	t.Parallel()

	sessions := newTestSessionService(t)
	users := newTestUserService(t, sessions)
	ctx := context.Background()

	fixed := time.Now().UTC()
	users.Now = func() time.Time { return fixed }

	up, err := sessions.SignUp(ctx, uniqueUsername(), "password123")
	require.NoError(t, err)

	removed, err := users.Ban(ctx, up.User.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)
}
