package handlers_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/playersden/gamehub/internal/handlers"
	"github.com/playersden/gamehub/internal/hash"
	"github.com/playersden/gamehub/internal/ledger"
	mwauth "github.com/playersden/gamehub/internal/middleware/auth"
	"github.com/playersden/gamehub/internal/models"
	"github.com/playersden/gamehub/internal/roles"
	"github.com/playersden/gamehub/internal/service"
	httpserver "github.com/playersden/gamehub/internal/transport/http"
	"github.com/playersden/gamehub/pkg/tokens"
)

type testEnv struct {
	T        *testing.T
	E        *echo.Echo
	DB       *gorm.DB
	Codec    *tokens.Codec
	Sessions *service.SessionService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{}, &models.RefreshToken{},
		&models.Game{}, &models.Comment{}, &models.Reply{},
	))

	codec := tokens.NewCodec([]byte("test-jwt-secret"), 15*time.Minute)
	tokenLedger := &ledger.Ledger{DB: db, TTL: 7 * 24 * time.Hour}
	sessions := &service.SessionService{DB: db, Codec: codec, Ledger: tokenLedger}
	users := &service.UserService{DB: db, Ledger: tokenLedger}

	e := echo.New()
	httpserver.Register(e, &httpserver.Deps{
		Guard:          &mwauth.Guard{Codec: codec},
		AuthHandler:    &handlers.AuthHandler{Sessions: sessions},
		GameHandler:    &handlers.GameHandler{DB: db},
		CommentHandler: &handlers.CommentHandler{DB: db},
		ReplyHandler:   &handlers.ReplyHandler{DB: db},
		UserHandler:    &handlers.UserHandler{DB: db, Users: users},
		AccountHandler: &handlers.AccountHandler{DB: db, Users: users},
		SearchHandler:  &handlers.SearchHandler{},
	})

	return &testEnv{T: t, E: e, DB: db, Codec: codec, Sessions: sessions}
}

func (env *testEnv) do(method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	env.T.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(env.T, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for k, vals := range header {
		for _, v := range vals {
			req.Header.Add(k, v)
		}
	}

	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func bearer(token string) http.Header {
	h := http.Header{}
	h.Set(echo.HeaderAuthorization, "Bearer "+token)
	return h
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

// createUser inserts a user directly and returns it with a fresh access token.
func (env *testEnv) createUser(role roles.Role) (*models.User, string) {
	env.T.Helper()

	pwHash, err := hash.HashPassword("password123")
	require.NoError(env.T, err)

	user := models.User{
		Username:     "u_" + uuid.NewString()[:8],
		PasswordHash: pwHash,
		Role:         string(role),
	}
	require.NoError(env.T, env.DB.Create(&user).Error)

	access, err := env.Codec.Issue(user.ID, role, time.Now().UTC())
	require.NoError(env.T, err)
	return &user, access
}

func (env *testEnv) createGame(title string) *models.Game {
	env.T.Helper()
	game := models.Game{Title: title}
	require.NoError(env.T, env.DB.Create(&game).Error)
	return &game
}
