package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/playersden/gamehub/internal/handlers"
	mwauth "github.com/playersden/gamehub/internal/middleware/auth"
	"github.com/playersden/gamehub/internal/roles"
)

type Deps struct {
	Guard          *mwauth.Guard
	AuthHandler    *handlers.AuthHandler
	GameHandler    *handlers.GameHandler
	CommentHandler *handlers.CommentHandler
	ReplyHandler   *handlers.ReplyHandler
	UserHandler    *handlers.UserHandler
	AccountHandler *handlers.AccountHandler
	SearchHandler  *handlers.SearchHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	authn := d.Guard.RequireAuth

	authGroup := e.Group("/auth")
	authGroup.POST("/sign-up", d.AuthHandler.SignUp)
	authGroup.POST("/sign-in", d.AuthHandler.SignIn)
	authGroup.GET("/refresh-access-token", d.AuthHandler.RefreshAccessToken)
	authGroup.DELETE("/single-session-logout", d.AuthHandler.SingleSessionLogout)
	authGroup.DELETE("/all-sessions-logout", d.AuthHandler.AllSessionsLogout, authn)

	games := e.Group("/games")
	games.GET("", d.GameHandler.ListGames)
	games.GET("/:id", d.GameHandler.GetGame)
	games.POST("", d.GameHandler.CreateGame, authn, d.Guard.Require(roles.GameManage))
	games.PATCH("/:id", d.GameHandler.PatchGame, authn, d.Guard.Require(roles.GameManage))
	games.DELETE("/:id", d.GameHandler.DeleteGame, authn, d.Guard.Require(roles.GameManage))

	e.GET("/search", d.SearchHandler.Search)

	comments := e.Group("/comments")
	comments.GET("", d.CommentHandler.ListComments)
	comments.GET("/:id", d.CommentHandler.GetComment)
	comments.POST("", d.CommentHandler.CreateComment, authn, d.Guard.Require(roles.CommentCreate))
	comments.PATCH("/:id", d.CommentHandler.UpdateComment, authn, d.Guard.Require(roles.CommentEdit))
	comments.DELETE("/:id", d.CommentHandler.DeleteComment, authn, d.Guard.Require(roles.CommentDelete))

	replies := e.Group("/replies")
	replies.GET("", d.ReplyHandler.ListReplies)
	replies.GET("/:id", d.ReplyHandler.GetReply)
	replies.POST("", d.ReplyHandler.CreateReply, authn, d.Guard.Require(roles.ReplyCreate))
	replies.PATCH("/:id", d.ReplyHandler.UpdateReply, authn, d.Guard.Require(roles.ReplyEdit))
	replies.DELETE("/:id", d.ReplyHandler.DeleteReply, authn, d.Guard.Require(roles.ReplyDelete))

	users := e.Group("/users")
	users.GET("", d.UserHandler.ListUsers)
	users.GET("/:id", d.UserHandler.GetUser)
	users.POST("/:id/ban", d.UserHandler.BanUser, authn, d.Guard.Require(roles.UserBan))
	users.POST("/:id/unban", d.UserHandler.UnbanUser, authn, d.Guard.Require(roles.UserBan))
	users.PATCH("/:id/role", d.UserHandler.ChangeRole, authn, d.Guard.Require(roles.UserRole))

	account := e.Group("/account", authn, d.Guard.Require(roles.AccountManage))
	account.GET("", d.AccountHandler.GetAccount)
	account.PATCH("", d.AccountHandler.ChangePassword)
	account.DELETE("", d.AccountHandler.DeleteAccount)
}
