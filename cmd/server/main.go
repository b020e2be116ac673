package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/elastic/go-elasticsearch/v9"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/playersden/gamehub/internal/config"
	"github.com/playersden/gamehub/internal/es"
	"github.com/playersden/gamehub/internal/events"
	"github.com/playersden/gamehub/internal/handlers"
	"github.com/playersden/gamehub/internal/ledger"
	"github.com/playersden/gamehub/internal/logging"
	mwauth "github.com/playersden/gamehub/internal/middleware/auth"
	loggingmw "github.com/playersden/gamehub/internal/middleware/logging"
	"github.com/playersden/gamehub/internal/service"
	httpserver "github.com/playersden/gamehub/internal/transport/http"
	"github.com/playersden/gamehub/pkg/tokens"
)

const gamesIndex = "games"

func main() {
	configuration, err := config.LoadConfig()
	if err != nil {
		log.Fatal(err)
	}
	config.MustNonEmpty(configuration.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(configuration.JWTSecret, "JWT_SECRET")

	logger := logging.New(configuration.LogLevel)

	db, err := config.InitDB(context.Background(), configuration)
	if err != nil {
		log.Fatalf("db init error: %v", err)
	}

	var producer *events.Producer
	if configuration.KafkaBrokers != "" {
		producer = events.NewProducer([]string{configuration.KafkaBrokers})
	}

	var esClient *elasticsearch.Client
	if configuration.ESURL != "" {
		esClient, err = es.NewClient(configuration)
		if err != nil {
			log.Fatalf("elasticsearch init error: %v", err)
		}
	}

	codec := tokens.NewCodec(configuration.JWTSecret, configuration.AccessTTL)
	tokenLedger := &ledger.Ledger{DB: db, TTL: configuration.RefreshTTL}

	sessions := &service.SessionService{
		DB:       db,
		Codec:    codec,
		Ledger:   tokenLedger,
		Producer: producer,
	}
	users := &service.UserService{
		DB:       db,
		Ledger:   tokenLedger,
		Producer: producer,
	}

	e := echo.New()
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.Recover(), middleware.RequestID())
	e.Use(loggingmw.RequestLogger(logger))

	deps := httpserver.Deps{
		Guard:          &mwauth.Guard{Codec: codec},
		AuthHandler:    &handlers.AuthHandler{Sessions: sessions},
		GameHandler:    &handlers.GameHandler{DB: db, Producer: producer, ES: esClient, Index: gamesIndex},
		CommentHandler: &handlers.CommentHandler{DB: db, Producer: producer},
		ReplyHandler:   &handlers.ReplyHandler{DB: db, Producer: producer},
		UserHandler:    &handlers.UserHandler{DB: db, Users: users},
		AccountHandler: &handlers.AccountHandler{DB: db, Users: users},
		SearchHandler:  &handlers.SearchHandler{ES: esClient, Index: gamesIndex},
	}
	httpserver.Register(e, &deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", configuration.ServerPort),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("http server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			log.Printf("db close error: %v", err)
		}
	} else {
		log.Printf("db() error: %v", err)
	}

	if err := producer.Close(); err != nil {
		log.Printf("kafka close error: %v", err)
	}

	log.Println("shutdown complete")
}
