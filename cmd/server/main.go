package main

import (
	"context"
	"log"
	"net/http"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"coderoom/internal/auth"
	"coderoom/internal/cache"
	"coderoom/internal/database"
	"coderoom/internal/game"
	"coderoom/internal/handlers"
	"coderoom/internal/middleware"
)

func main() {
	auth.Init()
	database.ConnectDB()
	if err := database.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	logger := logrus.New()
	if os.Getenv("LOG_LEVEL") == "debug" {
		logger.SetLevel(logrus.DebugLevel)
	}

	// Redis is optional: without it, guest names degrade and action logging
	// is skipped, but the game itself is unaffected.
	if err := cache.ConnectRedis(); err != nil {
		logger.WithError(err).Warn("Redis unavailable, continuing without it")
	}

	store := database.NewStore(database.DB)
	engine := game.NewEngine(store, logger)
	srv := handlers.NewServer(engine, database.Users{}, logger)

	mux := http.NewServeMux()

	// user endpoints
	mux.HandleFunc("POST /user/register", handlers.RegisterHandler)
	mux.HandleFunc("POST /user/login", handlers.LoginHandler)
	mux.HandleFunc("POST /user/guest", handlers.GuestHandler)

	// room lifecycle
	mux.HandleFunc("POST /room/create", srv.CreateRoomHandler)
	mux.HandleFunc("POST /room/{code}/join", srv.JoinRoomHandler)
	mux.HandleFunc("POST /room/{code}/leave", srv.LeaveRoomHandler)

	// game endpoints, polled by the clients
	mux.HandleFunc("POST /api/room/{code}/start", srv.StartHandler)
	mux.HandleFunc("GET /api/room/{code}/status", srv.StatusHandler)
	mux.HandleFunc("POST /api/room/{code}/swap", srv.SwapHandler)
	mux.HandleFunc("POST /api/room/{code}/timeout", srv.TimeoutHandler)
	mux.HandleFunc("POST /api/reset/{code}", srv.ResetHandler)

	handler := middleware.LogMiddleware(logger)(mux)

	addr := ":8080"
	if port := os.Getenv("PORT"); port != "" {
		addr = ":" + port
	}
	logger.Infof("Running on %s", addr)
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
