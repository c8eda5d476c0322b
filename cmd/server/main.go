package main

import (
	"log"

	"github.com/benbjohnson/clock"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/database"
	"whiteboard-backend/internal/handler"
	"whiteboard-backend/internal/hub"
	"whiteboard-backend/internal/presence"
	"whiteboard-backend/internal/repository"
	"whiteboard-backend/internal/server"
	"whiteboard-backend/internal/service"
)

func main() {
	cfg := config.Load()

	db, err := database.Connect()
	if err != nil {
		log.Fatalf("[Main] Database connection failed: %v", err)
	}
	defer database.Close(db)

	redisClient, err := cache.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("[Main] Redis connection failed: %v", err)
	}
	defer redisClient.Close()

	users := repository.NewUserRepository(db)
	boards := repository.NewWhiteboardRepository(db)
	polls := repository.NewPollRepository(db)

	jwtManager := auth.NewJWTManager(cfg.Auth)
	presenceManager := presence.NewManager(redisClient, cfg.Room.PresenceTTL)

	clk := clock.New()
	debouncer := hub.NewSnapshotDebouncer(boards, cfg.Room.SnapshotDebounce, cfg.Room.SnapshotWriteTimeout)
	cursors := hub.NewCursorTracker(clk, cfg.Room.CursorTTL, cfg.Room.CursorSweepInterval)

	roomHub := hub.NewHub(boards, debouncer, cursors, cfg.Room)
	roomHub.Start()
	defer roomHub.Stop()

	whiteboardService := service.NewWhiteboardService(boards, users)
	pollService := service.NewPollService(polls, boards, clk, roomHub)

	srv := server.New(cfg, server.Handlers{
		Auth:       handler.NewAuthHandler(users, jwtManager, cfg.Auth),
		Whiteboard: handler.NewWhiteboardHandler(whiteboardService),
		Poll:       handler.NewPollHandler(pollService),
		WS:         handler.NewWSHandler(roomHub, jwtManager, users, presenceManager),
		JWT:        jwtManager,
		Redis:      redisClient,
	})

	if err := srv.Run(); err != nil {
		log.Fatalf("[Main] Server error: %v", err)
	}
}
