package server

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"whiteboard-backend/internal/auth"
	"whiteboard-backend/internal/cache"
	"whiteboard-backend/internal/config"
	"whiteboard-backend/internal/handler"
)

// Server owns the Fiber app and route wiring
type Server struct {
	app *fiber.App
	cfg *config.Config
}

// Handlers groups everything the router needs
type Handlers struct {
	Auth       *handler.AuthHandler
	Whiteboard *handler.WhiteboardHandler
	Poll       *handler.PollHandler
	WS         *handler.WSHandler
	JWT        *auth.JWTManager
	Redis      *cache.RedisClient
}

// New builds the Fiber app with middleware and routes
func New(cfg *config.Config, h Handlers) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "whiteboard-backend",
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORS.AllowOrigins,
		AllowHeaders:     cfg.CORS.AllowHeaders,
		AllowCredentials: cfg.CORS.AllowOrigins != "*",
	}))

	s := &Server{app: app, cfg: cfg}
	s.routes(h)
	return s
}

func (s *Server) routes(h Handlers) {
	s.app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.Map{"status": "ok"}
		if h.Redis != nil {
			if err := h.Redis.Health(c.Context()); err != nil {
				status["redis"] = "down"
			} else {
				status["redis"] = "ok"
			}
		}
		return c.JSON(status)
	})

	api := s.app.Group("/api")

	// Credential endpoints carry a tighter rate limit than the rest.
	authLimiter := limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	})

	authGroup := api.Group("/auth")
	authGroup.Post("/register", authLimiter, h.Auth.Register)
	authGroup.Post("/login", authLimiter, h.Auth.Login)
	authGroup.Post("/refresh", authLimiter, h.Auth.RefreshToken)
	authGroup.Post("/logout", h.Auth.Logout)
	authGroup.Get("/me", auth.Middleware(h.JWT), h.Auth.GetMe)

	boards := api.Group("/whiteboards", auth.Middleware(h.JWT))
	boards.Post("/", h.Whiteboard.Create)
	boards.Get("/", h.Whiteboard.List)
	boards.Get("/:id", h.Whiteboard.Get)
	boards.Put("/:id", h.Whiteboard.Update)
	boards.Delete("/:id", h.Whiteboard.Delete)
	boards.Post("/:id/collaborators", h.Whiteboard.AssignRole)
	boards.Delete("/:id/collaborators/:userId", h.Whiteboard.RemoveCollaborator)
	boards.Post("/:id/presenter/start", h.Whiteboard.StartPresenter)
	boards.Post("/:id/presenter/end", h.Whiteboard.EndPresenter)
	boards.Put("/:id/presenter/view", h.Whiteboard.UpdatePresenterView)

	polls := api.Group("/polls", auth.Middleware(h.JWT))
	polls.Post("/create", h.Poll.Create)
	polls.Post("/vote", h.Poll.CastVote)
	polls.Get("/:id/results", h.Poll.Results)
	polls.Get("/whiteboard/:whiteboardId/active", h.Poll.ListActive)
	polls.Patch("/:id/close", h.Poll.Close)

	s.app.Use("/ws", h.WS.Upgrade)
	s.app.Get("/ws", websocket.New(h.WS.Handle, websocket.Config{
		ReadBufferSize:  s.cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: s.cfg.WebSocket.WriteBufferSize,
	}))
}

// Run serves until SIGINT/SIGTERM, then shuts down gracefully
func (s *Server) Run() error {
	errCh := make(chan error, 1)
	go func() {
		log.Printf("[Server] Listening on %s", s.cfg.Server.Port)
		errCh <- s.app.Listen(s.cfg.Server.Port)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Printf("[Server] Received %s, shutting down", sig)
		return s.app.ShutdownWithTimeout(30 * time.Second)
	}
}
