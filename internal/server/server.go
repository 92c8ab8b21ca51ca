package server

import (
	"log"

	"github.com/zekaiblog/mywebsite/internal/bootstrap"
	"github.com/zekaiblog/mywebsite/internal/config"
	"github.com/zekaiblog/mywebsite/internal/pkg/serverutils"

	"github.com/gofiber/contrib/otelfiber"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

type Server struct {
	app       *fiber.App
	cfg       *config.Config
	container *bootstrap.Container
}

func New(cfg *config.Config, container *bootstrap.Container) *Server {
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10MB
	})

	// Middleware
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.CorsAllowedOrigins,
		AllowCredentials: true,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, PATCH, DELETE, OPTIONS",
	}))

	// OpenTelemetry tracing middleware (traces all HTTP requests)
	app.Use(otelfiber.Middleware())

	app.Use(serverutils.ErrorHandlerMiddleware())

	// Static
	app.Static("/uploads", cfg.App.UploadDir)

	registerRoutes(app, cfg, container)

	return &Server{
		app:       app,
		cfg:       cfg,
		container: container,
	}
}

func (s *Server) GetApp() *fiber.App {
	return s.app
}

func (s *Server) Run() error {
	log.Printf("Server is running on http://localhost:%s", s.cfg.App.Port)
	return s.app.Listen(":" + s.cfg.App.Port)
}

func registerRoutes(app *fiber.App, cfg *config.Config, c *bootstrap.Container) {
	authRequired := serverutils.JwtMiddleware(cfg.Auth.JWTSecret)

	api := app.Group("/api")
	c.AuthController.RegisterRoutes(api, authRequired)
	c.ChatController.RegisterRoutes(api, authRequired)
	c.UploadController.RegisterRoutes(api, authRequired)

	// Realtime channel; the handshake carries its own credential.
	app.Get("/ws", c.ChatWSHandler.ServeWs)
}
