package bootstrap

import (
	"github.com/zekaiblog/mywebsite/internal/config"
	"github.com/zekaiblog/mywebsite/internal/controller"
	"github.com/zekaiblog/mywebsite/internal/handler"
	"github.com/zekaiblog/mywebsite/internal/pkg/logger"
	"github.com/zekaiblog/mywebsite/internal/repository/memory"
	"github.com/zekaiblog/mywebsite/internal/repository/unitofwork"
	"github.com/zekaiblog/mywebsite/internal/service"
	"github.com/zekaiblog/mywebsite/internal/websocket"
	llmopenai "github.com/zekaiblog/mywebsite/pkg/llm/openai"

	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController   controller.IAuthController
	ChatController   controller.IChatController
	UploadController controller.IUploadController

	// Realtime
	ChatWSHandler *handler.ChatWSHandler
	WebSocketHub  *websocket.Hub

	Logger logger.ILogger
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	ownershipCache := memory.NewOwnershipCache()

	// 2. WebSocket hub
	hub := websocket.NewHub(sysLogger)
	go hub.Run()

	// 3. Services
	roomSync := service.NewRoomSync()
	provider := llmopenai.NewProvider(cfg.Ai.APIKey, cfg.Ai.BaseURL, cfg.Ai.Model)

	authService := service.NewAuthService(uowFactory, cfg.Auth.JWTSecret)
	chatService := service.NewChatService(uowFactory, ownershipCache)
	botOrchestrator := service.NewBotOrchestrator(uowFactory, provider, hub, roomSync, cfg.Ai, cfg.App.AssetRoot, sysLogger)
	messagePipeline := service.NewMessagePipeline(uowFactory, chatService, hub, roomSync, botOrchestrator, sysLogger)
	uploadService := service.NewUploadService(cfg.App.UploadDir)

	// 4. Handlers & controllers
	wsHandler := handler.NewChatWSHandler(hub, chatService, messagePipeline, cfg.Auth.JWTSecret, sysLogger)

	return &Container{
		AuthController:   controller.NewAuthController(authService),
		ChatController:   controller.NewChatController(chatService),
		UploadController: controller.NewUploadController(uploadService),
		ChatWSHandler:    wsHandler,
		WebSocketHub:     hub,
		Logger:           sysLogger,
	}
}
