package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-dm/internal/auth"
	"github.com/vovakirdan/wirechat-dm/internal/config"
	"github.com/vovakirdan/wirechat-dm/internal/core"
	"github.com/vovakirdan/wirechat-dm/internal/store"
)

// Services groups the collaborators the HTTP layer dispatches to.
type Services struct {
	Auth          *auth.Service
	Messages      *core.MessageService
	Threads       *core.ThreadReader
	Conversations *core.ConversationService
	Notifications store.NotificationStore
}

// NewServer builds the HTTP server and its routes.
func NewServer(svc Services, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	accounts := NewAPIHandlers(svc.Auth, logger)
	router.POST("/register", accounts.Register)
	router.POST("/login", accounts.Login)

	authed := router.Group("/")
	authed.Use(AuthMiddleware(svc.Auth, logger))

	authed.POST("/delete-account", accounts.DeleteAccount)

	messages := NewMessageHandlers(svc.Messages, svc.Threads, logger)
	limiter := newRateLimiter(cfg.SendRateLimit)
	authed.POST("/send", RateLimitMiddleware(limiter, logger), messages.Send)
	authed.GET("/thread/:conversationId", messages.Thread)

	conversations := NewConversationHandlers(svc.Conversations, logger)
	authed.POST("/conversations", conversations.Create)
	authed.GET("/conversations", conversations.List)

	notifications := NewNotificationHandlers(svc.Notifications, logger)
	authed.GET("/notifications", notifications.List)
	authed.POST("/notifications/:id/read", notifications.MarkRead)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
