package router

import (
	"github.com/gin-gonic/gin"

	"hublabs.dev/tagger/core/config"
	"hublabs.dev/tagger/internal/http/handler"
	"hublabs.dev/tagger/internal/http/middleware"
	"hublabs.dev/tagger/internal/ledger"
)

type Deps struct {
	Config    config.Config
	Ledger    *ledger.Ledger
	History   handler.OperationHistory // nil when no database is configured
	Scheduler interface {
		handler.Enqueuer
		handler.QueueStats
	}
}

func SetupRoutes(router *gin.Engine, deps Deps) {
	metaHandler := handler.NewMetaHandler(deps.Config.OTel.ServiceName, deps.Config.OTel.ServiceVersion)
	router.GET("/", metaHandler.Meta)

	healthHandler := handler.NewHealthHandler(deps.Config, deps.Scheduler)
	router.GET("/health", healthHandler.Health)

	webhookHandler := handler.NewWebhookHandler(deps.Scheduler)
	router.POST("/webhook",
		middleware.WebhookAuth(deps.Config.Webhook.Secret),
		webhookHandler.HandleEvent,
	)

	simulateHandler := handler.NewSimulateHandler(deps.Scheduler)
	router.POST("/simulate", simulateHandler.Simulate)

	opsHandler := handler.NewOperationsHandler(deps.Ledger, deps.History, deps.Config.Ledger.WindowSize)
	router.GET("/operations", opsHandler.List)
	router.GET("/operations/history", opsHandler.History)
	router.GET("/operations/:id", opsHandler.GetByID)
}
