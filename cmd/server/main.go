package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"hublabs.dev/tagger/common/id"
	"hublabs.dev/tagger/common/llm"
	"hublabs.dev/tagger/common/logger"
	"hublabs.dev/tagger/common/otel"
	"hublabs.dev/tagger/core/config"
	"hublabs.dev/tagger/core/db"
	"hublabs.dev/tagger/internal/agent"
	"hublabs.dev/tagger/internal/audit"
	"hublabs.dev/tagger/internal/http/handler"
	"hublabs.dev/tagger/internal/http/middleware"
	httprouter "hublabs.dev/tagger/internal/http/router"
	"hublabs.dev/tagger/internal/hub"
	"hublabs.dev/tagger/internal/ledger"
	"hublabs.dev/tagger/internal/scheduler"
	"hublabs.dev/tagger/internal/store"
	"hublabs.dev/tagger/internal/worker"
)

func main() {
	ctx := context.Background()

	cfg := config.Load()

	// OTel must init before logger (logger uses OTel provider in production)
	telemetry, err := otel.Setup(ctx, cfg.OTel)
	if err != nil {
		os.Stderr.WriteString("failed to initialize otel: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Setup(cfg)

	slog.InfoContext(ctx, "tagger starting", "env", cfg.Env, "service", cfg.OTel.ServiceName)

	if err := id.Init(1); err != nil {
		slog.ErrorContext(ctx, "failed to initialize snowflake id generator", "error", err)
		os.Exit(1)
	}

	if !cfg.Webhook.Enabled() {
		slog.WarnContext(ctx, "webhook secret not configured, all deliveries will be rejected")
	}

	opLedger := ledger.New(cfg.Ledger.MaxRecords)

	// The agent adapter needs both the hub token and an LLM key. With either
	// missing, accepted events terminate in error status and /health reports
	// the gap - the service still starts.
	var tagAgent worker.TagAgent
	if cfg.Hub.Enabled() && cfg.AgentLLM.Enabled() {
		agentClient, err := llm.NewAgentClient(llm.Config{
			APIKey:  cfg.AgentLLM.APIKey,
			BaseURL: cfg.AgentLLM.BaseURL,
			Model:   cfg.AgentLLM.Model,
		})
		if err != nil {
			slog.ErrorContext(ctx, "failed to create agent llm client", "error", err)
			os.Exit(1)
		}

		hubClient := hub.NewClient(cfg.Hub)
		tagAgent = agent.NewAdapter(agentClient, agent.NewTagTools(hubClient), cfg.AgentLLM)
		slog.InfoContext(ctx, "agent adapter ready", "model", agentClient.Model())
	} else {
		slog.WarnContext(ctx, "agent adapter not configured",
			"hub_configured", cfg.Hub.Enabled(),
			"llm_configured", cfg.AgentLLM.Enabled())
	}

	var sinks []worker.Sink

	if cfg.Audit.Enabled() {
		redisOpts, err := redis.ParseURL(cfg.Audit.RedisURL)
		if err != nil {
			slog.ErrorContext(ctx, "failed to parse redis url", "error", err)
			os.Exit(1)
		}
		redisClient := redis.NewClient(redisOpts)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			slog.ErrorContext(ctx, "failed to connect to redis", "error", err)
			os.Exit(1)
		}
		auditStream := audit.NewStream(redisClient, cfg.Audit.Stream)
		defer auditStream.Close()
		sinks = append(sinks, auditStream)
		slog.InfoContext(ctx, "audit stream enabled", "stream", cfg.Audit.Stream)
	}

	var history handler.OperationHistory
	if cfg.DB.Enabled() {
		database, err := db.New(ctx, cfg.DB)
		if err != nil {
			slog.ErrorContext(ctx, "failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer database.Close()

		opStore := store.NewOperationStore(database.Pool())
		if err := opStore.EnsureSchema(ctx); err != nil {
			slog.ErrorContext(ctx, "failed to ensure schema", "error", err)
			os.Exit(1)
		}
		sinks = append(sinks, opStore)
		history = opStore
		slog.InfoContext(ctx, "operation store enabled")
	}

	processor := worker.NewProcessor(opLedger, tagAgent, sinks...)

	pool := scheduler.New(processor, scheduler.Config{
		Workers:    cfg.Pool.Workers,
		QueueDepth: cfg.Pool.QueueDepth,
	})

	poolCtx, poolCancel := context.WithCancel(ctx)
	defer poolCancel()
	pool.Start(poolCtx)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := setupRouter(cfg, opLedger, history, pool)
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		slog.InfoContext(ctx, "http server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.ErrorContext(ctx, "http server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.InfoContext(ctx, "shutting down...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.ErrorContext(shutdownCtx, "http server shutdown error", "error", err)
	}

	if err := pool.Stop(shutdownCtx); err != nil {
		slog.WarnContext(shutdownCtx, "scheduler drain incomplete, abandoning in-flight work", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			slog.ErrorContext(shutdownCtx, "otel shutdown error", "error", err)
		}
	}

	slog.InfoContext(shutdownCtx, "shutdown complete")
}

func setupRouter(cfg config.Config, opLedger *ledger.Ledger, history handler.OperationHistory, pool *scheduler.Scheduler) *gin.Engine {
	router := gin.New()

	// Order matters: OTel creates span -> Recovery catches panics -> Logger logs with trace context
	if cfg.OTel.Enabled() {
		router.Use(otelgin.Middleware(cfg.OTel.ServiceName))
	}
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	httprouter.SetupRoutes(router, httprouter.Deps{
		Config:    cfg,
		Ledger:    opLedger,
		History:   history,
		Scheduler: pool,
	})

	return router
}
