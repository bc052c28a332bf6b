package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hublabs.dev/tagger/core/config"
)

// QueueStats mirrors scheduler.Scheduler's introspection surface.
type QueueStats interface {
	Depth() int
	Capacity() int
}

type HealthHandler struct {
	cfg   config.Config
	queue QueueStats
}

func NewHealthHandler(cfg config.Config, queue QueueStats) *HealthHandler {
	return &HealthHandler{
		cfg:   cfg,
		queue: queue,
	}
}

// Health reports per-subsystem readiness. Missing credentials degrade the
// status instead of failing startup; the hub operator reads this endpoint
// to find out why deliveries are being rejected or why operations end in
// error.
func (h *HealthHandler) Health(c *gin.Context) {
	secretConfigured := h.cfg.Webhook.Enabled()
	hubConfigured := h.cfg.Hub.Enabled()
	agentConfigured := h.cfg.AgentLLM.Enabled()

	status := "ok"
	if !secretConfigured || !hubConfigured || !agentConfigured {
		status = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"checks": gin.H{
			"webhook_secret_configured": secretConfigured,
			"hub_token_configured":      hubConfigured,
			"agent_llm_configured":      agentConfigured,
			"audit_stream_enabled":      h.cfg.Audit.Enabled(),
			"database_enabled":          h.cfg.DB.Enabled(),
		},
		"queue": gin.H{
			"depth":    h.queue.Depth(),
			"capacity": h.queue.Capacity(),
		},
	})
}
