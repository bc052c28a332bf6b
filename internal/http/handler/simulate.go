package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"hublabs.dev/tagger/internal/http/dto"
	"hublabs.dev/tagger/internal/scheduler"
)

type SimulateHandler struct {
	scheduler Enqueuer
}

func NewSimulateHandler(s Enqueuer) *SimulateHandler {
	return &SimulateHandler{scheduler: s}
}

// Simulate synthesizes an accepted discussion-comment event and drives it
// through the same pipeline as a real delivery.
func (h *SimulateHandler) Simulate(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SimulateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := req.Event()
	if err := h.scheduler.Enqueue(event); err != nil {
		if errors.Is(err, scheduler.ErrQueueFull) {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue full, retry later"})
			return
		}
		slog.ErrorContext(ctx, "failed to enqueue simulated event", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	slog.InfoContext(ctx, "simulated event accepted", "repo", event.Repo.Name)

	c.JSON(http.StatusOK, gin.H{
		"status":    "accepted",
		"simulated": true,
		"repo":      event.Repo.Name,
	})
}
