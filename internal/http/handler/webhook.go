package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"hublabs.dev/tagger/internal/domain"
	"hublabs.dev/tagger/internal/scheduler"
)

// Enqueuer mirrors scheduler.Scheduler - defined here for handler tests.
type Enqueuer interface {
	Enqueue(event domain.InboundEvent) error
}

type WebhookHandler struct {
	scheduler Enqueuer
}

func NewWebhookHandler(s Enqueuer) *WebhookHandler {
	return &WebhookHandler{scheduler: s}
}

// HandleEvent classifies one hub delivery and, when accepted, hands it to
// the background pool. The response is sent as soon as the hand-off is
// confirmed; the eventual tag-processing outcome is visible only through
// /operations.
func (h *WebhookHandler) HandleEvent(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	var event domain.InboundEvent
	if err := json.Unmarshal(body, &event); err != nil {
		slog.WarnContext(ctx, "malformed webhook payload", "error", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
		return
	}

	if !event.Accepted() {
		slog.InfoContext(ctx, "webhook event ignored",
			"action", event.Action,
			"scope", event.Scope)
		c.JSON(http.StatusOK, gin.H{
			"status": "ignored",
			"reason": fmt.Sprintf("action=%q scope=%q is not a new discussion comment", event.Action, event.Scope),
		})
		return
	}

	if err := h.scheduler.Enqueue(event); err != nil {
		if errors.Is(err, scheduler.ErrQueueFull) {
			slog.WarnContext(ctx, "webhook rejected, queue full",
				"repo", event.Repo.Name)
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "queue full, retry later"})
			return
		}
		slog.ErrorContext(ctx, "failed to enqueue event", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "service unavailable"})
		return
	}

	slog.InfoContext(ctx, "webhook event accepted",
		"repo", event.Repo.Name,
		"discussion_num", event.Discussion.Num,
		"author_id", event.Comment.Author.ID)

	c.JSON(http.StatusOK, gin.H{
		"status": "accepted",
		"repo":   event.Repo.Name,
	})
}
