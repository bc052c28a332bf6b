package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"hublabs.dev/tagger/internal/domain"
	"hublabs.dev/tagger/internal/http/dto"
	"hublabs.dev/tagger/internal/ledger"
)

// OperationHistory is the durable record view behind /operations/history.
// The ledger window evicts under load and resets on restart; the history
// store does neither. Nil when no database is configured.
type OperationHistory interface {
	ListRecent(ctx context.Context, limit int32) ([]domain.OperationRecord, error)
}

type OperationsHandler struct {
	ledger  *ledger.Ledger
	history OperationHistory
	window  int
}

func NewOperationsHandler(l *ledger.Ledger, history OperationHistory, window int) *OperationsHandler {
	if window <= 0 {
		window = 50
	}
	return &OperationsHandler{
		ledger:  l,
		history: history,
		window:  window,
	}
}

// List returns the most recent window of operation records. Snapshots are
// copies, so listing never blocks or races the workers.
func (h *OperationsHandler) List(c *gin.Context) {
	ops := h.ledger.Snapshot(h.window)

	c.JSON(http.StatusOK, dto.OperationsResponse{
		Count:      h.ledger.Len(),
		Window:     len(ops),
		Operations: ops,
	})
}

// History lists recent operation records from the durable store.
func (h *OperationsHandler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "durable history not configured"})
		return
	}

	ops, err := h.history.ListRecent(c.Request.Context(), int32(h.window))
	if err != nil {
		slog.ErrorContext(c.Request.Context(), "history query failed", "error", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "history unavailable"})
		return
	}

	c.JSON(http.StatusOK, dto.OperationsResponse{
		Count:      len(ops),
		Window:     len(ops),
		Operations: ops,
	})
}

// GetByID returns a single operation record from the ledger window.
func (h *OperationsHandler) GetByID(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid operation id"})
		return
	}

	rec, ok := h.ledger.Get(id)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "operation not found"})
		return
	}

	c.JSON(http.StatusOK, rec)
}
