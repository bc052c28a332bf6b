package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type MetaHandler struct {
	serviceName string
	version     string
}

func NewMetaHandler(serviceName, version string) *MetaHandler {
	return &MetaHandler{
		serviceName: serviceName,
		version:     version,
	}
}

// Meta serves static service metadata at the root path.
func (h *MetaHandler) Meta(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": h.serviceName,
		"version": h.version,
		"endpoints": []string{
			"POST /webhook",
			"POST /simulate",
			"GET /operations",
			"GET /operations/history",
			"GET /operations/:id",
			"GET /health",
		},
	})
}
