package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/middleware"
	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

const (
	maxAppendBody = 4 << 20
	maxImportBody = 64 << 20
)

// IngestHandler handles sample ingestion and tree imports
type IngestHandler struct {
	service *service.IngestService
}

// NewIngestHandler creates a new ingest handler
func NewIngestHandler(service *service.IngestService) *IngestHandler {
	return &IngestHandler{service: service}
}

// Append returns a handler appending one sample kind to a session.
// The body is a JSON array, a keyed object or a single record.
// POST /api/v1/sessions/:id/{locations,magnetometer,weather,heart-rate}
func (h *IngestHandler) Append(kind string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, ok := readBody(c, maxAppendBody)
		if !ok {
			return
		}

		n, err := h.service.Append(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserKey), kind, body)
		if err != nil {
			respondError(c, err)
			return
		}

		response.Success(c, gin.H{"stored": n})
	}
}

// Import stores a snapshot of the whole user tree
// POST /api/v1/import
func (h *IngestHandler) Import(c *gin.Context) {
	body, ok := readBody(c, maxImportBody)
	if !ok {
		return
	}

	result, err := h.service.Import(c.Request.Context(), body)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, result)
}
