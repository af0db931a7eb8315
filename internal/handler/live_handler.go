package handler

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/internal/spatial"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

// keepAliveInterval spaces SSE comments that hold idle proxies open
const keepAliveInterval = 15 * time.Second

// LiveHandler serves per-session live views
type LiveHandler struct {
	service *service.LiveService
}

// NewLiveHandler creates a new live handler
func NewLiveHandler(service *service.LiveService) *LiveHandler {
	return &LiveHandler{service: service}
}

// GetLive returns the current live view
// GET /api/v1/sessions/:id/live
func (h *LiveHandler) GetLive(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, view)
}

// GetLiveGeoJSON returns the live view as a GeoJSON feature collection
// GET /api/v1/sessions/:id/live.geojson
func (h *LiveHandler) GetLiveGeoJSON(c *gin.Context) {
	view, err := h.service.View(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, spatial.LiveGeoJSON(*view))
}

// Stream pushes a "view" event with the full live view on every change
// GET /api/v1/sessions/:id/live/stream
func (h *LiveHandler) Stream(c *gin.Context) {
	views, err := h.service.Watch(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case view, ok := <-views:
			if !ok {
				return false
			}
			c.SSEvent("view", view)
		case <-ticker.C:
			io.WriteString(w, ": keep-alive\n\n")
		}
		return true
	})
}
