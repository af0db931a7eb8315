package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/middleware"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

// SessionHandler handles HTTP requests for sessions
type SessionHandler struct {
	service *service.SessionService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(service *service.SessionService) *SessionHandler {
	return &SessionHandler{service: service}
}

// CreateSessionRequest represents the request body for starting a session
type CreateSessionRequest struct {
	Timestamp string `json:"timestamp"`
}

// ListSessions returns sessions newest first
// GET /api/v1/sessions
func (h *SessionHandler) ListSessions(c *gin.Context) {
	var filter models.SessionFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	sessions, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"sessions": sessions,
		"total":    total,
	})
}

// CreateSession starts a session owned by the caller
// POST /api/v1/sessions
func (h *SessionHandler) CreateSession(c *gin.Context) {
	var req CreateSessionRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, "Invalid request body")
			return
		}
	}

	session, err := h.service.Create(c.Request.Context(), c.GetString(middleware.UserKey), req.Timestamp)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Created(c, session)
}

// GetSession returns one session
// GET /api/v1/sessions/:id
func (h *SessionHandler) GetSession(c *gin.Context) {
	session, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// CompleteSession marks the caller's session as completed
// POST /api/v1/sessions/:id/complete
func (h *SessionHandler) CompleteSession(c *gin.Context) {
	session, err := h.service.Complete(c.Request.Context(), c.Param("id"), c.GetString(middleware.UserKey))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, session)
}

// GetSummary returns per-session statistics
// GET /api/v1/sessions/:id/summary
func (h *SessionHandler) GetSummary(c *gin.Context) {
	summary, err := h.service.Summary(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, summary)
}

// GetHeartRate returns the sorted heart rate series
// GET /api/v1/sessions/:id/heart-rate
func (h *SessionHandler) GetHeartRate(c *gin.Context) {
	series, err := h.service.HeartRate(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, series)
}
