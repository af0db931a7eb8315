package handler

import (
	"errors"
	"log"
	"math"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"

	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

// respondError maps service errors onto HTTP statuses
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound),
		errors.Is(err, service.ErrTaskNotFound),
		errors.Is(err, service.ErrSnapshotNotFound):
		response.NotFound(c, err.Error())
	case errors.Is(err, service.ErrForbidden):
		response.Forbidden(c, err.Error())
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, service.ErrInvalidSkill):
		response.BadRequest(c, err.Error())
	default:
		log.Printf("[Handler] %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.Error(err)
		response.InternalError(c, "Internal server error")
	}
}

// readBody reads the request body up to limit bytes
func readBody(c *gin.Context, limit int64) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
	body, err := c.GetRawData()
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "Request body too large")
		} else {
			response.BadRequest(c, "Failed to read request body")
		}
		return nil, false
	}
	return body, true
}

// queryFloat parses an optional non-negative finite query parameter
func queryFloat(c *gin.Context, key string) (float64, bool) {
	raw := c.Query(key)
	if raw == "" {
		return 0, true
	}
	v, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		response.BadRequest(c, "Invalid "+key)
		return 0, false
	}
	return v, true
}
