package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/middleware"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

// AnalysisTaskHandler handles HTTP requests for analysis tasks
type AnalysisTaskHandler struct {
	service *service.AnalysisTaskService
}

// NewAnalysisTaskHandler creates a new analysis task handler
func NewAnalysisTaskHandler(service *service.AnalysisTaskService) *AnalysisTaskHandler {
	return &AnalysisTaskHandler{service: service}
}

// CreateTaskRequest represents the request body for creating an analysis task
type CreateTaskRequest struct {
	SkillName string                 `json:"skill_name" binding:"required"`
	Params    map[string]interface{} `json:"params"`
}

// CreateTask creates a new analysis task and starts it in the background
// POST /api/v1/analysis/tasks
func (h *AnalysisTaskHandler) CreateTask(c *gin.Context) {
	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.service.CreateTask(req.SkillName, req.Params, c.GetString(middleware.UserKey))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, response.Response{Code: 0, Message: "accepted", Data: task})
}

// GetTask retrieves a task by ID
// GET /api/v1/analysis/tasks/:id
func (h *AnalysisTaskHandler) GetTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	task, err := h.service.GetTask(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, task)
}

// ListTasks retrieves tasks newest first
// GET /api/v1/analysis/tasks
func (h *AnalysisTaskHandler) ListTasks(c *gin.Context) {
	var filter models.TaskFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	tasks, err := h.service.ListTasks(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response.Success(c, gin.H{
		"tasks":  tasks,
		"skills": h.service.Skills(),
	})
}

// CancelTask cancels a pending or running task
// DELETE /api/v1/analysis/tasks/:id
func (h *AnalysisTaskHandler) CancelTask(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.BadRequest(c, "Invalid task ID")
		return
	}

	if err := h.service.CancelTask(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, gin.H{"message": "Task cancelled"})
}

// GetLatestZones returns the most recent persisted zone snapshot
// GET /api/v1/analysis/zones/latest
func (h *AnalysisTaskHandler) GetLatestZones(c *gin.Context) {
	snap, err := h.service.LatestZones(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, snap)
}

// GetSkills lists the registered analysis skills
// GET /api/v1/analysis/skills
func (h *AnalysisTaskHandler) GetSkills(c *gin.Context) {
	response.Success(c, h.service.Skills())
}
