package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/config"
	"github.com/jengzang/emf-backend-go/internal/handler"
	"github.com/jengzang/emf-backend-go/internal/middleware"
	"github.com/jengzang/emf-backend-go/internal/service"
)

// Services 路由依赖的服务
type Services struct {
	Sessions *service.SessionService
	Ingest   *service.IngestService
	Live     *service.LiveService
	Views    *service.AggregateService
	Tasks    *service.AnalysisTaskService
}

// SetupRouter 设置路由
func SetupRouter(cfg *config.Config, svc Services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger())

	// CORS 中间件
	r.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	sessionHandler := handler.NewSessionHandler(svc.Sessions)
	ingestHandler := handler.NewIngestHandler(svc.Ingest)
	liveHandler := handler.NewLiveHandler(svc.Live)
	viewHandler := handler.NewViewHandler(svc.Views)
	taskHandler := handler.NewAnalysisTaskHandler(svc.Tasks)

	// 写接口：鉴权 + 限流
	auth := middleware.Auth(cfg.JWTSecret)
	limit := middleware.RateLimit(cfg.RateLimit, time.Minute)

	api := r.Group("/api/v1")
	{
		// 健康检查
		api.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{
				"status":  "ok",
				"message": "EMF Backend API is running",
			})
		})

		// 会话
		sessions := api.Group("/sessions")
		{
			sessions.GET("", sessionHandler.ListSessions)
			sessions.POST("", auth, limit, sessionHandler.CreateSession)
			sessions.GET("/:id", sessionHandler.GetSession)
			sessions.POST("/:id/complete", auth, limit, sessionHandler.CompleteSession)
			sessions.GET("/:id/summary", sessionHandler.GetSummary)
			sessions.GET("/:id/heart-rate", sessionHandler.GetHeartRate)

			// 采样上传
			sessions.POST("/:id/locations", auth, limit, ingestHandler.Append(service.KindLocations))
			sessions.POST("/:id/magnetometer", auth, limit, ingestHandler.Append(service.KindMagnetometer))
			sessions.POST("/:id/weather", auth, limit, ingestHandler.Append(service.KindWeather))
			sessions.POST("/:id/heart-rate", auth, limit, ingestHandler.Append(service.KindHeartRate))

			// 实时视图
			sessions.GET("/:id/live", liveHandler.GetLive)
			sessions.GET("/:id/live.geojson", liveHandler.GetLiveGeoJSON)
			sessions.GET("/:id/live/stream", liveHandler.Stream)
		}

		// 跨会话视图
		views := api.Group("/views")
		{
			views.GET("/heat", viewHandler.GetHeat)
			views.GET("/zones", viewHandler.GetZones)
			views.GET("/zones.geojson", viewHandler.GetZonesGeoJSON)
		}
		api.GET("/legend", viewHandler.GetLegend)

		api.POST("/import", auth, limit, ingestHandler.Import)

		// 分析任务
		analysis := api.Group("/analysis")
		{
			analysis.GET("/skills", taskHandler.GetSkills)
			analysis.POST("/tasks", auth, limit, taskHandler.CreateTask)
			analysis.GET("/tasks", taskHandler.ListTasks)
			analysis.GET("/tasks/:id", taskHandler.GetTask)
			analysis.DELETE("/tasks/:id", auth, taskHandler.CancelTask)
			analysis.GET("/zones/latest", taskHandler.GetLatestZones)
		}
	}

	return r
}
