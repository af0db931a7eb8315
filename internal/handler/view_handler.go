package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jengzang/emf-backend-go/internal/fusion"
	"github.com/jengzang/emf-backend-go/internal/models"
	"github.com/jengzang/emf-backend-go/internal/service"
	"github.com/jengzang/emf-backend-go/internal/spatial"
	"github.com/jengzang/emf-backend-go/pkg/response"
)

// ViewHandler serves the cross-session heat and zone views
type ViewHandler struct {
	service *service.AggregateService
}

// NewViewHandler creates a new view handler
func NewViewHandler(service *service.AggregateService) *ViewHandler {
	return &ViewHandler{service: service}
}

// GetHeat returns the weighted point cloud
// GET /api/v1/views/heat?userId=&status=
func (h *ViewHandler) GetHeat(c *gin.Context) {
	var filter models.AggregateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return
	}

	view, err := h.service.Heat(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, view)
}

// GetZones returns the zone grid
// GET /api/v1/views/zones?userId=&status=&cellSize=
func (h *ViewHandler) GetZones(c *gin.Context) {
	filter, cellSize, ok := zoneQuery(c)
	if !ok {
		return
	}

	view, err := h.service.Zones(c.Request.Context(), filter, cellSize)
	if err != nil {
		respondError(c, err)
		return
	}
	response.Success(c, view)
}

// GetZonesGeoJSON returns the zone grid as rectangle polygons
// GET /api/v1/views/zones.geojson
func (h *ViewHandler) GetZonesGeoJSON(c *gin.Context) {
	filter, cellSize, ok := zoneQuery(c)
	if !ok {
		return
	}

	fc, err := h.service.ZonesGeoJSON(c.Request.Context(), filter, cellSize)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fc)
}

func zoneQuery(c *gin.Context) (models.AggregateFilter, float64, bool) {
	var filter models.AggregateFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.BadRequest(c, "Invalid query parameters")
		return filter, 0, false
	}
	cellSize, ok := queryFloat(c, "cellSize")
	if !ok {
		return filter, 0, false
	}
	if cellSize > spatial.MaxCellSize {
		response.BadRequest(c, "Invalid cellSize")
		return filter, 0, false
	}
	return filter, cellSize, true
}

// GetLegend returns the legend entries and the thresholds behind both band sets
// GET /api/v1/legend
func (h *ViewHandler) GetLegend(c *gin.Context) {
	response.Success(c, gin.H{
		"legend": fusion.Legend(),
		"zone_thresholds": gin.H{
			"medium": fusion.ZoneMediumThreshold,
			"high":   fusion.ZoneHighThreshold,
		},
		"legend_thresholds": gin.H{
			"medium": fusion.LegendMediumThreshold,
			"high":   fusion.LegendHighThreshold,
		},
		"grid_bands": gin.H{
			"low_max":      spatial.ZoneLowMax,
			"medium_max":   spatial.ZoneMediumMax,
			"elevated_max": spatial.ZoneElevatedMax,
		},
	})
}
