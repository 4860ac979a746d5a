package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/atlasnet/linetrack-api/internal/models"
	appErrors "github.com/atlasnet/linetrack-api/pkg/errors"
	"github.com/atlasnet/linetrack-api/pkg/response"
)

type faultStatsProvider interface {
	Stats(ctx context.Context) (*models.FaultStats, error)
}

type metricsSnapshotProvider interface {
	Snapshot() models.SystemMetrics
}

// MaintenanceHandler exposes the maintenance dashboard endpoints.
type MaintenanceHandler struct {
	stats   faultStatsProvider
	metrics metricsSnapshotProvider
	enabled bool
}

// NewMaintenanceHandler builds a new handler. Stats endpoints return 404 when disabled.
func NewMaintenanceHandler(stats faultStatsProvider, metrics metricsSnapshotProvider, enabled bool) *MaintenanceHandler {
	return &MaintenanceHandler{stats: stats, metrics: metrics, enabled: enabled}
}

// FaultStats godoc
// @Summary Aggregate fault ticket statistics
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/stats [get]
func (h *MaintenanceHandler) FaultStats(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "stats endpoint disabled"))
		return
	}
	stats, err := h.stats.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// SystemMetrics godoc
// @Summary Aggregated runtime metrics snapshot
// @Tags Maintenance
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /maintenance/metrics [get]
func (h *MaintenanceHandler) SystemMetrics(c *gin.Context) {
	if !h.enabled {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "stats endpoint disabled"))
		return
	}
	response.JSON(c, http.StatusOK, h.metrics.Snapshot(), nil)
}
