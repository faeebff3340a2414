package petsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// SystemAPI serves liveness and metrics endpoints.
type SystemAPI struct {
	metrics http.Handler
}

// NewSystemAPI exposes the given Prometheus handler on /metrics; nil leaves it unimplemented.
func NewSystemAPI(metrics http.Handler) SystemAPI {
	return SystemAPI{metrics: metrics}
}

// Get /healthz
func (api *SystemAPI) Healthz(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (api *SystemAPI) metricsHandler() gin.HandlerFunc {
	if api.metrics == nil {
		return nil
	}
	return gin.WrapH(api.metrics)
}
