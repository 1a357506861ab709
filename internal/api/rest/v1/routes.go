package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes sets up all the API routes for version 1.
func SetupRoutes(r *gin.Engine, registry RegistryInspector, gatherer prometheus.Gatherer) {
	v1 := r.Group(BasePath) // lookup in version file

	// Diagnostics Routes
	diagnosticsHandler := NewDiagnosticsHandler(registry)
	v1.GET("/healthz", diagnosticsHandler.Health)
	v1.GET("/stats", diagnosticsHandler.Stats)
	v1.GET("/clients/:client/operations", diagnosticsHandler.ListClientOperations)
	v1.DELETE("/clients/:client/operations", diagnosticsHandler.ReclaimClient)

	// Metrics Routes
	v1.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
}
