package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	v1 "github.com/Fusion-OS/android-system-security/internal/api/rest/v1"
	"github.com/Fusion-OS/android-system-security/internal/pkg/config"

	"github.com/gin-gonic/gin"
)

// diagnosticsServer serves the registry diagnostics API next to a simulation
type diagnosticsServer struct {
	srv    *http.Server
	errors chan error
}

func newDiagnosticsRouter(s *stack) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	v1.SetupRoutes(r, s.registry, s.metrics)
	return r
}

func startDiagnostics(settings *config.DiagnosticsSettings, s *stack) *diagnosticsServer {
	d := &diagnosticsServer{
		srv: &http.Server{
			Addr:              ":" + settings.Port,
			Handler:           newDiagnosticsRouter(s),
			ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attack
		},
		errors: make(chan error, 1),
	}

	go func() {
		s.logger.Info("Starting diagnostics server on port ", settings.Port)
		if err := d.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			d.errors <- fmt.Errorf("diagnostics server failed: %w", err)
		}
	}()

	return d
}

func (d *diagnosticsServer) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := d.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("diagnostics server forced to shutdown: %w", err)
	}
	return nil
}
