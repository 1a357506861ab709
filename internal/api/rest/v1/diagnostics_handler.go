package v1

import (
	"fmt"
	"net/http"

	"github.com/Fusion-OS/android-system-security/internal/domain/operations"

	"github.com/gin-gonic/gin"
)

// RegistryInspector is the read and reclaim surface of the operation registry the handler needs
type RegistryInspector interface {
	Stats() operations.Stats
	GetOperationsForClient(client operations.ClientID) []operations.Token
	ReclaimClient(client operations.ClientID) int
	Verify() error
}

// DiagnosticsHandler defines the interface for the operation registry diagnostics endpoints
type DiagnosticsHandler interface {
	Health(ctx *gin.Context)
	Stats(ctx *gin.Context)
	ListClientOperations(ctx *gin.Context)
	ReclaimClient(ctx *gin.Context)
}

type diagnosticsHandler struct {
	registry RegistryInspector
}

// NewDiagnosticsHandler creates a new DiagnosticsHandler
func NewDiagnosticsHandler(registry RegistryInspector) DiagnosticsHandler {
	return &diagnosticsHandler{
		registry: registry,
	}
}

// Health handles the GET request that checks the registry invariants
// @Summary Check the operation registry
// @Tags Diagnostics
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} ErrorResponse
// @Router /healthz [get]
func (handler *diagnosticsHandler) Health(ctx *gin.Context) {
	if err := handler.registry.Verify(); err != nil {
		var errorResponse ErrorResponse
		errorResponse.Message = fmt.Sprintf("registry inconsistent: %v", err.Error())
		ctx.JSON(http.StatusServiceUnavailable, errorResponse)
		return
	}

	ctx.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Stats handles the GET request for registry occupancy
// @Summary Get operation registry statistics
// @Tags Diagnostics
// @Produce json
// @Success 200 {object} StatsResponse
// @Router /stats [get]
func (handler *diagnosticsHandler) Stats(ctx *gin.Context) {
	ctx.JSON(http.StatusOK, newStatsResponse(handler.registry.Stats()))
}

// ListClientOperations handles the GET request for the operations of one client
// @Summary List the live operations of a client
// @Tags Diagnostics
// @Produce json
// @Param client path string true "Client ID"
// @Success 200 {object} ClientOperationsResponse
// @Failure 400 {object} ErrorResponse
// @Router /clients/{client}/operations [get]
func (handler *diagnosticsHandler) ListClientOperations(ctx *gin.Context) {
	client, ok := clientParam(ctx)
	if !ok {
		return
	}

	tokens := handler.registry.GetOperationsForClient(client)
	ctx.JSON(http.StatusOK, newClientOperationsResponse(client, tokens))
}

// ReclaimClient handles the DELETE request that drops every operation of a client
// @Summary Reclaim the operations of a client
// @Tags Diagnostics
// @Produce json
// @Param client path string true "Client ID"
// @Success 200 {object} ReclaimResponse
// @Failure 400 {object} ErrorResponse
// @Router /clients/{client}/operations [delete]
func (handler *diagnosticsHandler) ReclaimClient(ctx *gin.Context) {
	client, ok := clientParam(ctx)
	if !ok {
		return
	}

	reclaimed := handler.registry.ReclaimClient(client)
	ctx.JSON(http.StatusOK, ReclaimResponse{Client: string(client), Reclaimed: reclaimed})
}

func clientParam(ctx *gin.Context) (operations.ClientID, bool) {
	client := ctx.Param("client")
	if client == "" {
		var errorResponse ErrorResponse
		errorResponse.Message = "client is required"
		ctx.JSON(http.StatusBadRequest, errorResponse)
		return "", false
	}
	return operations.ClientID(client), true
}
