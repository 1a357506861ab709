package v1

import "github.com/Fusion-OS/android-system-security/internal/domain/operations"

// ErrorResponse represents an error response
type ErrorResponse struct {
	Message string `json:"message"`
}

// HealthResponse represents the health of the operation registry
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse represents the current occupancy of the operation registry
type StatsResponse struct {
	Operations int `json:"operations"`
	Pruneable  int `json:"pruneable"`
	Clients    int `json:"clients"`
}

// ClientOperationsResponse lists the live operation tokens of one client
type ClientOperationsResponse struct {
	Client     string   `json:"client"`
	Operations []string `json:"operations"`
}

// ReclaimResponse reports how many operations were reclaimed from a client
type ReclaimResponse struct {
	Client    string `json:"client"`
	Reclaimed int    `json:"reclaimed"`
}

func newStatsResponse(stats operations.Stats) StatsResponse {
	return StatsResponse{
		Operations: stats.Operations,
		Pruneable:  stats.Pruneable,
		Clients:    stats.Clients,
	}
}

func newClientOperationsResponse(client operations.ClientID, tokens []operations.Token) ClientOperationsResponse {
	response := ClientOperationsResponse{
		Client:     string(client),
		Operations: make([]string, 0, len(tokens)),
	}
	for _, token := range tokens {
		response.Operations = append(response.Operations, token.String())
	}
	return response
}
