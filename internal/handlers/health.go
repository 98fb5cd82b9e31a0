package handlers

import (
	"net/http"

	"sakura-backend/internal/models"
)

type readinessChecker interface {
	Ready() bool
	Provider() string
}

type HealthHandler struct {
	version   string
	authMode  string
	apiKeySet bool
	ai        readinessChecker
}

// NewHealthHandler reports apiKeySet when any credential was configured,
// even if it could not be turned into a working client.
func NewHealthHandler(version, authMode string, apiKeySet bool, ai readinessChecker) *HealthHandler {
	return &HealthHandler{
		version:   version,
		authMode:  authMode,
		apiKeySet: apiKeySet,
		ai:        ai,
	}
}

func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Version:   h.version,
		Provider:  h.ai.Provider(),
		AuthMode:  h.authMode,
		AIReady:   h.ai.Ready(),
		APIKeySet: h.apiKeySet,
	})
}
