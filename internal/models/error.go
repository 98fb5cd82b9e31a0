package models

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Version   string `json:"version"`
	Provider  string `json:"provider"`
	AuthMode  string `json:"auth_mode"`
	AIReady   bool   `json:"ai_ready"`
	APIKeySet bool   `json:"api_key_set"`
}
