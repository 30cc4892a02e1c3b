package api

// ErrorResponse is the HTTP response for generic failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ValidationErrorResponse is the HTTP response for rejected input.
type ValidationErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

// HealthResponse is the HTTP response for health check.
type HealthResponse struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}
