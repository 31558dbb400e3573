package common

// SuccessResponse is the envelope of every successful response
type SuccessResponse struct {
	Code    interface{} `json:"code,omitempty"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorResponse is the envelope of every error response
type ErrorResponse struct {
	Code    interface{}       `json:"code,omitempty"`
	Message string            `json:"message,omitempty"`
	Info    string            `json:"info,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// HealthResponse represents the health check payload
type HealthResponse struct {
	Status      string                 `json:"status"`
	Environment string                 `json:"environment"`
	Provider    string                 `json:"provider"`
	Sessions    int                    `json:"sessions"`
	Storage     map[string]interface{} `json:"storage,omitempty"`
}
