package models

// ErrorResponse is the uniform error body returned by the HTTP API.
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
