package models

// APIResponse is the envelope every endpoint returns: {success: true, data}
// on accepted reads/writes, {success: false, error} otherwise.
type APIResponse struct {
	Success bool        `json:"success"`
	Code    int         `json:"code"`              // HTTP status code (200, 409, 422, etc.)
	Message string      `json:"message,omitempty"` // Human-readable message
	Data    interface{} `json:"data,omitempty"`    // Any response data (struct, list, map)
	Error   *APIError   `json:"error,omitempty"`   // Detailed error info (nil on success)
}

// APIError holds detailed error information
type APIError struct {
	Type    string `json:"type,omitempty"`    // e.g., "TransitionDenied", "GuardFailed"
	Details string `json:"details,omitempty"` // More context about the error
	Field   string `json:"field,omitempty"`   // For validation errors (which field failed)
}
