package models

// ErrorResponse is the standard JSON error body. The user-facing messages
// are German, matching the frontend copy.
type ErrorResponse struct {
	Error string `json:"error"`
}
