package objects

// ErrorResponse is the JSON error envelope every endpoint returns on
// failure.
type ErrorResponse struct {
	Error Error `json:"error"`
}

// Error pairs the HTTP status text with the human-readable message. The
// message may carry a structured policy denial reason.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewErrorResponse builds the envelope from a status text and an error.
func NewErrorResponse(statusText string, err error) ErrorResponse {
	return ErrorResponse{Error: Error{Type: statusText, Message: err.Error()}}
}
