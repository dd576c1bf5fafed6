package httputil

import (
	"encoding/json"
	"log"
	"net/http"
)

// Stable error codes returned in the error envelope.
const (
	CodeUserIDEmpty         = "USER_ID_EMPTY"
	CodeUserIDInvalidFormat = "USER_ID_INVALID_FORMAT"
	CodeContentEmpty        = "TWEET_CONTENT_EMPTY"
	CodeContentTooLong      = "TWEET_CONTENT_TOO_LONG"
	CodeSelfFollow          = "SELF_FOLLOW"
	CodeAlreadyFollowing    = "ALREADY_FOLLOWING"
	CodeNotFollowing        = "NOT_FOLLOWING"
	CodeInvalidCursor       = "INVALID_CURSOR"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInternalError       = "INTERNAL_ERROR"
)

// ErrorResponse is the uniform error envelope.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	RequestID string `json:"requestId,omitempty"`
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("[HTTP] encode response FAILED: %v", err)
	}
}

// WriteError writes the error envelope.
func WriteError(w http.ResponseWriter, status int, code, message, requestID string) {
	WriteJSON(w, status, ErrorResponse{
		Error:     code,
		Message:   message,
		RequestID: requestID,
	})
}
