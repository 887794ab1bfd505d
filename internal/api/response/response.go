package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Error is the body of every non-2xx API response. Code is a stable
// identifier clients can switch on; Error is for humans.
type Error struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	// Fields maps a request field to the validation rule it failed.
	Fields map[string]string `json:"fields,omitempty"`
}

var codes = map[int]string{
	http.StatusBadRequest:          "invalid_request",
	http.StatusUnauthorized:        "unauthorized",
	http.StatusNotFound:            "not_found",
	http.StatusConflict:            "conflict",
	http.StatusServiceUnavailable:  "unavailable",
	http.StatusInternalServerError: "internal",
}

// ErrorCode returns the error code written for an HTTP status.
func ErrorCode(status int) string {
	if c, ok := codes[status]; ok {
		return c
	}
	if status >= http.StatusInternalServerError {
		return "internal"
	}
	return "invalid_request"
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func WriteError(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, Error{Error: message, Code: ErrorCode(status)})
}

// WriteBadRequest writes a 400 for a request that failed to decode or
// validate. Validation failures list the offending fields.
func WriteBadRequest(w http.ResponseWriter, err error) {
	body := Error{Error: err.Error(), Code: ErrorCode(http.StatusBadRequest)}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		body.Fields = make(map[string]string, len(verrs))
		for _, fe := range verrs {
			body.Fields[fe.Field()] = fe.Tag()
		}
	}
	WriteJSON(w, http.StatusBadRequest, body)
}

// PaginatedResponse wraps a list with pagination metadata.
type PaginatedResponse struct {
	Items      any    `json:"items"`
	NextCursor string `json:"next_cursor,omitempty"`
	HasMore    bool   `json:"has_more"`
}

// WritePaginated writes a paginated JSON response.
func WritePaginated(w http.ResponseWriter, status int, items any, nextCursor string, hasMore bool) {
	WriteJSON(w, status, PaginatedResponse{
		Items:      items,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	})
}
