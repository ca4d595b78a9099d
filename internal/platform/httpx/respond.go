// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"
)

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type          string         `json:"type,omitempty"`
	Title         string         `json:"title"`
	Status        int            `json:"status"`
	Detail        string         `json:"detail,omitempty"`
	InvalidFields []InvalidField `json:"invalid_fields,omitempty"`
}

// InvalidField pinpoints one rejected input field. Position is the zero-based
// index of the offending position within its group, or -1 when the error is
// not tied to a line item.
type InvalidField struct {
	Field    string `json:"field"`
	Group    int    `json:"group,omitempty"`
	Position int    `json:"position"`
	Message  string `json:"message"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// ValidationProblem sends a 400 problem document carrying field-level detail.
func ValidationProblem(w http.ResponseWriter, detail string, fields []InvalidField) {
	JSON(w, http.StatusBadRequest, ProblemDetail{
		Title:         "Validation Failed",
		Status:        http.StatusBadRequest,
		Detail:        detail,
		InvalidFields: fields,
	})
}

// DecodeJSON decodes JSON request body into the target struct.
func DecodeJSON(r *http.Request, target any) error {
	return json.NewDecoder(r.Body).Decode(target)
}
