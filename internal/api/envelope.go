// Package api holds the JSON envelope and error helpers shared by the
// images API and the hosting endpoint.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"
)

// DataResponse wraps a single result, as returned by the hosting endpoint.
type DataResponse struct {
	Data interface{} `json:"data"`
}

// ErrorBody is the error envelope.
type ErrorBody struct {
	Errors []APIError `json:"errors"`
}

// APIError represents a single error in the envelope.
type APIError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Source  *APIErrorSource `json:"source,omitempty"`
}

// APIErrorSource identifies the field that caused the error.
type APIErrorSource struct {
	Pointer string `json:"pointer"`
}

// Data wraps result in a DataResponse.
func Data(result interface{}) DataResponse {
	return DataResponse{Data: result}
}

// ErrorResponse builds an error envelope carrying one message.
func ErrorResponse(code int, message string) ErrorBody {
	return ErrorBody{Errors: []APIError{{Code: code, Message: message}}}
}

// FieldErrorResponse builds an error envelope with one entry per field,
// ordered by field name.
func FieldErrorResponse(code int, fields map[string]string) ErrorBody {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)

	body := ErrorBody{Errors: make([]APIError, 0, len(names))}
	for _, name := range names {
		body.Errors = append(body.Errors, APIError{
			Code:    code,
			Message: fields[name],
			Source:  &APIErrorSource{Pointer: "/" + name},
		})
	}
	return body
}

// WriteJSON serialises resp as JSON and writes it to w with the given HTTP status code.
func WriteJSON(w http.ResponseWriter, status int, resp interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encoding response", "error", err)
	}
}
