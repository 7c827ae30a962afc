package api

import "net/http"

// BadRequest writes a 400 error response.
func BadRequest(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusBadRequest, ErrorResponse(9400, msg))
}

// Unauthorized writes a 401 error response.
func Unauthorized(w http.ResponseWriter) {
	WriteJSON(w, http.StatusUnauthorized, ErrorResponse(9401, "Authentication required"))
}

// NotFound writes a 404 error response.
func NotFound(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusNotFound, ErrorResponse(9404, msg))
}

// TooLarge writes a 413 error response.
func TooLarge(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusRequestEntityTooLarge, ErrorResponse(9413, msg))
}

// UnsupportedMediaType writes a 415 error response.
func UnsupportedMediaType(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusUnsupportedMediaType, ErrorResponse(9415, msg))
}

// UnprocessableEntity writes a 422 error response with one entry per field.
func UnprocessableEntity(w http.ResponseWriter, fields map[string]string) {
	WriteJSON(w, http.StatusUnprocessableEntity, FieldErrorResponse(9422, fields))
}

// InternalError writes a 500 error response.
func InternalError(w http.ResponseWriter, msg string) {
	WriteJSON(w, http.StatusInternalServerError, ErrorResponse(9500, msg))
}
