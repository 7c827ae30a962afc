package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestData(t *testing.T) {
	result := map[string]string{"url": "https://cdn.example/a.png"}
	resp := Data(result)
	assert.Equal(t, result, resp.Data)
}

func TestErrorResponse(t *testing.T) {
	resp := ErrorResponse(9400, "bad request")

	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 9400, resp.Errors[0].Code)
	assert.Equal(t, "bad request", resp.Errors[0].Message)
	assert.Nil(t, resp.Errors[0].Source)
}

func TestFieldErrorResponseIsSorted(t *testing.T) {
	resp := FieldErrorResponse(9422, map[string]string{
		"title":       "Title is required",
		"description": "Description is required",
	})

	require.Len(t, resp.Errors, 2)
	assert.Equal(t, "Description is required", resp.Errors[0].Message)
	assert.Equal(t, "/description", resp.Errors[0].Source.Pointer)
	assert.Equal(t, "/title", resp.Errors[1].Source.Pointer)
}

func TestWriteJSON(t *testing.T) {
	w := httptest.NewRecorder()
	WriteJSON(w, http.StatusOK, Data(map[string]string{"hello": "world"}))

	res := w.Result()
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "application/json", res.Header.Get("Content-Type"))

	var decoded struct {
		Data map[string]string `json:"data"`
	}
	require.NoError(t, json.NewDecoder(res.Body).Decode(&decoded))
	assert.Equal(t, "world", decoded.Data["hello"])
}

func TestErrorHelpers(t *testing.T) {
	tests := []struct {
		name   string
		write  func(http.ResponseWriter)
		status int
		code   int
	}{
		{"bad request", func(w http.ResponseWriter) { BadRequest(w, "bad") }, http.StatusBadRequest, 9400},
		{"unauthorized", Unauthorized, http.StatusUnauthorized, 9401},
		{"not found", func(w http.ResponseWriter) { NotFound(w, "gone") }, http.StatusNotFound, 9404},
		{"too large", func(w http.ResponseWriter) { TooLarge(w, "big") }, http.StatusRequestEntityTooLarge, 9413},
		{"media type", func(w http.ResponseWriter) { UnsupportedMediaType(w, "bmp") }, http.StatusUnsupportedMediaType, 9415},
		{"internal", func(w http.ResponseWriter) { InternalError(w, "oops") }, http.StatusInternalServerError, 9500},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.status, w.Code)
			var body ErrorBody
			require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
			require.Len(t, body.Errors, 1)
			assert.Equal(t, tt.code, body.Errors[0].Code)
		})
	}
}

func TestUnprocessableEntity(t *testing.T) {
	w := httptest.NewRecorder()
	UnprocessableEntity(w, map[string]string{"url": "URL must be absolute"})

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	var raw map[string]interface{}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&raw))
	errs, ok := raw["errors"].([]interface{})
	require.True(t, ok)
	require.Len(t, errs, 1)
	errObj := errs[0].(map[string]interface{})
	assert.Equal(t, float64(9422), errObj["code"])
	assert.Equal(t, "URL must be absolute", errObj["message"])
}
