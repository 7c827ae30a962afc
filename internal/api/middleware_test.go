package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// helper that returns "ok" when the request reaches the inner handler.
func okHandler(t *testing.T) http.Handler {
	t.Helper()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"ok":true}`)); err != nil {
			t.Errorf("okHandler: failed to write response: %v", err)
		}
	})
}

func TestAuthMiddleware_DisabledWithoutToken(t *testing.T) {
	handler := AuthMiddleware("")(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RejectsMissingAuth(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)

	var resp ErrorBody
	require.NoError(t, json.NewDecoder(w.Result().Body).Decode(&resp))
	require.Len(t, resp.Errors, 1)
	assert.Equal(t, 9401, resp.Errors[0].Code)
}

func TestAuthMiddleware_AcceptsMatchingBearer(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
	req.Header.Set("Authorization", "Bearer secret")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_RejectsWrongBearer(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
	req.Header.Set("Authorization", "Bearer nope")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_RejectsOtherScheme(t *testing.T) {
	handler := AuthMiddleware("secret")(okHandler(t))

	req := httptest.NewRequest(http.MethodPost, "/api/images", nil)
	req.Header.Set("Authorization", "Basic c2VjcmV0")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
