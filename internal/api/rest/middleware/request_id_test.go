package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestID(t *testing.T) {
	t.Run("should assign a fresh uuid and expose it on the response", func(t *testing.T) {
		var seen string
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := RequestIDFromContext(r.Context())
			require.True(t, ok)
			seen = id
		})

		recorder := httptest.NewRecorder()
		RequestID(next).ServeHTTP(recorder, httptest.NewRequest(http.MethodGet, "/api/orders", http.NoBody))

		_, err := uuid.Parse(seen)
		assert.NoError(t, err)
		assert.Equal(t, seen, recorder.Header().Get(RequestIDHeader))
	})

	t.Run("should propagate a caller-supplied id", func(t *testing.T) {
		next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, _ := RequestIDFromContext(r.Context())
			assert.Equal(t, "caller-id", id)
		})

		req := httptest.NewRequest(http.MethodGet, "/api/orders", http.NoBody)
		req.Header.Set(RequestIDHeader, "caller-id")

		recorder := httptest.NewRecorder()
		RequestID(next).ServeHTTP(recorder, req)

		assert.Equal(t, "caller-id", recorder.Header().Get(RequestIDHeader))
	})
}

func TestStatusRecorder(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	recorder := httptest.NewRecorder()
	wrapped := &statusRecorder{ResponseWriter: recorder, status: http.StatusOK}
	next.ServeHTTP(wrapped, httptest.NewRequest(http.MethodGet, "/", http.NoBody))

	assert.Equal(t, http.StatusTeapot, wrapped.status)
	assert.Equal(t, http.StatusTeapot, recorder.Code)
}
