package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestAccessLog_CapturesStatusAndBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/test-path", nil)
	rr := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte("hello"))
	})

	AccessLog(zerolog.Nop())(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, "hello", rr.Body.String())
}

func TestAccessLog_DefaultsStatusToOKWhenUnset(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/implicit-200", nil)
	rr := httptest.NewRecorder()

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	AccessLog(zerolog.Nop())(next).ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
