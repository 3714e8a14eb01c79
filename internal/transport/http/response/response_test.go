package response

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/piquet-h/the-shifting-atlas-sub001/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestOK_WritesDataEnvelope(t *testing.T) {
	rr := httptest.NewRecorder()
	OK(rr, map[string]string{"id": "abc"})

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"data"`)
	assert.Contains(t, rr.Body.String(), `"abc"`)
}

func TestWriteError_MapsDomainCodesToStatus(t *testing.T) {
	cases := []struct {
		err      error
		wantCode int
	}{
		{domain.ErrValidation("bad input"), http.StatusBadRequest},
		{domain.ErrNotFound("missing"), http.StatusNotFound},
		{domain.ErrConflict("dupe"), http.StatusConflict},
		{domain.ErrHandlerPermanent("boom"), http.StatusUnprocessableEntity},
		{domain.ErrUnauthorized("nope"), http.StatusUnauthorized},
		{assertErr{}, http.StatusInternalServerError},
	}

	for _, c := range cases {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rr := httptest.NewRecorder()
		WriteError(rr, req, c.err)
		assert.Equal(t, c.wantCode, rr.Code)
	}
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithRequestID(req.Context(), "req-42"))
	rr := httptest.NewRecorder()

	WriteError(rr, req, domain.ErrNotFound("missing"))

	assert.Contains(t, rr.Body.String(), "req-42")
}

type assertErr struct{}

func (assertErr) Error() string { return "boom" }
