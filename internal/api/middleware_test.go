package api

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"roomcast/internal/testutil"
)

func Test_errorHandler(t *testing.T) {
	t.Run("recovers from panic", func(t *testing.T) {
		s := &ChatApp{log: testutil.TestLogger(t)}

		h := s.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			panic(errors.New("boom"))
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code, "expected 500 after panic")
		assert.Equal(t, "close", rec.Header().Get("Connection"), "expected connection to be closed")
	})

	t.Run("passes through normal requests", func(t *testing.T) {
		s := &ChatApp{log: testutil.TestLogger(t)}

		h := s.errorHandler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		}))

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusNoContent, rec.Code, "expected handler status to pass through")
	})
}
