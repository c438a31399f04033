package stats

import (
	"expvar"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStatsUpdater(t *testing.T) {
	mux := http.NewServeMux()
	su := NewStatsUpdater(mux)
	su.RegisterMetric("TestCounter")
	su.Run()
	defer su.Stop()

	su.Incr("TestCounter")
	su.Incr("TestCounter")
	su.Decr("TestCounter")

	assert.Eventually(t, func() bool {
		counter, ok := su.vars.Get("TestCounter").(*expvar.Int)
		return ok && counter.Value() == 1
	}, time.Second, 10*time.Millisecond, "expected counter to settle at 1")

	// unregistered metrics are created lazily
	su.Incr("Lazy")
	assert.Eventually(t, func() bool {
		counter, ok := su.vars.Get("Lazy").(*expvar.Int)
		return ok && counter.Value() == 1
	}, time.Second, 10*time.Millisecond, "expected lazy metric to be registered and incremented")

	req := httptest.NewRequest(http.MethodGet, "/debug/vars", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code, "expected expvar handler to respond")
	assert.Contains(t, rec.Body.String(), "TestCounter", "expected registered metric in output")
	assert.Contains(t, rec.Body.String(), "Uptime", "expected uptime metric in output")
}
