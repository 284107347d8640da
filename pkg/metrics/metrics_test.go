package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func TestDatasetLoaded(t *testing.T) {
	r := NewRegistry()

	r.DatasetLoaded(testhelpers.FixtureDataset(), true, nil)
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DatasetReloads.WithLabelValues(ReloadInstalled)))
	assert.Equal(t, float64(testhelpers.FixtureOrderLines),
		testutil.ToFloat64(r.DatasetRows.WithLabelValues(string(models.TableOrderLines))))

	r.DatasetLoaded(nil, false, errors.New("boom"))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.DatasetReloads.WithLabelValues(ReloadRejected)))
	assert.Equal(t, float64(testhelpers.FixtureOrderLines),
		testutil.ToFloat64(r.DatasetRows.WithLabelValues(string(models.TableOrderLines))),
		"rejected loads keep the previous row counts")
}

func TestInstrument(t *testing.T) {
	r := NewRegistry()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := r.Instrument(mux)

	for _, path := range []string{"/health", "/health", "/nope"} {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	assert.Equal(t, 2, testutil.CollectAndCount(r.RequestDuration))
}

func TestHandler(t *testing.T) {
	r := NewRegistry()
	r.Queries.WithLabelValues("revenue").Inc()
	r.QueriesScreened.Inc()

	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `insights_queries_total{category="revenue"} 1`)
	assert.Contains(t, string(body), "insights_query_screened_total 1")
}
