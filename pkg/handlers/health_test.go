package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/ekaya-insights/pkg/config"
	"github.com/ekaya-inc/ekaya-insights/pkg/models"
	"github.com/ekaya-inc/ekaya-insights/pkg/services"
	"github.com/ekaya-inc/ekaya-insights/pkg/testhelpers"
)

func healthMux(svc services.InsightsService) *http.ServeMux {
	cfg := &config.Config{Version: "test-version", Env: "test"}
	cfg.Dataset.Source = config.SourceCSV
	mux := http.NewServeMux()
	NewHealthHandler(cfg, svc, zap.NewNop()).RegisterRoutes(mux)
	return mux
}

func TestHealth_Loaded(t *testing.T) {
	mux := healthMux(newService(t, testhelpers.FixtureDataset()))

	for _, path := range []string{"/health", "/api/health"} {
		rec := do(t, mux, http.MethodGet, path, "")
		require.Equal(t, http.StatusOK, rec.Code, path)

		body := decodeBody[services.HealthStatus](t, rec)
		assert.Equal(t, services.StatusHealthy, body.Status)
		assert.True(t, body.DataLoaded)
		assert.False(t, body.Timestamp.IsZero())
		assert.Equal(t, testhelpers.FixtureProducts, body.Tables[models.TablePriceList])
	}
}

func TestHealth_Degraded(t *testing.T) {
	rec := do(t, healthMux(&mockInsightsService{}), http.MethodGet, "/health", "")
	require.Equal(t, http.StatusOK, rec.Code, "health reports degradation in the body")
	assert.Equal(t, services.StatusDegraded, decodeBody[map[string]any](t, rec)["status"])
}

func TestPing(t *testing.T) {
	rec := do(t, healthMux(&mockInsightsService{}), http.MethodGet, "/ping", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decodeBody[PingResponse](t, rec)
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "test-version", body.Version)
	assert.Equal(t, "ekaya-insights", body.Service)
	assert.Equal(t, "test", body.Environment)
	assert.Equal(t, config.SourceCSV, body.DataSource)
	assert.NotEmpty(t, body.GoVersion)
}
