package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/use-agent/shopcrawl/models"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r, err := NewRecorder(reg)
	require.NoError(t, err)

	r.PageVisited("men", 96)
	r.PageVisited("men", 40)
	r.PageRepeated("men")
	r.RunFinished(nil, 3*time.Second)
	r.RunFinished(models.NewCatalogError(models.ErrCodeElementNotFound, "brand", nil), time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(r.pagesVisited.WithLabelValues("men")))
	assert.Equal(t, 136.0, testutil.ToFloat64(r.productsExtracted.WithLabelValues("men")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.pagesRepeated.WithLabelValues("men")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues("OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runs.WithLabelValues(models.ErrCodeElementNotFound)))
	assert.Equal(t, 1, testutil.CollectAndCount(r.runDuration))
}

func TestRecorder_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewRecorder(reg)
	require.NoError(t, err)

	_, err = NewRecorder(reg)
	assert.Error(t, err)
}

func TestRegisterBrowserStats(t *testing.T) {
	reg := prometheus.NewRegistry()
	stats := models.BrowserStats{ActiveSessions: 1, OpenPages: 2}
	require.NoError(t, RegisterBrowserStats(reg, func() models.BrowserStats { return stats }))

	expected := `
# HELP catalog_browser_open_pages Browser pages currently open.
# TYPE catalog_browser_open_pages gauge
catalog_browser_open_pages 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "catalog_browser_open_pages"))

	stats.ActiveSessions = 0
	expected = `
# HELP catalog_browser_active_sessions Incognito browsing sessions currently open.
# TYPE catalog_browser_active_sessions gauge
catalog_browser_active_sessions 0
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "catalog_browser_active_sessions"))
}
