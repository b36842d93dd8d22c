package prometheus

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olfacto/scentinel/internal/infrastructure/monitoring/logging"
)

func newTestCollector(t *testing.T) MetricsCollector {
	t.Helper()
	c, err := NewMetricsCollector(CollectorConfig{Namespace: "scentinel"}, logging.NewNopLogger())
	require.NoError(t, err)
	return c
}

func scrape(t *testing.T, c MetricsCollector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsCollectorRequiresNamespace(t *testing.T) {
	_, err := NewMetricsCollector(CollectorConfig{}, logging.NewNopLogger())
	assert.Error(t, err)
}

func TestRegisterCounterAndScrape(t *testing.T) {
	c := newTestCollector(t)

	counter := c.RegisterCounter("checks_total", "Total checks", "result")
	counter.WithLabelValues("compliant").Inc()
	counter.WithLabelValues("compliant").Add(2)

	body := scrape(t, c)
	assert.Contains(t, body, `scentinel_checks_total{result="compliant"} 3`)
}

func TestRegisterDuplicateReturnsSameMetric(t *testing.T) {
	c := newTestCollector(t)

	first := c.RegisterCounter("dups_total", "Duplicates", "kind")
	second := c.RegisterCounter("dups_total", "Duplicates", "kind")

	first.WithLabelValues("a").Inc()
	second.WithLabelValues("a").Inc()

	body := scrape(t, c)
	assert.Contains(t, body, `scentinel_dups_total{kind="a"} 2`)
}

func TestRegisterGauge(t *testing.T) {
	c := newTestCollector(t)

	gauge := c.RegisterGauge("materials", "Materials loaded")
	gauge.WithLabelValues().Set(1500)

	body := scrape(t, c)
	assert.Contains(t, body, "scentinel_materials 1500")
}

func TestRegisterHistogramDefaultBuckets(t *testing.T) {
	c := newTestCollector(t)

	hist := c.RegisterHistogram("check_seconds", "Check duration", nil, "cached")
	hist.WithLabelValues("false").Observe(0.02)

	body := scrape(t, c)
	assert.Contains(t, body, `scentinel_check_seconds_count{cached="false"} 1`)
}

func TestConcurrentRegistration(t *testing.T) {
	c := newTestCollector(t)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.RegisterCounter("racy_total", "Racy", "n").WithLabelValues("x").Inc()
		}()
	}
	wg.Wait()

	body := scrape(t, c)
	assert.Contains(t, body, `scentinel_racy_total{n="x"} 16`)
}

func TestNopCollectorIsSilent(t *testing.T) {
	c := NewNopCollector()
	c.RegisterCounter("anything", "help").WithLabelValues().Inc()
	c.RegisterGauge("anything", "help").WithLabelValues().Set(1)
	c.RegisterHistogram("anything", "help", nil).WithLabelValues().Observe(1)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestNewAppMetricsRegistersCleanly(t *testing.T) {
	c := newTestCollector(t)
	m := NewAppMetrics(c)

	m.ChecksTotal.WithLabelValues(ResultCompliant).Inc()
	m.RefDataStandards.WithLabelValues().Set(12)
	m.CheckDuration.WithLabelValues("true").Observe(0.001)

	body := scrape(t, c)
	assert.True(t, strings.Contains(body, "scentinel_compliance_checks_total"))
	assert.True(t, strings.Contains(body, "scentinel_refdata_standards 12"))
}
