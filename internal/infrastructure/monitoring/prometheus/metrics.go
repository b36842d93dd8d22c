package prometheus

// AppMetrics holds the platform metric set.
type AppMetrics struct {
	// HTTP layer
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Compliance engine
	ChecksTotal       CounterVec
	CheckDuration     HistogramVec
	CacheHitsTotal    CounterVec
	CacheMissesTotal  CounterVec
	UnresolvedTotal   CounterVec
	IntegrityWarnings CounterVec

	// Reference data
	RefDataReloadsTotal CounterVec
	RefDataStandards    GaugeVec
	RefDataMaterials    GaugeVec
}

var (
	httpDurationBuckets  = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	checkDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1}
)

// NewAppMetrics registers the full metric set on the collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	return &AppMetrics{
		HTTPRequestsTotal: collector.RegisterCounter(
			"http_requests_total", "Total HTTP requests", "method", "path", "status_code"),
		HTTPRequestDuration: collector.RegisterHistogram(
			"http_request_duration_seconds", "HTTP request duration", httpDurationBuckets, "method", "path"),
		HTTPActiveRequests: collector.RegisterGauge(
			"http_active_requests", "In-flight HTTP requests", "method"),

		ChecksTotal: collector.RegisterCounter(
			"compliance_checks_total", "Compliance checks by outcome", "result"),
		CheckDuration: collector.RegisterHistogram(
			"compliance_check_duration_seconds", "Compliance check duration", checkDurationBuckets, "cached"),
		CacheHitsTotal: collector.RegisterCounter(
			"compliance_cache_hits_total", "Compliance result cache hits"),
		CacheMissesTotal: collector.RegisterCounter(
			"compliance_cache_misses_total", "Compliance result cache misses"),
		UnresolvedTotal: collector.RegisterCounter(
			"compliance_unresolved_materials_total", "Formula entries not found in reference data"),
		IntegrityWarnings: collector.RegisterCounter(
			"compliance_integrity_warnings_total", "Data integrity warnings emitted by checks"),

		RefDataReloadsTotal: collector.RegisterCounter(
			"refdata_reloads_total", "Reference data reloads", "status"),
		RefDataStandards: collector.RegisterGauge(
			"refdata_standards", "Standards in the active snapshot"),
		RefDataMaterials: collector.RegisterGauge(
			"refdata_materials", "Materials in the active snapshot"),
	}
}

// Outcome label values for ChecksTotal.
const (
	ResultCompliant    = "compliant"
	ResultNonCompliant = "non_compliant"
	ResultError        = "error"
)
