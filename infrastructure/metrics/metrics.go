package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricPrefix = "condowater_"

	ResultSuccess = "success"
	ResultError   = "error"
	ResultBlocked = "blocked"
)

var (
	registerOnce sync.Once

	backendRequests *prometheus.CounterVec
	backendLatency  *prometheus.HistogramVec

	wizardSubmissions *prometheus.CounterVec
	csvImports        *prometheus.CounterVec
	exportsTotal      *prometheus.CounterVec
	loginsTotal       *prometheus.CounterVec
)

// Init registers the console metrics. openWizards, when set, backs a gauge of
// wizard sessions currently held in memory.
func Init(openWizards func() int) {
	registerOnce.Do(func() {
		backendRequests = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "backend_requests_total",
				Help: "Total billing backend requests by endpoint and result",
			},
			[]string{"endpoint", "result"},
		)
		backendLatency = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "backend_latency_seconds",
				Help:    "Billing backend request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		)
		wizardSubmissions = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "wizard_submissions_total",
				Help: "Total readings submissions by outcome",
			},
			[]string{"result"},
		)
		csvImports = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "csv_imports_total",
				Help: "Total CSV reading imports by result",
			},
			[]string{"result"},
		)
		exportsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "exports_total",
				Help: "Total generated documents by format and result",
			},
			[]string{"format", "result"},
		)
		loginsTotal = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "logins_total",
				Help: "Total console logins by result",
			},
			[]string{"result"},
		)

		prometheus.MustRegister(
			backendRequests,
			backendLatency,
			wizardSubmissions,
			csvImports,
			exportsTotal,
			loginsTotal,
		)

		if openWizards != nil {
			prometheus.MustRegister(prometheus.NewGaugeFunc(
				prometheus.GaugeOpts{
					Name: metricPrefix + "wizard_sessions_open",
					Help: "Readings wizard sessions held in memory",
				},
				func() float64 { return float64(openWizards()) },
			))
		}
	})
}

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}

func resultOf(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// ObserveBackendCall records a billing backend request.
func ObserveBackendCall(endpoint string, err error, duration time.Duration) {
	if backendRequests != nil {
		backendRequests.WithLabelValues(endpoint, resultOf(err)).Inc()
	}
	if backendLatency != nil {
		backendLatency.WithLabelValues(endpoint).Observe(duration.Seconds())
	}
}

// IncWizardSubmission counts a submission outcome: success, blocked or error.
func IncWizardSubmission(result string) {
	if wizardSubmissions != nil {
		wizardSubmissions.WithLabelValues(result).Inc()
	}
}

func IncCSVImport(err error) {
	if csvImports != nil {
		csvImports.WithLabelValues(resultOf(err)).Inc()
	}
}

func IncExport(format string, err error) {
	if exportsTotal != nil {
		exportsTotal.WithLabelValues(format, resultOf(err)).Inc()
	}
}

func IncLogin(err error) {
	if loginsTotal != nil {
		loginsTotal.WithLabelValues(resultOf(err)).Inc()
	}
}
