package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "mrintern"

// Registry is the global Prometheus registry for all metrics
var Registry = prometheus.NewRegistry()

// AppInfo exposes build information as labels; the value is always 1.
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "commit", "build_date"},
)

// HealthCheckStatus tracks individual health check results
// Values: 0 = fail, 1 = warn, 2 = pass
var HealthCheckStatus = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_status",
		Help:      "Individual health check status (0=fail, 1=warn, 2=pass)",
	},
	[]string{"check"},
)

// HealthCheckLatency tracks the latency of individual health checks in milliseconds
var HealthCheckLatency = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "health_check_latency_ms",
		Help:      "Health check latency in milliseconds",
	},
	[]string{"check"},
)

// Alert metrics

// AlertChecksTotal counts alert-matching runs by trigger (schedule|admin|cli)
// and result (success|error).
var AlertChecksTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alert_checks_total",
		Help:      "Total number of alert-matching runs",
	},
	[]string{"trigger", "result"},
)

// AlertCheckDuration records how long a full alert run takes.
var AlertCheckDuration = promauto.With(Registry).NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "alert_check_duration_seconds",
		Help:      "Duration of alert-matching runs in seconds",
		Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 300},
	},
)

// AlertPreferencesMatched counts preferences that had at least one new listing.
var AlertPreferencesMatched = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "alert_preferences_matched_total",
		Help:      "Total number of alert preferences with new matching listings",
	},
)

// EmailsSentTotal counts outgoing emails by kind (alert|test) and result.
var EmailsSentTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "emails_sent_total",
		Help:      "Total number of emails attempted",
	},
	[]string{"kind", "result"}, // result: success|error
)

// PushNotificationsTotal counts push deliveries by result.
var PushNotificationsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "push_notifications_total",
		Help:      "Total number of push notification deliveries",
	},
	[]string{"result"}, // result: sent|failed|expired
)

// ListingsImportedTotal counts listings processed by the importer.
var ListingsImportedTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_imported_total",
		Help:      "Total number of listings processed by the importer",
	},
	[]string{"source", "result"}, // result: created|duplicate|invalid
)

// ResumeUploadsTotal counts resume uploads by result.
var ResumeUploadsTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resume_uploads_total",
		Help:      "Total number of resume file uploads",
	},
	[]string{"result"},
)

// JobFailuresTotal counts background job failures and panics by kind.
var JobFailuresTotal = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_failures_total",
		Help:      "Total number of failed background job attempts",
	},
	[]string{"kind"},
)

// Init registers runtime collectors and sets version information
func Init(version, commit, buildDate string) {
	Registry.MustRegister(collectors.NewGoCollector())
	Registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	AppInfo.WithLabelValues(version, commit, buildDate).Set(1)
}
