package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantportal_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tenantportal_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	loginsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantportal_logins_total",
		Help: "Count of login attempts by result",
	}, []string{"result"})

	registrationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tenantportal_registrations_total",
		Help: "Count of successful account registrations",
	})

	maintenanceRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantportal_maintenance_requests_total",
		Help: "Count of maintenance requests created, by urgency",
	}, []string{"urgency"})

	announcementReadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantportal_announcement_reads_total",
		Help: "Count of announcement read receipts recorded, by mode",
	}, []string{"mode"})

	passwordResetsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tenantportal_password_resets_total",
		Help: "Count of password reset operations by stage and result",
	}, []string{"stage", "result"})
)

// ObserveHTTPRequest records an HTTP request metric
func ObserveHTTPRequest(method, path, status string, duration time.Duration) {
	httpRequestsTotal.WithLabelValues(method, path, status).Inc()
	httpRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

// ObserveLogin records a login attempt with a result label
func ObserveLogin(result string) {
	loginsTotal.WithLabelValues(result).Inc()
}

// ObserveRegistration increments the registration counter
func ObserveRegistration() {
	registrationsTotal.Inc()
}

// ObserveMaintenanceCreated records a newly filed maintenance request
func ObserveMaintenanceCreated(urgency string) {
	maintenanceRequestsTotal.WithLabelValues(urgency).Inc()
}

// ObserveAnnouncementRead records read receipts ("single" or "bulk")
func ObserveAnnouncementRead(mode string, count int) {
	for i := 0; i < count; i++ {
		announcementReadsTotal.WithLabelValues(mode).Inc()
	}
}

// ObservePasswordReset records a reset-flow stage ("forgot" or "reset")
func ObservePasswordReset(stage, result string) {
	passwordResetsTotal.WithLabelValues(stage, result).Inc()
}
