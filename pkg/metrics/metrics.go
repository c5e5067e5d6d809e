package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Dispatch lifecycle metrics
	DispatchSucceeded = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_dispatch_succeeded_total",
		Help: "Total number of notification dispatches that succeeded",
	}, []string{"kind"})
	DispatchFailed = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_dispatch_failed_total",
		Help: "Total number of notification dispatches that failed",
	}, []string{"kind", "error_kind"})

	// Mail transport metrics
	MailVerifyFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_mail_verify_failure_total",
		Help: "Total number of failed SMTP verify handshakes",
	}, []string{"host"})
	MailSendSuccess = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_mail_send_success_total",
		Help: "Total number of successful mail sends",
	}, []string{"host"})
	MailSendFailure = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_mail_send_failure_total",
		Help: "Total number of failed mail sends",
	}, []string{"host"})
)

func init() {
	prometheus.MustRegister(DispatchSucceeded)
	prometheus.MustRegister(DispatchFailed)
	prometheus.MustRegister(MailVerifyFailure)
	prometheus.MustRegister(MailSendSuccess)
	prometheus.MustRegister(MailSendFailure)
}

// MetricsHandler returns an http.Handler exposing Prometheus metrics.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
