// Package metrics holds the prometheus collectors shared by the remote
// clients, the configuration store and the form state controller. A nil
// *Collectors is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Submission outcomes.
const (
	OutcomeCreated  = "created"
	OutcomeUpdated  = "updated"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
)

// Collectors groups formkit metrics.
type Collectors struct {
	RemoteRequests     *prometheus.CounterVec
	RemoteDuration     *prometheus.HistogramVec
	CacheLookups       *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	LocationFetches    *prometheus.CounterVec
}

// New registers the collectors on reg. A nil reg uses a private registry.
func New(reg prometheus.Registerer) *Collectors {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)
	return &Collectors{
		RemoteRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formkit_remote_requests_total",
				Help: "Remote service calls by service, operation and outcome",
			},
			[]string{"service", "operation", "outcome"},
		),
		RemoteDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "formkit_remote_request_duration_seconds",
				Help:    "Duration of remote service calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"service", "operation"},
		),
		CacheLookups: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formkit_config_cache_lookups_total",
				Help: "Form configuration cache lookups by form type and result",
			},
			[]string{"form_type", "result"},
		),
		Submissions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formkit_submissions_total",
				Help: "Form submissions by outcome",
			},
			[]string{"outcome"},
		),
		ValidationFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formkit_validation_failures_total",
				Help: "Fields failing validation by field name",
			},
			[]string{"field"},
		),
		LocationFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "formkit_location_fetches_total",
				Help: "Location lookups reaching the location service by tier",
			},
			[]string{"tier"},
		),
	}
}

// ObserveRemote records one remote call.
func (c *Collectors) ObserveRemote(service, operation string, start time.Time, err error) {
	if c == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.RemoteRequests.WithLabelValues(service, operation, outcome).Inc()
	c.RemoteDuration.WithLabelValues(service, operation).Observe(time.Since(start).Seconds())
}

// CacheLookup records a configuration cache hit or miss.
func (c *Collectors) CacheLookup(formType string, hit bool) {
	if c == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	c.CacheLookups.WithLabelValues(formType, result).Inc()
}

// Submission records a submission outcome.
func (c *Collectors) Submission(outcome string) {
	if c == nil {
		return
	}
	c.Submissions.WithLabelValues(outcome).Inc()
}

// ValidationFailure records a failing field.
func (c *Collectors) ValidationFailure(field string) {
	if c == nil {
		return
	}
	c.ValidationFailures.WithLabelValues(field).Inc()
}

// LocationFetch records a location lookup for tier.
func (c *Collectors) LocationFetch(tier string) {
	if c == nil {
		return
	}
	c.LocationFetches.WithLabelValues(tier).Inc()
}
