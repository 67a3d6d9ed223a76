package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Authorization-decision Prometheus metrics. Defined in a standalone package
// so services and store adapters can share them without import cycles.

var (
	AuthzDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_decisions_total",
		Help: "Resultados del evaluador de validez (allow/deny/error)",
	}, []string{"decision"})

	AutoApproveDecisions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "authz_auto_approve_total",
		Help: "Resultados del auto-approval decider (allow/deny/error)",
	}, []string{"decision"})

	SigningHandlesIssued = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "authz_signing_handles_issued_total",
		Help: "Handles de firma emitidos por el key provider",
	})

	GrantLookupDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "authz_grant_lookup_duration_seconds",
		Help:    "Latencia de la query al grant history store",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})
)

// Decision label values.
const (
	DecisionAllow = "allow"
	DecisionDeny  = "deny"
	DecisionError = "error"
)

// Register registers the authz metrics on the given registry (or default if nil).
func Register(reg prometheus.Registerer) error {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	collectors := []prometheus.Collector{
		AuthzDecisions,
		AutoApproveDecisions,
		SigningHandlesIssued,
		GrantLookupDuration,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); !ok {
				return err
			}
		}
	}
	return nil
}
