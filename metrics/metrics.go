package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry       *prometheus.Registry
	syncRuns       *prometheus.CounterVec // total reconciliation runs
	syncDuration   prometheus.Histogram   // time per run
	catalogZones   prometheus.Gauge       // private zones in the catalog
	vpcReconciles  *prometheus.CounterVec // per-vpc reconcile outcomes
	associationOps *prometheus.CounterVec // route53 association operations
	awsRequests    *prometheus.CounterVec // raw aws api requests
}

// Public interface for metrics operations
func (m *Metrics) IncSyncRun(success bool) {
	m.syncRuns.WithLabelValues(boolToResult(success)).Inc()
}

func (m *Metrics) SetSyncDuration(duration time.Duration) {
	m.syncDuration.Observe(duration.Seconds())
}

func (m *Metrics) SetCatalogZones(count int) {
	m.catalogZones.Set(float64(count))
}

func (m *Metrics) IncVPCReconcile(success bool) {
	m.vpcReconciles.WithLabelValues(boolToResult(success)).Inc()
}

func (m *Metrics) IncAssociationOp(operation string, success bool) {
	if !isValidAssociationOp(operation) {
		return
	}
	m.associationOps.WithLabelValues(operation, boolToResult(success)).Inc()
}

func (m *Metrics) IncAWSRequest(service, operation string, success bool) {
	m.awsRequests.WithLabelValues(service, operation, boolToResult(success)).Inc()
}

func boolToResult(b bool) string {
	if b {
		return "success"
	}
	return "failure"
}

func isValidAssociationOp(op string) bool {
	switch op {
	case "authorize", "associate", "revoke", "disassociate":
		return true
	}
	return false
}

func New() *Metrics {
	registry := prometheus.NewRegistry()
	namespace := "zone_vpc_sync"

	m := &Metrics{
		registry: registry,

		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of reconciliation runs",
		}, []string{"status"}),

		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of reconciliation runs in seconds",
			Buckets:   prometheus.DefBuckets,
		}),

		catalogZones: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_zones_current",
			Help:      "Private hosted zones in the current catalog",
		}),

		vpcReconciles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "vpc_reconciles_total",
			Help:      "Total per-VPC reconcile attempts",
		}, []string{"status"}),

		associationOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "association_operations_total",
			Help:      "Total zone association operations",
		}, []string{"operation", "status"}),

		awsRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "aws_requests_total",
			Help:      "Total AWS API requests",
		}, []string{"service", "operation", "status"}),
	}

	registry.MustRegister(
		m.syncRuns,
		m.syncDuration,
		m.catalogZones,
		m.vpcReconciles,
		m.associationOps,
		m.awsRequests,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
