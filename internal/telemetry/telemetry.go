// Package telemetry exports install events as Prometheus metrics.
package telemetry

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jmgilman/go/lspinstall"
)

const namespace = "lspinstall"

// Sink records lspinstall events as Prometheus metrics:
//
//	lspinstall_installs_total{server, outcome, provenance}
//	lspinstall_install_duration_seconds{server, outcome}
//	lspinstall_installed_version_info{server, version, schema_version}
type Sink struct {
	installs *prometheus.CounterVec
	duration *prometheus.HistogramVec
	version  *prometheus.GaugeVec
}

var _ lspinstall.TelemetrySink = (*Sink)(nil)

// NewSink creates a Sink and registers its collectors with reg.
func NewSink(reg prometheus.Registerer) (*Sink, error) {
	s := &Sink{
		installs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "installs_total",
			Help:      "Install attempts by server, outcome and provenance.",
		}, []string{"server", "outcome", "provenance"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "install_duration_seconds",
			Help:      "Install attempt duration.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30, 60, 120},
		}, []string{"server", "outcome"}),
		version: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "installed_version_info",
			Help:      "Set to 1 for the most recently installed version of each server.",
		}, []string{"server", "version", "schema_version"}),
	}

	for _, c := range []prometheus.Collector{s.installs, s.duration, s.version} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Record implements lspinstall.TelemetrySink.
func (s *Sink) Record(_ context.Context, event lspinstall.Event) {
	provenance := "none"
	if event.Provenance != 0 {
		provenance = event.Provenance.String()
	}

	s.installs.WithLabelValues(event.Server, string(event.Outcome), provenance).Inc()
	s.duration.WithLabelValues(event.Server, string(event.Outcome)).Observe(event.Duration.Seconds())

	if event.Outcome == lspinstall.OutcomeSucceeded && event.Version != "" {
		s.version.DeletePartialMatch(prometheus.Labels{"server": event.Server})
		s.version.WithLabelValues(event.Server, event.Version, event.SchemaVersion).Set(1)
	}
}
