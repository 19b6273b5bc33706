// Package metrics exposes page load instrumentation as Prometheus collectors.
package metrics

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "pageload"

// Result label values.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Collector groups the page load metrics.
type Collector struct {
	PhaseDuration *prometheus.HistogramVec
	PhaseFailures *prometheus.CounterVec
	RuleChanges   *prometheus.CounterVec
	RuleFailures  *prometheus.CounterVec
	BlockLoads    *prometheus.CounterVec
	Outcomes      *prometheus.CounterVec
	Pages         *prometheus.CounterVec
	DelayedRuns   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		PhaseDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "phase_duration_seconds",
				Help:      "Duration of page load phases",
				Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"phase"},
		),
		PhaseFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "phase_failures_total",
				Help:      "Page load phases that ended with a structural error",
			},
			[]string{"phase"},
		),
		RuleChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aria_rule_changes_total",
				Help:      "Attribute edits made by each ARIA remediation rule",
			},
			[]string{"rule"},
		),
		RuleFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "aria_rule_failures_total",
				Help:      "ARIA remediation rules that returned an error",
			},
			[]string{"rule"},
		),
		BlockLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "block_loads_total",
				Help:      "Block loads by block name and result",
			},
			[]string{"block", "result"},
		),
		Outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ignored_failures_total",
				Help:      "Cosmetic failures reported and ignored, by step",
			},
			[]string{"step"},
		),
		Pages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "pages_rendered_total",
				Help:      "Rendered pages by source format and result",
			},
			[]string{"source", "result"},
		),
		DelayedRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "delayed_runs_total",
				Help:      "Delayed phase runs by result",
			},
			[]string{"result"},
		),
	}

	for _, col := range []prometheus.Collector{
		c.PhaseDuration, c.PhaseFailures, c.RuleChanges, c.RuleFailures,
		c.BlockLoads, c.Outcomes, c.Pages, c.DelayedRuns,
	} {
		if err := reg.Register(col); err != nil {
			return nil, fmt.Errorf("registering metrics: %w", err)
		}
	}
	return c, nil
}

// ObservePhase records the duration and failure of a phase.
func (c *Collector) ObservePhase(phase string, d time.Duration, err error) {
	c.PhaseDuration.WithLabelValues(phase).Observe(d.Seconds())
	if err != nil {
		c.PhaseFailures.WithLabelValues(phase).Inc()
	}
}

// ObserveRule records the edits and failure of one remediation rule.
func (c *Collector) ObserveRule(rule string, changed int, err error) {
	if changed > 0 {
		c.RuleChanges.WithLabelValues(rule).Add(float64(changed))
	}
	if err != nil {
		c.RuleFailures.WithLabelValues(rule).Inc()
	}
}

// ObserveBlock records a block load.
func (c *Collector) ObserveBlock(block string, err error) {
	c.BlockLoads.WithLabelValues(block, result(err)).Inc()
}

// ObserveOutcome records an ignored cosmetic failure.
func (c *Collector) ObserveOutcome(step string) {
	c.Outcomes.WithLabelValues(step).Inc()
}

// ObservePage records a rendered page.
func (c *Collector) ObservePage(source string, err error) {
	c.Pages.WithLabelValues(source, result(err)).Inc()
}

// ObserveDelayed records a finished delayed run.
func (c *Collector) ObserveDelayed(err error) {
	c.DelayedRuns.WithLabelValues(result(err)).Inc()
}

// Handler serves the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

func result(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultOK
}
