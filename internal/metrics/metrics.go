// Package metrics instruments DEA runs with Prometheus collectors.
package metrics

import (
	"context"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"

	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/pkg/solver"
)

const namespace = "dea"

// Metrics holds the collectors of one registry.
type Metrics struct {
	registry *prometheus.Registry

	Solves       *prometheus.CounterVec
	SolveSeconds *prometheus.HistogramVec
	DMUs         *prometheus.CounterVec
	Runs         *prometheus.CounterVec
}

// New registers the DEA collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Solves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lp_solves_total",
			Help:      "Number of LP solves by resulting status.",
		}, []string{"status"}),
		SolveSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "lp_solve_duration_seconds",
			Help:      "Wall time of one LP solve.",
			Buckets:   prometheus.ExponentialBuckets(1e-5, 4, 10),
		}, []string{"problem"}),
		DMUs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dmus_evaluated_total",
			Help:      "Number of DMUs evaluated, by model.",
		}, []string{"model"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Number of model runs by model and outcome.",
		}, []string{"model", "outcome"}),
	}
	m.registry.MustRegister(m.Solves, m.SolveSeconds, m.DMUs, m.Runs)
	return m
}

// Registry is the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// InstrumentSolver counts and times every solve made through s.
func (m *Metrics) InstrumentSolver(s solver.Solver) solver.Solver {
	return &instrumentedSolver{inner: s, metrics: m}
}

// Progress returns a progress callback counting DMUs evaluated by the named
// model, chained with next when next is non-nil.
func (m *Metrics) Progress(modelName string, next model.ProgressFunc) model.ProgressFunc {
	counter := m.DMUs.WithLabelValues(modelName)
	return func(code string) {
		counter.Inc()
		if next != nil {
			next(code)
		}
	}
}

// ObserveRun records the outcome of one model run.
func (m *Metrics) ObserveRun(modelName string, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.Runs.WithLabelValues(modelName, outcome).Inc()
}

// WriteText writes every collected metric in the text exposition format.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}

type instrumentedSolver struct {
	inner   solver.Solver
	metrics *Metrics
}

func (s *instrumentedSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	start := time.Now()
	res, err := s.inner.Solve(ctx, p)
	s.metrics.SolveSeconds.WithLabelValues(p.Name()).Observe(time.Since(start).Seconds())
	status := "error"
	if err == nil {
		status = res.Status.String()
	}
	s.metrics.Solves.WithLabelValues(status).Inc()
	return res, err
}
