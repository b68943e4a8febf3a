package optimizer

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/araith/godea/api/v1alpha1"
	"github.com/araith/godea/internal/engines/factory"
	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/internal/engines/ranking"
	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/internal/metrics"
	"github.com/araith/godea/pkg/config"
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// SolverFactory returns the LP solver for one model run.
type SolverFactory func() solver.Solver

// Optimizer evaluates every model spec of a parameter set.
type Optimizer struct {
	params      *config.Parameters
	session     *core.Session
	metrics     *metrics.Metrics
	solvers     SolverFactory
	progress    model.ProgressFunc
	concurrency int
	now         func() time.Time
}

// Option configures an Optimizer.
type Option func(*Optimizer)

// WithSession sets the session issuing Solutions; it defaults to a session
// with UUID ids and in-memory peer weights.
func WithSession(s *core.Session) Option {
	return func(o *Optimizer) { o.session = s }
}

// WithMetrics instruments every solve and run.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Optimizer) { o.metrics = m }
}

// WithSolver overrides the LP solver factory.
func WithSolver(f SolverFactory) Option {
	return func(o *Optimizer) { o.solvers = f }
}

// WithProgress registers a callback for every solved DMU. Specs run
// concurrently, so f must be safe for concurrent use.
func WithProgress(f model.ProgressFunc) Option {
	return func(o *Optimizer) { o.progress = f }
}

// WithConcurrency caps the number of specs evaluated at once.
func WithConcurrency(n int) Option {
	return func(o *Optimizer) { o.concurrency = n }
}

// WithClock sets the clock used to stamp reports.
func WithClock(now func() time.Time) Option {
	return func(o *Optimizer) { o.now = now }
}

// New returns an Optimizer for params.
func New(params *config.Parameters, opts ...Option) *Optimizer {
	o := &Optimizer{
		params:      params,
		solvers:     func() solver.Solver { return solver.NewSimplex() },
		concurrency: runtime.GOMAXPROCS(0),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.session == nil {
		o.session = core.NewSession()
	}
	return o
}

// Optimize validates the parameters and evaluates every expanded spec over
// data. source names the data in the report. Configuration errors are
// returned before anything is solved; the first run error cancels the
// remaining runs.
func (o *Optimizer) Optimize(ctx context.Context, data *core.DataSet, source string) (*v1alpha1.Report, error) {
	if err := o.params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid parameters: %w", err)
	}
	specs := o.params.Expand()

	// Build every model up front so a bad restriction or category fails the
	// whole analysis before the first solve.
	models := make([]model.Model, len(specs))
	for i, spec := range specs {
		m, err := factory.NewModel(spec, data, model.WithSession(o.session))
		if err != nil {
			return nil, fmt.Errorf("building model %s: %w", spec.Name(), err)
		}
		models[i] = m
	}

	logger := logging.FromContext(ctx)
	logger.Info("Starting analysis", "source", source, "dmus", data.Len(), "models", len(specs))

	runs := make([]v1alpha1.RunReport, len(specs))
	g, gctx := errgroup.WithContext(ctx)
	if o.concurrency > 0 {
		g.SetLimit(o.concurrency)
	}
	for i, spec := range specs {
		g.Go(func() error {
			run, err := o.run(gctx, spec, models[i])
			if o.metrics != nil {
				o.metrics.ObserveRun(spec.Name(), err)
			}
			if err != nil {
				return fmt.Errorf("running model %s: %w", spec.Name(), err)
			}
			runs[i] = *run
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	report := v1alpha1.NewReport(source)
	generated := o.now().UTC()
	report.GeneratedAt = &generated
	report.Runs = runs
	logger.Info("Analysis complete", "source", source, "models", len(runs))
	return report, nil
}

func (o *Optimizer) env(name string) model.Env {
	env := model.Env{Solver: o.solvers(), Progress: o.progress}
	if o.metrics != nil {
		env.Solver = o.metrics.InstrumentSolver(env.Solver)
		env.Progress = o.metrics.Progress(name, o.progress)
	}
	return env
}

func (o *Optimizer) run(ctx context.Context, spec config.ModelSpec, m model.Model) (*v1alpha1.RunReport, error) {
	logger := logging.FromContext(ctx).WithValues("model", spec.Name())
	ctx = logging.IntoContext(ctx, logger)
	env := o.env(spec.Name())

	if !spec.PeelTheOnion {
		res, err := model.Run(ctx, m, env)
		if err != nil {
			return nil, err
		}
		defer res.Release() //nolint:errcheck
		return newRunReport(spec, m, res, nil)
	}

	res, ranks, ok, err := ranking.PeelTheOnion(ctx, m, env)
	if err != nil {
		return nil, err
	}
	defer res.Release() //nolint:errcheck
	if !ok {
		logger.Info("Ranking incomplete", "unranked", countUnranked(ranks))
	}
	run, err := newRunReport(spec, m, res, ranks)
	if err != nil {
		return nil, err
	}
	run.Ranking = &v1alpha1.RankingStatus{Complete: ok, Rounds: rounds(ranks)}
	return run, nil
}

func countUnranked(ranks map[string]int) int {
	n := 0
	for _, r := range ranks {
		if r == ranking.RankInfeasible {
			n++
		}
	}
	return n
}

func rounds(ranks map[string]int) int {
	n := 0
	for _, r := range ranks {
		n = max(n, r)
	}
	return n
}
