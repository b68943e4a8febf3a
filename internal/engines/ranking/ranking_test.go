package ranking

import (
	"context"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

type row struct {
	name  string
	x1    float64
	x2    float64
	q     float64
	level float64
}

var fiveDMUs = []row{
	{"A", 2, 5, 1, 1},
	{"B", 2, 4, 2, 2},
	{"C", 6, 6, 3, 1.9},
	{"D", 3, 2, 1, 1},
	{"E", 6, 2, 2, 2},
}

func makeData(rows []row) *core.DataSet {
	d := core.NewDataSet()
	for _, r := range rows {
		Expect(d.AddCoefficient(r.name, "x1", r.x1)).To(Succeed())
		Expect(d.AddCoefficient(r.name, "x2", r.x2)).To(Succeed())
		Expect(d.AddCoefficient(r.name, "q", r.q)).To(Succeed())
		Expect(d.AddCoefficient(r.name, "level", r.level)).To(Succeed())
	}
	Expect(d.AddInputCategory("x1")).To(Succeed())
	Expect(d.AddInputCategory("x2")).To(Succeed())
	Expect(d.AddOutputCategory("q")).To(Succeed())
	return d
}

func code(d *core.DataSet, name string) string {
	c, ok := d.Code(name)
	Expect(ok).To(BeTrue())
	return c
}

func crs(d *core.DataSet) model.Model {
	m, err := model.NewEnvelopmentModel(d, model.InputOriented, model.BoundsFor(model.InputOriented, false))
	Expect(err).NotTo(HaveOccurred())
	return m
}

// flakySolver reports every solve after the first limit as infeasible.
type flakySolver struct {
	inner solver.Solver
	limit int32
	calls atomic.Int32
}

func (f *flakySolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	if f.calls.Add(1) > f.limit {
		return &solver.Result{Status: solver.StatusInfeasible}, nil
	}
	return f.inner.Solve(ctx, p)
}

// flatSolver reports every DMU as optimal with the same sub-unit objective.
type flatSolver struct{}

func (flatSolver) Solve(context.Context, *solver.Problem) (*solver.Result, error) {
	return &solver.Result{Status: solver.StatusOptimal, Objective: 0.5}, nil
}

var _ = Describe("PeelTheOnion", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	It("should rank the first frontier 1 and everything else later", func() {
		first, ranks, ok, err := PeelTheOnion(context.Background(), crs(data), model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		Expect(ok).To(BeTrue())
		Expect(ranks).To(HaveLen(5))
		Expect(ranks[code(data, "B")]).To(Equal(1))
		Expect(ranks[code(data, "E")]).To(Equal(1))
		for _, name := range []string{"A", "C", "D"} {
			Expect(ranks[code(data, name)]).To(BeNumerically(">", 1), name)
		}
	})

	It("should return the first round's solution", func() {
		first, _, _, err := PeelTheOnion(context.Background(), crs(data), model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		Expect(first.Primary.Score(code(data, "A"))).To(BeNumerically("~", 0.5, 1e-6))
		Expect(first.Primary.Score(code(data, "D"))).To(BeNumerically("~", 5.0/7.0, 1e-6))
	})

	It("should never rank a DMU above an unranked peer", func() {
		type peering struct {
			rank  int
			peers map[string]float64
		}
		var seen []peering
		observe := WithRoundObserver(func(rank int, res *model.Result, ranked []string) {
			for _, c := range ranked {
				weights, err := res.Primary.PeerWeights(c)
				Expect(err).NotTo(HaveOccurred())
				seen = append(seen, peering{rank: rank, peers: weights})
			}
		})

		first, ranks, ok, err := PeelTheOnion(context.Background(), crs(data), model.Env{}, observe)
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()
		Expect(ok).To(BeTrue())

		Expect(seen).To(HaveLen(5))
		for _, p := range seen {
			for peer := range p.peers {
				Expect(ranks[peer]).To(BeNumerically("<=", p.rank))
			}
		}
	})

	It("should restore the comparison set", func() {
		m := crs(data)
		first, _, _, err := PeelTheOnion(context.Background(), m, model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		Expect(m.Comparison()).To(Equal(data.DMUCodes()))
	})

	It("should flag a round with a non-optimal DMU", func() {
		m := crs(data)
		env := model.Env{Solver: &flakySolver{inner: solver.NewSimplex(), limit: 5}}

		first, ranks, ok, err := PeelTheOnion(context.Background(), m, env)
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		Expect(ok).To(BeFalse())
		Expect(first).NotTo(BeNil())
		Expect(first.Primary.Score(code(data, "A"))).To(BeNumerically("~", 0.5, 1e-6))
		Expect(ranks[code(data, "B")]).To(Equal(1))
		Expect(ranks[code(data, "E")]).To(Equal(1))
		Expect(ranks[code(data, "A")]).To(Equal(RankInfeasible))
		Expect(m.Comparison()).To(Equal(data.DMUCodes()))
	})

	It("should give everyone the same rank when nobody is efficient", func() {
		first, ranks, ok, err := PeelTheOnion(context.Background(), crs(data), model.Env{Solver: flatSolver{}})
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()

		Expect(ok).To(BeTrue())
		for _, c := range data.DMUCodes() {
			Expect(ranks[c]).To(Equal(1))
		}
	})

	It("should propagate cancellation", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		m := crs(data)

		first, _, ok, err := PeelTheOnion(ctx, m, model.Env{})
		Expect(err).To(MatchError(context.Canceled))
		Expect(first).To(BeNil())
		Expect(ok).To(BeFalse())
		Expect(m.Comparison()).To(Equal(data.DMUCodes()))
	})

	It("should order equally ranked DMUs by data order", func() {
		twins := makeData([]row{
			{"Z", 1, 1, 1, 1},
			{"Y", 1, 1, 1, 1},
			{"X", 2, 2, 1, 1},
		})
		first, ranks, ok, err := PeelTheOnion(context.Background(), crs(twins), model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer first.Release()
		Expect(ok).To(BeTrue())

		Expect(ranks[code(twins, "Z")]).To(Equal(1))
		Expect(ranks[code(twins, "Y")]).To(Equal(1))
		Expect(ranks[code(twins, "X")]).To(Equal(2))
		Expect(SortedByRank(ranks, twins.DMUCodes())).To(Equal(twins.DMUCodes()))
	})
})

var _ = Describe("CategoricalDecorator", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	It("should reject a category used by the LP", func() {
		_, err := NewCategoricalDecorator(crs(data), "x1")
		Expect(err).To(MatchError(ErrCategoricalCategory))
	})

	It("should reject an unknown category", func() {
		_, err := NewCategoricalDecorator(crs(data), "tier")
		Expect(err).To(MatchError(core.ErrUnknownCategory))
	})

	It("should compare each level against itself and the levels below", func() {
		m, err := NewCategoricalDecorator(crs(data), "level")
		Expect(err).NotTo(HaveOccurred())
		res, err := model.Run(context.Background(), m, model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer res.Release()

		Expect(m.Level(code(data, "C"))).To(Equal(1))
		for _, name := range []string{"A", "C", "D"} {
			c := code(data, name)
			Expect(res.Primary.Score(c)).To(BeNumerically("~", 1, 1e-6), name)
			weights, err := res.Primary.PeerWeights(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(weights).NotTo(HaveKey(code(data, "B")))
			Expect(weights).NotTo(HaveKey(code(data, "E")))
		}
		Expect(res.Primary.Score(code(data, "B"))).To(BeNumerically("~", 1, 1e-6))
		Expect(res.Primary.Score(code(data, "E"))).To(BeNumerically("~", 1, 1e-6))
		Expect(res.Primary.Solved()).To(Equal(data.DMUCodes()))
		Expect(m.Comparison()).To(Equal(data.DMUCodes()))
	})

	It("should respect a narrowed comparison set", func() {
		m, err := NewCategoricalDecorator(crs(data), "level")
		Expect(err).NotTo(HaveOccurred())
		narrowed := []string{code(data, "A"), code(data, "B"), code(data, "C"), code(data, "E")}
		m.SetComparison(narrowed)

		res, err := model.Run(context.Background(), m, model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer res.Release()

		Expect(res.Primary.Solved()).To(Equal(narrowed))
		Expect(m.Comparison()).To(Equal(narrowed))
	})

	It("should merge the two-phase companion", func() {
		slacks, err := model.NewMaxSlacksDecorator(crs(data))
		Expect(err).NotTo(HaveOccurred())
		m, err := NewCategoricalDecorator(slacks, "level")
		Expect(err).NotTo(HaveOccurred())

		res, err := model.Run(context.Background(), m, model.Env{})
		Expect(err).NotTo(HaveOccurred())
		defer res.Release()

		Expect(res.Secondary).NotTo(BeNil())
		Expect(res.Secondary.Solved()).To(Equal(data.DMUCodes()))
		_, ok := res.Secondary.Slacks()
		Expect(ok).To(BeTrue())
	})
})
