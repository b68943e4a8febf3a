package model

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	. "github.com/onsi/gomega"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

type row struct {
	name string
	x1   float64
	x2   float64
	q    float64
}

// fiveDMUs is the A-E data set: inputs x1, x2 and output q.
var fiveDMUs = []row{
	{"A", 2, 5, 1},
	{"B", 2, 4, 2},
	{"C", 6, 6, 3},
	{"D", 3, 2, 1},
	{"E", 6, 2, 2},
}

func makeData(rows []row) *core.DataSet {
	d := core.NewDataSet()
	for _, r := range rows {
		Expect(d.AddCoefficient(r.name, "x1", r.x1)).To(Succeed())
		Expect(d.AddCoefficient(r.name, "x2", r.x2)).To(Succeed())
		Expect(d.AddCoefficient(r.name, "q", r.q)).To(Succeed())
	}
	Expect(d.AddInputCategory("x1")).To(Succeed())
	Expect(d.AddInputCategory("x2")).To(Succeed())
	Expect(d.AddOutputCategory("q")).To(Succeed())
	return d
}

func scores(sol *core.Solution) []float64 {
	var out []float64
	for _, code := range sol.Data().DMUCodes() {
		out = append(out, sol.Score(code))
	}
	return out
}

func code(d *core.DataSet, name string) string {
	c, ok := d.Code(name)
	Expect(ok).To(BeTrue(), "unknown DMU %s", name)
	return c
}

// countingSolver counts Solve calls on the wrapped solver.
type countingSolver struct {
	inner solver.Solver
	calls atomic.Int32
}

func (c *countingSolver) Solve(ctx context.Context, p *solver.Problem) (*solver.Result, error) {
	c.calls.Add(1)
	return c.inner.Solve(ctx, p)
}

func envelopment(d *core.DataSet, o Orientation, super bool) Model {
	m, err := NewEnvelopmentModel(d, o, BoundsFor(o, super))
	Expect(err).NotTo(HaveOccurred())
	return m
}

func multiplier(d *core.DataSet, o Orientation) Model {
	m, err := NewMultiplierModel(d, o, 0)
	Expect(err).NotTo(HaveOccurred())
	return m
}

func run(m Model) *Result {
	res, err := Run(context.Background(), m, Env{})
	Expect(err).NotTo(HaveOccurred())
	return res
}

// randomData builds units DMUs with three inputs and two outputs drawn
// uniformly from [1, 10).
func randomData(seed uint64, units int) *core.DataSet {
	rng := rand.New(rand.NewPCG(seed, seed))
	inputs := []string{"x1", "x2", "x3"}
	outputs := []string{"y1", "y2"}
	d := core.NewDataSet()
	for j := 0; j < units; j++ {
		name := fmt.Sprintf("D%d", j)
		for _, c := range append(append([]string(nil), inputs...), outputs...) {
			Expect(d.AddCoefficient(name, c, 1+9*rng.Float64())).To(Succeed())
		}
	}
	for _, c := range inputs {
		Expect(d.AddInputCategory(c)).To(Succeed())
	}
	for _, c := range outputs {
		Expect(d.AddOutputCategory(c)).To(Succeed())
	}
	return d
}
