package model

import (
	"context"
	"errors"
	"fmt"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

var crsScores = []float64{0.5, 1, 5.0 / 6.0, 5.0 / 7.0, 1}

func expectScores(sol *core.Solution, want []float64) {
	got := scores(sol)
	Expect(got).To(HaveLen(len(want)))
	for i := range want {
		Expect(got[i]).To(BeNumerically("~", want[i], 1e-6), "DMU %d", i)
	}
}

var _ = Describe("Envelopment model", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	Context("with constant returns to scale", func() {
		It("should score the five DMUs", func() {
			res := run(envelopment(data, InputOriented, false))
			defer res.Release()

			Expect(res.Secondary).To(BeNil())
			expectScores(res.Primary, crsScores)
			for _, c := range data.DMUCodes() {
				st, ok := res.Primary.Status(c)
				Expect(ok).To(BeTrue())
				Expect(st).To(Equal(solver.StatusOptimal))
			}
		})

		It("should report B and E as efficient", func() {
			res := run(envelopment(data, InputOriented, false))
			defer res.Release()

			Expect(res.Primary.IsEfficient(code(data, "B"))).To(BeTrue())
			Expect(res.Primary.IsEfficient(code(data, "E"))).To(BeTrue())
			Expect(res.Primary.IsEfficient(code(data, "A"))).To(BeFalse())
		})

		It("should reference only efficient peers", func() {
			res := run(envelopment(data, InputOriented, false))
			defer res.Release()

			weights, err := res.Primary.PeerWeights(code(data, "D"))
			Expect(err).NotTo(HaveOccurred())
			Expect(weights).To(HaveLen(2))
			Expect(weights).To(HaveKey(code(data, "B")))
			Expect(weights).To(HaveKey(code(data, "E")))
		})

		It("should agree with the output orientation", func() {
			res := run(envelopment(data, OutputOriented, false))
			defer res.Release()

			expectScores(res.Primary, crsScores)
		})

		It("should report non-negative duals", func() {
			res := run(envelopment(data, InputOriented, false))
			defer res.Release()

			c := code(data, "A")
			Expect(res.Primary.InputDual(c, "x1")).To(BeNumerically(">=", -1e-9))
			Expect(res.Primary.InputDual(c, "x2")).To(BeNumerically(">=", -1e-9))
			Expect(res.Primary.OutputDual(c, "q")).To(BeNumerically(">", 0))
		})
	})

	Context("with variable returns to scale", func() {
		It("should score every DMU 1", func() {
			res := run(NewVRSDecorator(envelopment(data, InputOriented, false)))
			defer res.Release()

			expectScores(res.Primary, []float64{1, 1, 1, 1, 1})
			_, ok := res.Primary.RTS()
			Expect(ok).To(BeTrue())
		})

		It("should keep peer weights on the convex hull", func() {
			res := run(NewVRSDecorator(envelopment(data, OutputOriented, false)))
			defer res.Release()

			for _, c := range data.DMUCodes() {
				weights, err := res.Primary.PeerWeights(c)
				Expect(err).NotTo(HaveOccurred())
				sum := 0.0
				for _, w := range weights {
					sum += w
				}
				Expect(sum).To(BeNumerically("~", 1, 1e-6))
			}
		})
	})

	Context("when run repeatedly", func() {
		It("should produce identical results", func() {
			m := envelopment(data, InputOriented, false)
			first := run(m)
			defer first.Release()
			second := run(m)
			defer second.Release()

			for _, c := range data.DMUCodes() {
				Expect(second.Primary.Score(c)).To(Equal(first.Primary.Score(c)))
				Expect(second.Primary.InputDual(c, "x1")).To(Equal(first.Primary.InputDual(c, "x1")))
				Expect(second.Primary.OutputDual(c, "q")).To(Equal(first.Primary.OutputDual(c, "q")))
			}
		})
	})

	Context("with a custom DMU order", func() {
		It("should solve in data order", func() {
			var seen []string
			env := Env{Progress: func(c string) { seen = append(seen, c) }}
			codes := data.DMUCodes()
			reversed := []string{codes[4], codes[2], codes[0]}

			res, err := RunFor(context.Background(), envelopment(data, InputOriented, false), env, reversed)
			Expect(err).NotTo(HaveOccurred())
			defer res.Release()

			Expect(seen).To(Equal([]string{codes[0], codes[2], codes[4]}))
			Expect(res.Primary.Solved()).To(Equal(seen))
			Expect(math.IsInf(res.Primary.Score(codes[1]), 1)).To(BeTrue())
		})
	})

	Context("with a cancelled context", func() {
		It("should stop before solving", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			counter := &countingSolver{inner: solver.NewSimplex()}

			_, err := Run(ctx, envelopment(data, InputOriented, false), Env{Solver: counter})
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(counter.calls.Load()).To(BeZero())
		})
	})

	Context("with an unknown DMU", func() {
		It("should fail the update", func() {
			m := envelopment(data, InputOriented, false)
			Expect(m.Update("dmu_0")).To(MatchError(ErrNotBuilt))
			Expect(m.Build()).To(Succeed())
			Expect(m.Update("nope")).To(MatchError(core.ErrUnknownDMU))
		})
	})
})

var _ = Describe("Multiplier model", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	It("should match the envelopment scores", func() {
		res := run(multiplier(data, InputOriented))
		defer res.Release()

		expectScores(res.Primary, crsScores)
	})

	It("should match the envelopment scores in the output orientation", func() {
		res := run(multiplier(data, OutputOriented))
		defer res.Release()

		expectScores(res.Primary, crsScores)
	})

	It("should match under variable returns to scale", func() {
		res := run(NewVRSDecorator(multiplier(data, InputOriented)))
		defer res.Release()

		expectScores(res.Primary, []float64{1, 1, 1, 1, 1})
	})

	It("should normalize the weighted inputs to 1", func() {
		res := run(multiplier(data, InputOriented))
		defer res.Release()

		for _, c := range data.DMUCodes() {
			virtual := res.Primary.InputDual(c, "x1")*data.Coefficient(c, "x1") +
				res.Primary.InputDual(c, "x2")*data.Coefficient(c, "x2")
			Expect(virtual).To(BeNumerically("~", 1, 1e-6))
		}
	})

	It("should reject a negative tolerance", func() {
		_, err := NewMultiplierModel(data, InputOriented, -1)
		Expect(err).To(MatchError(ErrUnsupported))
	})
})

var _ = Describe("Randomized data", func() {
	type combination struct {
		name string
		o    Orientation
		vrs  bool
	}
	combinations := []combination{
		{"input CRS", InputOriented, false},
		{"input VRS", InputOriented, true},
		{"output CRS", OutputOriented, false},
		{"output VRS", OutputOriented, true},
	}
	build := func(m Model, vrs bool) Model {
		if vrs {
			return NewVRSDecorator(m)
		}
		return m
	}

	for seed := uint64(1); seed <= 8; seed++ {
		units := 20 + int(seed*5)%21
		for _, cb := range combinations {
			It(fmt.Sprintf("should solve every DMU in both forms (seed %d, %d DMUs, %s)", seed, units, cb.name), func() {
				data := randomData(seed, units)
				env := run(build(envelopment(data, cb.o, false), cb.vrs))
				defer env.Release()
				multi := run(build(multiplier(data, cb.o), cb.vrs))
				defer multi.Release()

				for _, c := range data.DMUCodes() {
					st, ok := env.Primary.Status(c)
					Expect(ok).To(BeTrue())
					Expect(st).To(Equal(solver.StatusOptimal), "envelopment %s", c)
					st, ok = multi.Primary.Status(c)
					Expect(ok).To(BeTrue())
					Expect(st).To(Equal(solver.StatusOptimal), "multiplier %s", c)
					Expect(multi.Primary.Score(c)).To(BeNumerically("~", env.Primary.Score(c), 1e-6), "DMU %s", c)
				}
			})
		}
	}
})

var _ = Describe("Category decorators", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	It("should reject non-discretionary outputs in the input orientation", func() {
		_, err := NewNonDiscretionaryDecorator(envelopment(data, InputOriented, false), []string{"q"})
		Expect(err).To(MatchError(ErrCategoryRole))
	})

	It("should reject unknown weakly disposable categories", func() {
		_, err := NewWeakDisposabilityDecorator(envelopment(data, InputOriented, false), []string{"x9"})
		Expect(err).To(MatchError(core.ErrUnknownCategory))
	})

	It("should not raise scores when an input is non-discretionary", func() {
		m, err := NewNonDiscretionaryDecorator(envelopment(data, InputOriented, false), []string{"x2"})
		Expect(err).NotTo(HaveOccurred())
		res := run(m)
		defer res.Release()

		for i, c := range data.DMUCodes() {
			Expect(res.Primary.Score(c)).To(BeNumerically("<=", crsScores[i]+1e-6))
		}
	})

	It("should agree across forms for non-discretionary inputs", func() {
		env, err := NewNonDiscretionaryDecorator(envelopment(data, InputOriented, false), []string{"x2"})
		Expect(err).NotTo(HaveOccurred())
		multi, err := NewNonDiscretionaryDecorator(multiplier(data, InputOriented), []string{"x2"})
		Expect(err).NotTo(HaveOccurred())

		a := run(env)
		defer a.Release()
		b := run(multi)
		defer b.Release()
		expectScores(b.Primary, scores(a.Primary))
	})

	It("should not improve scores when an output is weakly disposable", func() {
		m, err := NewWeakDisposabilityDecorator(envelopment(data, InputOriented, false), []string{"q"})
		Expect(err).NotTo(HaveOccurred())
		res := run(m)
		defer res.Release()

		for i, c := range data.DMUCodes() {
			if st, _ := res.Primary.Status(c); st == solver.StatusOptimal {
				Expect(res.Primary.Score(c)).To(BeNumerically(">=", crsScores[i]-1e-6))
			}
		}
	})
})

var _ = Describe("Super-efficiency", func() {
	It("should score efficient DMUs above 1 and leave the rest alone", func() {
		data := makeData(fiveDMUs)
		res := run(NewSuperEfficiencyDecorator(envelopment(data, InputOriented, true)))
		defer res.Release()

		got := scores(res.Primary)
		Expect(got[0]).To(BeNumerically("~", 0.5, 1e-6))
		Expect(got[1]).To(BeNumerically("~", 2, 1e-6))
		Expect(got[2]).To(BeNumerically("~", 5.0/6.0, 1e-6))
		Expect(got[3]).To(BeNumerically("~", 5.0/7.0, 1e-6))
		Expect(got[4]).To(BeNumerically(">", 1))
		Expect(res.Primary.SuperEfficiency()).To(BeTrue())
	})

	It("should agree across forms", func() {
		data := makeData(fiveDMUs)
		env := run(NewSuperEfficiencyDecorator(envelopment(data, InputOriented, true)))
		defer env.Release()
		multi := run(NewSuperEfficiencyDecorator(multiplier(data, InputOriented)))
		defer multi.Release()

		expectScores(multi.Primary, scores(env.Primary))
	})

	It("should exclude the evaluated DMU from its peers", func() {
		data := makeData(fiveDMUs)
		m := NewSuperEfficiencyDecorator(envelopment(data, InputOriented, true))
		res := run(m)
		defer res.Release()

		for _, c := range data.DMUCodes() {
			weights, err := res.Primary.PeerWeights(c)
			Expect(err).NotTo(HaveOccurred())
			Expect(weights).NotTo(HaveKey(c))
		}
		Expect(m.Comparison()).To(Equal(data.DMUCodes()))
	})

	It("should not call the solver for a single DMU", func() {
		data := makeData([]row{{"A", 2, 5, 1}})
		counter := &countingSolver{inner: solver.NewSimplex()}
		m := NewSuperEfficiencyDecorator(NewVRSDecorator(envelopment(data, InputOriented, true)))

		res, err := Run(context.Background(), m, Env{Solver: counter})
		Expect(err).NotTo(HaveOccurred())
		defer res.Release()

		c := code(data, "A")
		Expect(counter.calls.Load()).To(BeZero())
		st, _ := res.Primary.Status(c)
		Expect(st).To(Equal(solver.StatusOptimal))
		Expect(res.Primary.Score(c)).To(Equal(1.0))
		weights, err := res.Primary.PeerWeights(c)
		Expect(err).NotTo(HaveOccurred())
		Expect(weights).To(BeEmpty())
		Expect(res.Primary.InputDual(c, "x1")).To(BeZero())
		Expect(res.Primary.OutputDual(c, "q")).To(BeZero())
		rts, ok := res.Primary.RTS()
		Expect(ok).To(BeTrue())
		Expect(rts.Value(c)).To(BeZero())
	})
})

var _ = Describe("Two-phase slack maximization", func() {
	It("should reject the multiplier form", func() {
		_, err := NewMaxSlacksDecorator(multiplier(makeData(fiveDMUs), InputOriented))
		Expect(err).To(MatchError(ErrTwoPhaseMultiplier))
	})

	It("should leave secondary scores unset for an efficient DMU without slack", func() {
		data := makeData(fiveDMUs)
		m, err := NewMaxSlacksDecorator(envelopment(data, InputOriented, false))
		Expect(err).NotTo(HaveOccurred())
		res := run(m)
		defer res.Release()

		b := code(data, "B")
		Expect(res.Primary.Score(b)).To(BeNumerically("~", 1, 1e-7))
		Expect(res.Secondary).NotTo(BeNil())
		Expect(math.IsInf(res.Secondary.Score(b), 1)).To(BeTrue())
		st, _ := res.Secondary.Status(b)
		Expect(st).To(Equal(solver.StatusOptimal))

		slacks, ok := res.Secondary.Slacks()
		Expect(ok).To(BeTrue())
		for _, category := range []string{"x1", "x2", "q"} {
			Expect(slacks.Value(b, category)).To(BeNumerically("~", 0, 1e-6))
		}
	})

	It("should find the slack of a weakly efficient DMU", func() {
		data := makeData(fiveDMUs)
		m, err := NewMaxSlacksDecorator(NewVRSDecorator(envelopment(data, InputOriented, false)))
		Expect(err).NotTo(HaveOccurred())
		res := run(m)
		defer res.Release()

		a := code(data, "A")
		Expect(res.Primary.Score(a)).To(BeNumerically("~", 1, 1e-6))
		slacks, ok := res.Secondary.Slacks()
		Expect(ok).To(BeTrue())
		Expect(slacks.Value(a, "x1")).To(BeNumerically("~", 0, 1e-6))
		Expect(slacks.Value(a, "x2")).To(BeNumerically("~", 1, 1e-6))
		Expect(slacks.Value(a, "q")).To(BeNumerically("~", 1, 1e-6))

		weights, err := res.Secondary.PeerWeights(a)
		Expect(err).NotTo(HaveOccurred())
		Expect(weights).To(HaveKeyWithValue(code(data, "B"), BeNumerically("~", 1, 1e-6)))
	})
})

var _ = Describe("Weight restrictions", func() {
	var data *core.DataSet

	BeforeEach(func() {
		data = makeData(fiveDMUs)
	})

	orientations := []struct {
		name string
		o    Orientation
	}{
		{"input", InputOriented},
		{"output", OutputOriented},
	}

	restrictions := []struct {
		kind  RestrictionKind
		exprs []string
	}{
		{AbsoluteRestriction, []string{"x1 <= 0.1"}},
		{VirtualRestriction, []string{"x1 <= 0.6"}},
		{PriceRatioRestriction, []string{"x1/x2 <= 2", "x1/x2 >= 0.5"}},
	}

	for _, orientation := range orientations {
		o := orientation.o
		newEnvelopment := func() Model { return envelopment(data, o, false) }
		newMultiplier := func() Model { return multiplier(data, o) }
		forms := []struct {
			name  string
			build func() Model
		}{
			{"envelopment", newEnvelopment},
			{"multiplier", newMultiplier},
		}

		for _, form := range forms {
			build := form.build
			Context("in the "+orientation.name+"-oriented "+form.name+" form", func() {
				It("should keep absolute bounds", func() {
					m, err := NewRestrictionDecorator(build(), AbsoluteRestriction, []string{"x1 <= 0.1"})
					Expect(err).NotTo(HaveOccurred())
					res := run(m)
					defer res.Release()

					for _, c := range data.DMUCodes() {
						if st, _ := res.Primary.Status(c); st != solver.StatusOptimal {
							continue
						}
						Expect(res.Primary.InputDual(c, "x1")).To(BeNumerically("<=", 0.1+1e-6))
					}
				})

				It("should keep virtual bounds", func() {
					m, err := NewRestrictionDecorator(build(), VirtualRestriction, []string{"x1 <= 0.6"})
					Expect(err).NotTo(HaveOccurred())
					res := run(m)
					defer res.Release()

					for _, c := range data.DMUCodes() {
						if st, _ := res.Primary.Status(c); st != solver.StatusOptimal {
							continue
						}
						limit := 0.6 / data.Coefficient(c, "x1")
						Expect(res.Primary.InputDual(c, "x1")).To(BeNumerically("<=", limit+1e-6))
					}
				})

				It("should keep price ratios", func() {
					m, err := NewRestrictionDecorator(build(), PriceRatioRestriction, []string{"x1/x2 <= 2", "x1/x2 >= 0.5"})
					Expect(err).NotTo(HaveOccurred())
					res := run(m)
					defer res.Release()

					for _, c := range data.DMUCodes() {
						if st, _ := res.Primary.Status(c); st != solver.StatusOptimal {
							continue
						}
						v1, v2 := res.Primary.InputDual(c, "x1"), res.Primary.InputDual(c, "x2")
						Expect(v1).To(BeNumerically("<=", 2*v2+1e-6))
						Expect(v1).To(BeNumerically(">=", 0.5*v2-1e-6))
					}
				})

				for _, r := range restrictions {
					It("should not improve unrestricted scores under "+string(r.kind)+" bounds", func() {
						m, err := NewRestrictionDecorator(build(), r.kind, r.exprs)
						Expect(err).NotTo(HaveOccurred())
						res := run(m)
						defer res.Release()

						for i, c := range data.DMUCodes() {
							Expect(res.Primary.Score(c)).To(BeNumerically("<=", crsScores[i]+1e-6))
						}
					})
				}
			})
		}

		for _, r := range restrictions {
			It("should agree across forms for "+string(r.kind)+" bounds in the "+orientation.name+" orientation", func() {
				a, err := NewRestrictionDecorator(newEnvelopment(), r.kind, r.exprs)
				Expect(err).NotTo(HaveOccurred())
				b, err := NewRestrictionDecorator(newMultiplier(), r.kind, r.exprs)
				Expect(err).NotTo(HaveOccurred())

				ra := run(a)
				defer ra.Release()
				rb := run(b)
				defer rb.Release()
				expectScores(rb.Primary, scores(ra.Primary))
			})
		}
	}
})
