/*
Copyright 2025 The godea Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package e2e

import (
	"context"
	"math"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/araith/godea/api/v1alpha1"
	"github.com/araith/godea/internal/datasource"
	"github.com/araith/godea/internal/optimizer"
	"github.com/araith/godea/internal/weightstore"
	"github.com/araith/godea/pkg/config"
	"github.com/araith/godea/pkg/core"
)

const tolerance = 1e-6

func baseParameters() *config.Parameters {
	p := config.Default()
	p.InputCategories = []string{"land", "labour"}
	p.OutputCategories = []string{"wheat", "milk"}
	p.DataFile = dataPath
	return p
}

func analyse(ctx context.Context, p *config.Parameters, opts ...optimizer.Option) *v1alpha1.Report {
	GinkgoHelper()
	data, err := datasource.NewCSVFile(p.DataFile).Load(ctx, datasource.Roles{
		Inputs:  p.InputCategories,
		Outputs: p.OutputCategories,
	})
	Expect(err).NotTo(HaveOccurred())
	report, err := optimizer.New(p, opts...).Optimize(ctx, data, p.DataFile)
	Expect(err).NotTo(HaveOccurred())
	Expect(report.Runs).NotTo(BeEmpty())
	return report
}

func mustRun(report *v1alpha1.Report, name string) *v1alpha1.RunReport {
	GinkgoHelper()
	run, ok := report.Run(name)
	Expect(ok).To(BeTrue(), "run %s missing", name)
	Expect(run.DMUs).To(HaveLen(8))
	return run
}

var _ = Describe("Efficiency analysis", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	It("should give the same scores in both LP forms", func() {
		p := baseParameters()
		p.Orientation = config.Both
		p.ReturnToScale = config.Both
		env := analyse(ctx, p)

		p.Form = config.FormMultiplier
		multi := analyse(ctx, p)
		Expect(multi.Runs).To(HaveLen(len(env.Runs)))

		for i, run := range env.Runs {
			other := multi.Runs[i]
			By("comparing " + run.Name + " with " + other.Name)
			for j, d := range run.DMUs {
				Expect(other.DMUs[j].Name).To(Equal(d.Name))
				Expect(other.DMUs[j].ScoreValue()).To(BeNumerically("~", d.ScoreValue(), tolerance), d.Name)
			}
		}
	})

	It("should keep scores inside their domain", func() {
		p := baseParameters()
		p.Orientation = config.Both
		p.ReturnToScale = config.Both
		for _, run := range analyse(ctx, p).Runs {
			for _, d := range run.DMUs {
				Expect(d.Status).To(Equal("optimal"), "%s %s", run.Name, d.Name)
				Expect(d.ScoreValue()).To(And(
					BeNumerically(">=", 0),
					BeNumerically("<=", 1+tolerance),
				), "%s %s", run.Name, d.Name)
			}
		}
	})

	It("should make VRS peer weights convex and VRS scores dominate CRS", func() {
		p := baseParameters()
		p.ReturnToScale = config.Both
		report := analyse(ctx, p)
		crs := mustRun(report, "input-CRS-env")
		vrs := mustRun(report, "input-VRS-env")

		for i, d := range vrs.DMUs {
			sum := 0.0
			for _, w := range d.Peers {
				sum += w
			}
			Expect(sum).To(BeNumerically("~", 1, tolerance), d.Name)
			Expect(d.ReturnsToScale).NotTo(BeNil(), d.Name)
			Expect(d.ScoreValue()).To(BeNumerically(">=", crs.DMUs[i].ScoreValue()-tolerance), d.Name)
		}
	})

	It("should lift only efficient DMUs under super-efficiency", func() {
		p := baseParameters()
		plain := mustRun(analyse(ctx, p), "input-CRS-env")

		p.UseSuperEfficiency = true
		super := mustRun(analyse(ctx, p), "input-CRS-env")

		for i, d := range plain.DMUs {
			s := super.DMUs[i]
			Expect(s.Peers).NotTo(HaveKey(d.Name), "a DMU must not be its own peer")
			if d.Efficient {
				Expect(s.ScoreValue()).To(BeNumerically(">=", 1-tolerance), d.Name)
				continue
			}
			Expect(s.ScoreValue()).To(BeNumerically("~", d.ScoreValue(), tolerance), d.Name)
		}
	})

	It("should rank exactly the efficient DMUs first", func() {
		p := baseParameters()
		p.PeelTheOnion = true
		run := mustRun(analyse(ctx, p), "input-CRS-env")

		Expect(run.Ranking).NotTo(BeNil())
		Expect(run.Ranking.Complete).To(BeTrue())
		Expect(run.Ranking.Rounds).To(BeNumerically(">=", 2))
		for _, d := range run.DMUs {
			Expect(d.Rank).NotTo(BeNil(), d.Name)
			Expect(*d.Rank).To(BeNumerically(">=", 1), d.Name)
			Expect(*d.Rank == 1).To(Equal(d.Efficient), d.Name)
		}
	})

	It("should report non-negative slacks with two-phase slack maximization", func() {
		p := baseParameters()
		p.ReturnToScale = config.ReturnsVariable
		p.MaximizeSlacks = true
		run := mustRun(analyse(ctx, p), "input-VRS-env")

		for _, d := range run.DMUs {
			for category, s := range d.Slacks {
				Expect(s).To(BeNumerically(">=", -tolerance), "%s %s", d.Name, category)
			}
		}
	})

	It("should keep the duals of restricted categories in bounds", func() {
		p := baseParameters()
		p.AbsWeightRestrictions = []string{"land <= 0.1"}
		p.PriceRatioRestrictions = []string{"wheat/milk >= 0.5"}
		for _, form := range []string{config.FormEnvelopment, config.FormMultiplier} {
			p.Form = form
			run := mustRun(analyse(ctx, p), "input-CRS-"+form)
			for _, d := range run.DMUs {
				if d.Status != "optimal" {
					continue
				}
				Expect(d.InputDuals["land"]).To(BeNumerically("<=", 0.1+tolerance), "%s %s", form, d.Name)
				Expect(d.OutputDuals["wheat"]).To(BeNumerically(">=", 0.5*d.OutputDuals["milk"]-tolerance), "%s %s", form, d.Name)
			}
		}
	})

	It("should compare DMUs only within their tier or below", func() {
		p := baseParameters()
		p.CategoricalCategory = "tier"
		run := mustRun(analyse(ctx, p), "input-CRS-env")

		for _, d := range run.DMUs {
			Expect(d.Level).NotTo(BeNil(), d.Name)
			if *d.Level != 1 {
				continue
			}
			for peer := range d.Peers {
				p, ok := run.DMU(peer)
				Expect(ok).To(BeTrue())
				Expect(*p.Level).To(Equal(1), "%s references tier %d peer %s", d.Name, *p.Level, peer)
			}
		}
	})

	It("should release spilled peer weights after the analysis", func() {
		store, err := weightstore.OpenSQLite(ctx, filepath.Join(GinkgoT().TempDir(), "weights.db"))
		Expect(err).NotTo(HaveOccurred())
		DeferCleanup(store.Close)

		p := baseParameters()
		p.Orientation = config.Both
		session := core.NewSession(
			core.WithIDSource(&core.CounterSource{Prefix: "run-"}),
			core.WithStoreFactory(store.Factory()),
		)
		report := analyse(ctx, p, optimizer.WithSession(session))

		ids := []string{report.Runs[0].SolutionID, report.Runs[1].SolutionID}
		Expect(ids).To(ConsistOf("run-1", "run-2"))
		for _, run := range report.Runs {
			d := run.DMUs[0]
			Expect(math.IsNaN(d.ScoreValue())).To(BeFalse())
		}

		runs, err := store.Runs(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(runs).To(BeEmpty())
	})
})
