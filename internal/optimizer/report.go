package optimizer

import (
	"k8s.io/utils/ptr"

	"github.com/araith/godea/api/v1alpha1"
	"github.com/araith/godea/internal/engines/model"
	"github.com/araith/godea/internal/engines/ranking"
	"github.com/araith/godea/pkg/config"
	"github.com/araith/godea/pkg/core"
	"github.com/araith/godea/pkg/solver"
)

// newRunReport converts the solutions of one run. ranks is nil unless the
// run was ranked.
func newRunReport(spec config.ModelSpec, m model.Model, res *model.Result, ranks map[string]int) (*v1alpha1.RunReport, error) {
	primary := res.Primary
	data := primary.Data()
	run := &v1alpha1.RunReport{
		Name:        spec.Name(),
		Description: spec.Describe(),
		SolutionID:  primary.ID(),
	}
	categorical, _ := m.(*ranking.CategoricalDecorator)

	for _, code := range primary.Solved() {
		status, _ := primary.Status(code)
		d := v1alpha1.DMUResult{Name: data.Name(code), Status: status.String()}
		if ranks != nil {
			d.Rank = ptr.To(ranks[code])
		}
		if categorical != nil {
			d.Level = ptr.To(categorical.Level(code))
		}
		if status == solver.StatusOptimal {
			if err := fillOptimal(&d, primary, code); err != nil {
				return nil, err
			}
			if res.Secondary != nil {
				fillSlacks(&d, res.Secondary, code)
			}
		}
		run.DMUs = append(run.DMUs, d)
	}
	return run, nil
}

func fillOptimal(d *v1alpha1.DMUResult, sol *core.Solution, code string) error {
	data := sol.Data()
	d.SetScore(sol.Score(code))
	d.Efficient = sol.IsEfficient(code)

	weights, err := sol.PeerWeights(code)
	if err != nil {
		return err
	}
	if len(weights) > 0 {
		d.Peers = make(map[string]float64, len(weights))
		for peer, w := range weights {
			d.Peers[data.Name(peer)] = w
		}
	}

	d.InputDuals = make(map[string]float64)
	for _, c := range data.InputCategories() {
		d.InputDuals[c] = sol.InputDual(code, c)
	}
	d.OutputDuals = make(map[string]float64)
	for _, c := range data.OutputCategories() {
		d.OutputDuals[c] = sol.OutputDual(code, c)
	}
	if rts, ok := sol.RTS(); ok {
		d.ReturnsToScale = ptr.To(rts.Value(code))
	}
	return nil
}

func fillSlacks(d *v1alpha1.DMUResult, secondary *core.Solution, code string) {
	if st, ok := secondary.Status(code); !ok || st != solver.StatusOptimal {
		return
	}
	slacks, ok := secondary.Slacks()
	if !ok {
		return
	}
	if values := slacks.ForDMU(code); len(values) > 0 {
		d.Slacks = values
	}
}
