// Package model builds and solves Data Envelopment Analysis linear programs.
//
// A model is one of two base LP builders wrapped in zero or more decorators:
//
//   - EnvelopmentModel: minimize (or maximize) the efficiency multiplier over
//     a convex cone of peer DMUs
//   - MultiplierModel: choose non-negative category weights that favour the
//     evaluated DMU while keeping every peer's weighted ratio at most 1
//
// Decorators embed the Model they wrap and override only what they change:
//
//   - VRSDecorator: variable returns to scale
//   - WeakDisposabilityDecorator, NonDiscretionaryDecorator: category treatment
//   - RestrictionDecorator: absolute, virtual or price-ratio weight bounds
//   - SuperEfficiencyDecorator: exclude the evaluated DMU from its reference set
//   - MaxSlacksDecorator: two-phase slack maximization
//
// Decorators that change which DMUs take part in a run, or how many LPs a
// DMU needs, also implement Runner. RunFor dispatches to the outermost
// Runner and falls back to building the template once and updating it per
// DMU.
//
// Example usage:
//
//	base, err := model.NewEnvelopmentModel(data, model.InputOriented,
//	    model.BoundsFor(model.InputOriented, false))
//	if err != nil {
//	    return err
//	}
//	m := model.NewVRSDecorator(base)
//	res, err := model.Run(ctx, m, model.Env{Solver: solver.NewSimplex()})
//	if err != nil {
//	    return err
//	}
//	defer res.Release()
//	for _, code := range data.DMUCodes() {
//	    log.Info("efficiency", "dmu", data.Name(code), "score", res.Primary.Score(code))
//	}
package model
