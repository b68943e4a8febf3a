// Package optimizer runs a complete DEA analysis.
//
// The optimizer sits between the configuration and data layers and the
// model engine. One call to Optimize:
//
//  1. Validates the parameters, reporting every problem at once.
//  2. Expands "both" orientations and returns to scale into concrete
//     model specs.
//  3. Builds a decorated model per spec through the factory.
//  4. Runs each model, or ranks it with peel-the-onion when requested.
//  5. Converts every Solution into an api/v1alpha1 RunReport.
//
// Specs are evaluated concurrently, each on its own model instance; DMUs
// within one spec are always solved in data order.
//
// Example usage:
//
//	opt := optimizer.New(params,
//	    optimizer.WithSession(session),
//	    optimizer.WithMetrics(metrics.New()),
//	)
//	report, err := opt.Optimize(ctx, data, "data.csv")
//	if err != nil {
//	    return err
//	}
//	return report.Encode(os.Stdout, v1alpha1.FormatYAML)
package optimizer
