// Package config defines the parameter set of a DEA analysis.
//
// Parameters mirrors the recognized option keys (orientation,
// return_to_scale, dea_form, the category lists, the three weight
// restriction lists and so on). It is decoded from YAML or, through
// internal/config, from viper sources.
//
// Example usage:
//
//	params, err := config.ParseParameters(raw)
//	if err != nil {
//	    return err
//	}
//	if err := params.Validate(); err != nil {
//	    for _, e := range multierr.Errors(err) {
//	        log.Error(e, "invalid parameter")
//	    }
//	    return err
//	}
//	for _, spec := range params.Expand() {
//	    log.Info("model", "name", spec.Name(), "description", spec.Describe())
//	}
//
// Expansion:
//
// "both" orientations and returns to scale fan out into one ModelSpec per
// combination, in the order input/output then CRS/VRS.
package config
