package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/araith/godea/internal/logging"
	params "github.com/araith/godea/pkg/config"
)

// EnvPrefix is the prefix of environment variables that override
// parameters, for example DEA_ORIENTATION.
const EnvPrefix = "DEA"

// listSeparator splits list values given as a single string.
const listSeparator = ";"

// keys lists every parameter key with the flag usage text.
var keys = []struct {
	key   string
	usage string
	list  bool
}{
	{key: "orientation", usage: "orientation: input, output or both"},
	{key: "return_to_scale", usage: "returns to scale: CRS, VRS or both"},
	{key: "dea_form", usage: "LP form: env or multi"},
	{key: "use_super_efficiency", usage: "exclude each DMU from its own reference set"},
	{key: "maximize_slacks", usage: "run two-phase slack maximization"},
	{key: "peel_the_onion", usage: "rank DMUs by peeling efficient frontiers"},
	{key: "input_categories", usage: "semicolon-separated input categories", list: true},
	{key: "output_categories", usage: "semicolon-separated output categories", list: true},
	{key: "non_discretionary_categories", usage: "semicolon-separated non-discretionary categories", list: true},
	{key: "weakly_disposal_categories", usage: "semicolon-separated weakly disposable categories", list: true},
	{key: "abs_weight_restrictions", usage: "semicolon-separated absolute weight restrictions", list: true},
	{key: "virtual_weight_restrictions", usage: "semicolon-separated virtual weight restrictions", list: true},
	{key: "price_ratio_restrictions", usage: "semicolon-separated price ratio restrictions", list: true},
	{key: "multiplier_model_tolerance", usage: "lower bound of multiplier weights"},
	{key: "categorical_category", usage: "hierarchy category for categorical stratification"},
	{key: "data_file", usage: "CSV data file"},
	{key: "output_file", usage: "report file"},
}

// FlagName is the command-line flag of a parameter key.
func FlagName(key string) string { return strings.ReplaceAll(key, "_", "-") }

// RegisterFlags adds one flag per parameter to fs. Flags left unset do not
// override the file or the environment.
func RegisterFlags(fs *pflag.FlagSet) {
	d := params.Default()
	for _, k := range keys {
		name := FlagName(k.key)
		switch {
		case k.list:
			fs.String(name, "", k.usage)
		case k.key == "multiplier_model_tolerance":
			fs.Float64(name, d.MultiplierModelTolerance, k.usage)
		case k.key == "use_super_efficiency", k.key == "maximize_slacks", k.key == "peel_the_onion":
			fs.Bool(name, false, k.usage)
		default:
			fs.String(name, "", k.usage)
		}
	}
}

// setDefaults registers default values with v.
func setDefaults(v *viper.Viper) {
	d := params.Default()
	v.SetDefault("orientation", d.Orientation)
	v.SetDefault("return_to_scale", d.ReturnToScale)
	v.SetDefault("dea_form", d.Form)
	v.SetDefault("use_super_efficiency", d.UseSuperEfficiency)
	v.SetDefault("maximize_slacks", d.MaximizeSlacks)
	v.SetDefault("peel_the_onion", d.PeelTheOnion)
	v.SetDefault("multiplier_model_tolerance", d.MultiplierModelTolerance)
	v.SetDefault("categorical_category", d.CategoricalCategory)
	v.SetDefault("data_file", d.DataFile)
	v.SetDefault("output_file", d.OutputFile)
	for _, k := range keys {
		if k.list {
			v.SetDefault(k.key, []string{})
		}
	}
}

// Load reads Parameters from, in increasing priority: defaults, the YAML
// file at path (skipped when empty), DEA_* environment variables and the
// flags of fs that were set. fs may be nil. The result is normalized but
// not validated.
func Load(path string, fs *pflag.FlagSet) (*params.Parameters, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read parameter file %s: %w", path, err)
		}
	}
	if fs != nil {
		for _, k := range keys {
			if f := fs.Lookup(FlagName(k.key)); f != nil {
				if err := v.BindPFlag(k.key, f); err != nil {
					return nil, fmt.Errorf("failed to bind flag %s: %w", f.Name, err)
				}
			}
		}
	}

	p := params.Default()
	hook := viper.DecodeHook(mapstructure.StringToSliceHookFunc(listSeparator))
	if err := v.Unmarshal(p, hook); err != nil {
		return nil, fmt.Errorf("failed to decode parameters: %w", err)
	}
	p.Normalize()

	logging.Log.V(logging.DEBUG).Info("Loaded parameters",
		"file", path,
		"orientation", p.Orientation,
		"returnToScale", p.ReturnToScale,
		"form", p.Form)
	return p, nil
}
