package v1alpha1

import (
	"encoding/json"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by Encode.
const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Encode writes r to w in the given format.
func (r *Report) Encode(w io.Writer, format string) error {
	switch format {
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(r)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(r); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("unsupported report format %q (want %s or %s)", format, FormatJSON, FormatYAML)
	}
}

// DecodeReport reads a report written by Encode. YAML is a superset of
// JSON, so both formats are accepted.
func DecodeReport(data []byte) (*Report, error) {
	r := &Report{}
	if err := yaml.Unmarshal(data, r); err != nil {
		return nil, fmt.Errorf("failed to decode report: %w", err)
	}
	return r, nil
}
