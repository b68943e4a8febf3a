package datasource

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/araith/godea/internal/logging"
	"github.com/araith/godea/pkg/core"
)

// ErrMalformedCSV is returned for CSV input that cannot be read as a data set.
var ErrMalformedCSV = errors.New("malformed data CSV")

// CSVSource reads a data set from CSV. The first row is the header: a DMU
// name column followed by one column per category. Each following row is
// one DMU.
type CSVSource struct {
	path   string
	reader io.Reader
}

var _ Source = (*CSVSource)(nil)

// NewCSVFile reads from the file at path.
func NewCSVFile(path string) *CSVSource { return &CSVSource{path: path} }

// NewCSVReader reads from r, which is consumed by the first Load.
func NewCSVReader(name string, r io.Reader) *CSVSource {
	return &CSVSource{path: name, reader: r}
}

func (s *CSVSource) Name() string { return s.path }

func (s *CSVSource) Load(ctx context.Context, roles Roles) (*core.DataSet, error) {
	r := s.reader
	if r == nil {
		f, err := os.Open(s.path)
		if err != nil {
			return nil, fmt.Errorf("csv: open %s: %w", s.path, err)
		}
		defer f.Close() //nolint:errcheck
		r = f
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %w", ErrMalformedCSV, s.path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s is empty (no header row)", ErrMalformedCSV, s.path)
	}

	headers := records[0]
	if len(headers) < 2 {
		return nil, fmt.Errorf("%w: %s needs a DMU column and at least one category", ErrMalformedCSV, s.path)
	}
	for i := range headers {
		headers[i] = strings.TrimSpace(headers[i])
	}

	data := core.NewDataSet()
	for i, record := range records[1:] {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if blank(record) {
			continue
		}
		if len(record) != len(headers) {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrMalformedCSV, i+2, len(record), len(headers))
		}
		name := strings.TrimSpace(record[0])
		for j, category := range headers[1:] {
			raw := strings.TrimSpace(record[j+1])
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("%w: row %d, column %q: %q is not a number", ErrMalformedCSV, i+2, category, raw)
			}
			if err := data.AddCoefficient(name, category, value); err != nil {
				return nil, fmt.Errorf("row %d: %w", i+2, err)
			}
		}
	}

	for _, c := range roles.Inputs {
		if err := data.AddInputCategory(c); err != nil {
			return nil, err
		}
	}
	for _, c := range roles.Outputs {
		if err := data.AddOutputCategory(c); err != nil {
			return nil, err
		}
	}
	if err := data.Validate(); err != nil {
		return nil, err
	}

	logging.FromContext(ctx).V(logging.DEBUG).Info("Loaded data set",
		"source", s.path,
		"dmus", data.Len(),
		"categories", len(data.Categories()))
	return data, nil
}

func blank(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
