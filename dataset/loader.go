package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// Loader reads the labelled CSV table.
type Loader struct {
	schema      model.Schema
	labelColumn string
	dropColumns map[string]bool
}

// LoaderOption configures a Loader.
type LoaderOption func(*Loader)

// WithSchema sets the expected feature columns and their order.
func WithSchema(schema model.Schema) LoaderOption {
	return func(l *Loader) {
		l.schema = schema
	}
}

// WithLabelColumn sets the name of the diagnosis column.
func WithLabelColumn(name string) LoaderOption {
	return func(l *Loader) {
		l.labelColumn = name
	}
}

// WithDropColumns names extra columns to ignore besides id and unnamed ones.
func WithDropColumns(names ...string) LoaderOption {
	return func(l *Loader) {
		for _, n := range names {
			l.dropColumns[n] = true
		}
	}
}

// NewLoader returns a Loader for the breast-cancer schema.
func NewLoader(opts ...LoaderOption) *Loader {
	l := &Loader{
		schema:      BreastCancerSchema(),
		labelColumn: DefaultLabelColumn,
		dropColumns: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Schema returns the feature schema the loader expects.
func (l *Loader) Schema() model.Schema {
	return l.schema
}

// Load reads the CSV file at path. The file is only read.
func (l *Loader) Load(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()
	return l.Read(f, path)
}

// Read parses CSV rows from r. source is used in error messages.
func (l *Loader) Read(r io.Reader, source string) (*Dataset, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, errors.NewDataFormatError(source, 0, "", "empty file")
	}
	if err != nil {
		return nil, csvError(source, err)
	}

	labelIdx, featureIdx, err := l.resolveColumns(source, header)
	if err != nil {
		return nil, err
	}

	var records []Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, csvError(source, err)
		}
		line, _ := cr.FieldPos(0)

		label, err := ParseLabel(row[labelIdx])
		if err != nil {
			return nil, errors.NewDataFormatError(source, line, l.labelColumn, err.Error())
		}
		features := make([]float64, len(featureIdx))
		for j, col := range featureIdx {
			v, err := parseValue(row[col])
			if err != nil {
				return nil, errors.NewDataFormatError(source, line, l.schema.Name(j), err.Error())
			}
			features[j] = v
		}
		records = append(records, Record{Label: label, Features: features})
	}

	if len(records) == 0 {
		return nil, errors.NewDataFormatError(source, 0, "", "no data rows")
	}
	return &Dataset{Schema: l.schema, Records: records, Source: source}, nil
}

// resolveColumns maps the header onto the label column and schema order.
func (l *Loader) resolveColumns(source string, header []string) (int, []int, error) {
	labelIdx := -1
	featureIdx := make([]int, l.schema.Len())
	for j := range featureIdx {
		featureIdx[j] = -1
	}

	for i, raw := range header {
		name := strings.TrimSpace(raw)
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		switch {
		case l.isDropped(name):
			continue
		case name == l.labelColumn:
			if labelIdx >= 0 {
				return 0, nil, errors.NewDataFormatError(source, 1, name, "duplicate column")
			}
			labelIdx = i
			continue
		}
		j, ok := l.schema.Index(name)
		if !ok {
			return 0, nil, errors.NewDataFormatError(source, 1, name, "unexpected column")
		}
		if featureIdx[j] >= 0 {
			return 0, nil, errors.NewDataFormatError(source, 1, name, "duplicate column")
		}
		featureIdx[j] = i
	}

	if labelIdx < 0 {
		return 0, nil, errors.NewDataFormatError(source, 1, l.labelColumn, "label column is missing")
	}
	var missing []string
	for j, idx := range featureIdx {
		if idx < 0 {
			missing = append(missing, l.schema.Name(j))
		}
	}
	if len(missing) > 0 {
		return 0, nil, errors.NewDataFormatError(source, 1, "",
			fmt.Sprintf("missing feature columns %v", missing))
	}
	return labelIdx, featureIdx, nil
}

// isDropped reports whether a header names an index, unnamed or configured column.
func (l *Loader) isDropped(name string) bool {
	return name == "" ||
		strings.EqualFold(name, "id") ||
		strings.HasPrefix(name, "Unnamed") ||
		l.dropColumns[name]
}

// ParseLabel maps a diagnosis value to a class label. M, malignant and 1 are
// malignant; B, benign and 0 are benign. Matching ignores case and spaces.
func ParseLabel(s string) (int, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "m", "malignant", "1":
		return Malignant, nil
	case "b", "benign", "0":
		return Benign, nil
	default:
		return 0, errors.Newf("unknown label %q", s)
	}
}

func parseValue(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, errors.Newf("%q is not a number", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.Newf("%q is not finite", s)
	}
	return v, nil
}

// csvError converts encoding/csv parse errors into DataFormatErrors.
func csvError(source string, err error) error {
	var pe *csv.ParseError
	if errors.As(err, &pe) {
		return errors.NewDataFormatError(source, pe.Line, "", pe.Err.Error())
	}
	return errors.Wrapf(err, "read dataset %s", source)
}
