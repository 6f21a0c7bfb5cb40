package model

import (
	"sort"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// Schema is the ordered list of feature names a scaler or model was fitted on.
// It travels with every persisted artifact so that inference can check feature
// order by name instead of trusting map or column order.
type Schema struct {
	names []string
	index map[string]int
}

// NewSchema builds a schema from ordered, unique, non-empty feature names.
func NewSchema(names ...string) (Schema, error) {
	if len(names) == 0 {
		return Schema{}, errors.NewValidationError("schema", "at least one feature is required", names)
	}
	index := make(map[string]int, len(names))
	for i, name := range names {
		if name == "" {
			return Schema{}, errors.NewValidationError("schema", "feature name must not be empty", i)
		}
		if _, dup := index[name]; dup {
			return Schema{}, errors.NewValidationError("schema", "duplicate feature name", name)
		}
		index[name] = i
	}
	return Schema{names: append([]string(nil), names...), index: index}, nil
}

// MustSchema is NewSchema for compile-time feature lists; it panics on error.
func MustSchema(names ...string) Schema {
	s, err := NewSchema(names...)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns a copy of the ordered feature names.
func (s Schema) Names() []string {
	return append([]string(nil), s.names...)
}

// Len returns the number of features.
func (s Schema) Len() int {
	return len(s.names)
}

// Name returns the i-th feature name.
func (s Schema) Name(i int) string {
	return s.names[i]
}

// Index returns the position of name in the schema.
func (s Schema) Index(name string) (int, bool) {
	i, ok := s.index[name]
	return i, ok
}

// Equal reports whether both schemas list the same names in the same order.
func (s Schema) Equal(other Schema) bool {
	if len(s.names) != len(other.names) {
		return false
	}
	for i := range s.names {
		if s.names[i] != other.names[i] {
			return false
		}
	}
	return true
}

// CheckWidth returns a DimensionMismatchError if n differs from the schema length.
func (s Schema) CheckWidth(op string, n int) error {
	if n != len(s.names) {
		return errors.NewDimensionMismatchError(op, len(s.names), n, 1)
	}
	return nil
}

// Vector orders values by the schema. Every schema feature must be present
// and no other key is accepted.
func (s Schema) Vector(op string, values map[string]float64) ([]float64, error) {
	vec := make([]float64, len(s.names))
	var missing, unexpected []string
	for i, name := range s.names {
		v, ok := values[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		vec[i] = v
	}
	for name := range values {
		if _, ok := s.index[name]; !ok {
			unexpected = append(unexpected, name)
		}
	}
	if len(missing) > 0 || len(unexpected) > 0 {
		sort.Strings(unexpected)
		return nil, errors.NewFeatureMismatchError(op, len(s.names), len(values), missing, unexpected)
	}
	return vec, nil
}

// Map is the inverse of Vector.
func (s Schema) Map(op string, vec []float64) (map[string]float64, error) {
	if err := s.CheckWidth(op, len(vec)); err != nil {
		return nil, err
	}
	out := make(map[string]float64, len(vec))
	for i, name := range s.names {
		out[name] = vec[i]
	}
	return out, nil
}
