// Package dataset loads the labelled breast-cancer table and splits it into
// training and test partitions.
package dataset

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// Record is one labelled row. Features are ordered by the dataset schema.
type Record struct {
	Label    int
	Features []float64
}

// Dataset is an in-memory labelled table.
type Dataset struct {
	Schema  model.Schema
	Records []Record
	// Source names where the rows came from, for diagnostics.
	Source string
}

// New validates records against schema and returns a Dataset.
func New(schema model.Schema, records []Record) (*Dataset, error) {
	if schema.Len() == 0 {
		return nil, errors.NewValidationError("schema", "at least one feature is required", nil)
	}
	if len(records) == 0 {
		return nil, errors.NewModelError("dataset.New", "no records", errors.ErrEmptyData)
	}
	for i, r := range records {
		if err := schema.CheckWidth(fmt.Sprintf("dataset.New[%d]", i), len(r.Features)); err != nil {
			return nil, err
		}
		if r.Label != Benign && r.Label != Malignant {
			return nil, errors.NewValidationError("label", "must be 0 or 1", r.Label)
		}
	}
	return &Dataset{Schema: schema, Records: records}, nil
}

// Len returns the number of records.
func (d *Dataset) Len() int {
	return len(d.Records)
}

// X returns the n×d feature matrix.
func (d *Dataset) X() *mat.Dense {
	n, p := len(d.Records), d.Schema.Len()
	X := mat.NewDense(n, p, nil)
	for i, r := range d.Records {
		X.SetRow(i, r.Features)
	}
	return X
}

// Y returns the labels as an n×1 column.
func (d *Dataset) Y() *mat.Dense {
	y := mat.NewDense(len(d.Records), 1, nil)
	for i, r := range d.Records {
		y.Set(i, 0, float64(r.Label))
	}
	return y
}

// Labels returns the labels in record order.
func (d *Dataset) Labels() []int {
	labels := make([]int, len(d.Records))
	for i, r := range d.Records {
		labels[i] = r.Label
	}
	return labels
}

// Column returns a copy of the named feature column.
func (d *Dataset) Column(name string) ([]float64, error) {
	j, ok := d.Schema.Index(name)
	if !ok {
		return nil, errors.NewFeatureMismatchError("Dataset.Column", d.Schema.Len(), 1, nil, []string{name})
	}
	col := make([]float64, len(d.Records))
	for i, r := range d.Records {
		col[i] = r.Features[j]
	}
	return col, nil
}

// ColumnStats summarises one feature column.
type ColumnStats struct {
	Min, Max, Mean float64
}

// Stats returns min, max and mean of the named column.
func (d *Dataset) Stats(name string) (ColumnStats, error) {
	col, err := d.Column(name)
	if err != nil {
		return ColumnStats{}, err
	}
	if len(col) == 0 {
		return ColumnStats{}, errors.NewModelError("Dataset.Stats", "no records", errors.ErrEmptyData)
	}
	s := ColumnStats{Min: col[0], Max: col[0], Mean: stat.Mean(col, nil)}
	for _, v := range col[1:] {
		if v < s.Min {
			s.Min = v
		}
		if v > s.Max {
			s.Max = v
		}
	}
	return s, nil
}

// Subset returns a dataset holding the records at indices, in that order.
// Feature slices are shared with d.
func (d *Dataset) Subset(indices []int) *Dataset {
	records := make([]Record, len(indices))
	for k, i := range indices {
		records[k] = d.Records[i]
	}
	return &Dataset{Schema: d.Schema, Records: records, Source: d.Source}
}

// ClassCounts returns the number of records per label.
func (d *Dataset) ClassCounts() map[int]int {
	counts := make(map[int]int, 2)
	for _, r := range d.Records {
		counts[r.Label]++
	}
	return counts
}
