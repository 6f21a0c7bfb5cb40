package pipeline

import (
	"github.com/YuminosukeSato/oncolens/chart"
	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/dataset"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/preprocessing"
)

// sliderSteps is the number of slider increments between min and max.
const sliderSteps = 100

// Slider describes one dashboard input.
type Slider struct {
	Name    string  `json:"name"`
	Label   string  `json:"label"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Default float64 `json:"default"`
	Step    float64 `json:"step"`
}

// Display maps raw measurements onto the [0, 10] radar range. Its bounds come
// from the full dataset and are independent of the prediction scaler.
type Display struct {
	schema model.Schema
	scaler *preprocessing.MinMaxScaler
	stats  []dataset.ColumnStats
}

// NewDisplay fits display ranges on every record of ds.
func NewDisplay(ds *dataset.Dataset) (*Display, error) {
	if ds.Len() == 0 {
		return nil, errors.NewModelError("NewDisplay", "no records", errors.ErrEmptyData)
	}
	scaler := preprocessing.NewDisplayScaler(preprocessing.WithFeatureNames(ds.Schema.Names()))
	if err := scaler.Fit(ds.X()); err != nil {
		return nil, err
	}
	stats := make([]dataset.ColumnStats, ds.Schema.Len())
	for j, name := range ds.Schema.Names() {
		s, err := ds.Stats(name)
		if err != nil {
			return nil, err
		}
		stats[j] = s
	}
	return &Display{schema: ds.Schema, scaler: scaler, stats: stats}, nil
}

// Schema returns the feature order of the display.
func (d *Display) Schema() model.Schema {
	return d.schema
}

// ScaleForDisplay returns ((v-min)/(max-min))·10 per feature; a feature whose
// dataset range is zero maps to 0. Values outside the dataset range are not
// clamped, but a value that overflows yields a NumericalInstabilityError.
func (d *Display) ScaleForDisplay(input map[string]float64) (map[string]float64, error) {
	vec, err := d.schema.Vector("Display.ScaleForDisplay", input)
	if err != nil {
		return nil, err
	}
	scaled, err := d.scaler.TransformVector(vec)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("Display.ScaleForDisplay", scaled, 0); err != nil {
		return nil, err
	}
	return d.schema.Map("Display.ScaleForDisplay", scaled)
}

// Sliders returns one slider per feature in schema order. The default is
// the dataset mean and the step is 1/100 of the range, or 0.01 for a
// feature the display scaler treats as constant.
func (d *Display) Sliders() []Slider {
	sliders := make([]Slider, d.schema.Len())
	for j, name := range d.schema.Names() {
		s := d.stats[j]
		step := (s.Max - s.Min) / sliderSteps
		if d.scaler.Degenerate(j) {
			step = 0.01
		}
		sliders[j] = Slider{
			Name:    name,
			Label:   dataset.Title(name),
			Min:     s.Min,
			Max:     s.Max,
			Default: s.Mean,
			Step:    step,
		}
	}
	return sliders
}

// Defaults returns the dataset mean of every feature.
func (d *Display) Defaults() map[string]float64 {
	out := make(map[string]float64, d.schema.Len())
	for j, name := range d.schema.Names() {
		out[name] = d.stats[j].Mean
	}
	return out
}

// traceNames labels the radar series of each variant.
var traceNames = map[string]string{
	"mean":  "Mean Value",
	"se":    "Standard Error",
	"worst": "Worst Value",
}

// Radar builds the three-trace radar chart (mean, standard error, worst) for
// raw measurements. Every feature of the breast-cancer schema must be present.
func (d *Display) Radar(input map[string]float64) (*chart.Radar, error) {
	scaled, err := d.ScaleForDisplay(input)
	if err != nil {
		return nil, err
	}

	categories := make([]string, len(dataset.Measurements))
	for i, m := range dataset.Measurements {
		categories[i] = dataset.MeasurementTitle(m)
	}
	radar := chart.NewRadar("", categories)
	radar.Max = preprocessing.DisplayRange[1]

	for _, variant := range dataset.Variants {
		values := make([]float64, len(dataset.Measurements))
		for i, m := range dataset.Measurements {
			name := dataset.FeatureName(m, variant)
			v, ok := scaled[name]
			if !ok {
				return nil, errors.NewFeatureMismatchError("Display.Radar", len(dataset.Measurements)*len(dataset.Variants),
					len(scaled), []string{name}, nil)
			}
			values[i] = v
		}
		if err := radar.AddSeries(traceNames[variant], values); err != nil {
			return nil, err
		}
	}
	return radar, nil
}
