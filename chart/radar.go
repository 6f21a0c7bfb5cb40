// Package chart renders the radar chart shown on the dashboard.
package chart

import (
	"image/color"
	"io"
	"math"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// ringStep is the radial distance between grid rings.
const ringStep = 2.0

// DefaultSize is the side of the square image written by Render.
var DefaultSize = 6 * vg.Inch

// Series is one closed trace of the radar chart.
type Series struct {
	Name   string
	Values []float64
}

// Radar is a polar chart with one spoke per category.
type Radar struct {
	Title      string
	Categories []string
	Series     []Series
	// Max is the outer radius. Values are clipped to [0, Max].
	Max float64
}

// NewRadar returns a radar with the display range [0, 10].
func NewRadar(title string, categories []string) *Radar {
	return &Radar{
		Title:      title,
		Categories: append([]string(nil), categories...),
		Max:        10,
	}
}

// AddSeries appends a trace. values must follow Categories.
func (r *Radar) AddSeries(name string, values []float64) error {
	if len(values) != len(r.Categories) {
		return errors.NewDimensionMismatchError("Radar.AddSeries", len(r.Categories), len(values), 0)
	}
	r.Series = append(r.Series, Series{Name: name, Values: append([]float64(nil), values...)})
	return nil
}

func (r *Radar) validate() error {
	if len(r.Categories) < 3 {
		return errors.NewValidationError("categories", "a radar chart needs at least three categories", len(r.Categories))
	}
	if !(r.Max > 0) || math.IsInf(r.Max, 0) {
		return errors.NewValidationError("max", "must be positive and finite", r.Max)
	}
	for _, s := range r.Series {
		if len(s.Values) != len(r.Categories) {
			return errors.NewDimensionMismatchError("Radar."+s.Name, len(r.Categories), len(s.Values), 0)
		}
	}
	return nil
}

// point は i 番目のスポーク上の半径 radius の座標を返す
// 最初のカテゴリを真上に置き、時計回りに並べる
func (r *Radar) point(i int, radius float64) plotter.XY {
	theta := math.Pi/2 - 2*math.Pi*float64(i)/float64(len(r.Categories))
	return plotter.XY{X: radius * math.Cos(theta), Y: radius * math.Sin(theta)}
}

func (r *Radar) clip(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, r.Max)
}

// Plot builds the gonum plot: grid rings, spokes, category labels and one
// filled polygon per series.
func (r *Radar) Plot() (*plot.Plot, error) {
	if err := r.validate(); err != nil {
		return nil, err
	}

	p := plot.New()
	p.Title.Text = r.Title
	p.HideAxes()
	bound := r.Max * 1.35
	p.X.Min, p.X.Max = -bound, bound
	p.Y.Min, p.Y.Max = -bound, bound
	p.Legend.Top = true

	grid := color.Gray{Y: 200}
	k := len(r.Categories)
	for radius := ringStep; radius <= r.Max+1e-9; radius += ringStep {
		ring := make(plotter.XYs, 0, k+1)
		for i := 0; i < k; i++ {
			ring = append(ring, r.point(i, radius))
		}
		ring = append(ring, ring[0])
		line, err := plotter.NewLine(ring)
		if err != nil {
			return nil, errors.Wrap(err, "radar ring")
		}
		line.Color = grid
		p.Add(line)
	}

	labels := plotter.XYLabels{XYs: make(plotter.XYs, k), Labels: make([]string, k)}
	for i, name := range r.Categories {
		spoke, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, r.point(i, r.Max)})
		if err != nil {
			return nil, errors.Wrap(err, "radar spoke")
		}
		spoke.Color = grid
		p.Add(spoke)

		labels.XYs[i] = r.point(i, r.Max*1.12)
		labels.Labels[i] = name
	}
	categoryLabels, err := plotter.NewLabels(labels)
	if err != nil {
		return nil, errors.Wrap(err, "radar labels")
	}
	for i := range categoryLabels.TextStyle {
		categoryLabels.TextStyle[i].XAlign = -0.5
		categoryLabels.TextStyle[i].YAlign = -0.5
	}
	p.Add(categoryLabels)

	for s, series := range r.Series {
		vertices := make(plotter.XYs, k)
		for i, v := range series.Values {
			vertices[i] = r.point(i, r.clip(v))
		}
		poly, err := plotter.NewPolygon(vertices)
		if err != nil {
			return nil, errors.Wrapf(err, "radar series %s", series.Name)
		}
		stroke := plotutil.Color(s)
		fill := color.NRGBAModel.Convert(stroke).(color.NRGBA)
		fill.A = 0x50
		poly.LineStyle.Color = stroke
		poly.LineStyle.Width = vg.Points(1.5)
		poly.Color = fill
		p.Add(poly)
		p.Legend.Add(series.Name, poly)
	}
	return p, nil
}

// Render writes the chart as "svg" or "png" into w.
func (r *Radar) Render(w io.Writer, format string, size vg.Length) (int64, error) {
	format = strings.ToLower(format)
	if format != "svg" && format != "png" {
		return 0, errors.NewValidationError("format", "must be svg or png", format)
	}
	if size <= 0 {
		size = DefaultSize
	}
	p, err := r.Plot()
	if err != nil {
		return 0, err
	}
	wt, err := p.WriterTo(size, size, format)
	if err != nil {
		return 0, errors.Wrap(err, "render radar")
	}
	return wt.WriteTo(w)
}
