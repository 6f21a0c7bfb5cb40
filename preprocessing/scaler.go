package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// degenerateTol is the spread below which a feature is treated as constant.
const degenerateTol = 1e-8

var (
	_ model.Transformer = (*StandardScaler)(nil)
	_ model.Transformer = (*MinMaxScaler)(nil)
)

// StandardScaler はscikit-learn互換の標準化スケーラー
// データを平均0、標準偏差1に変換する
type StandardScaler struct {
	model.BaseEstimator

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（母標準偏差）
	Scale []float64

	// NFeatures は特徴量の数
	NFeatures int

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool

	strictVariance bool
	featureNames   []string
}

// ScalerOption configures optional behaviour of the scalers.
type ScalerOption func(*scalerOptions)

type scalerOptions struct {
	strict       bool
	featureNames []string
}

// WithStrictVariance makes Fit fail with a DegenerateFeatureError on a
// constant feature instead of substituting a neutral scale and warning.
func WithStrictVariance(strict bool) ScalerOption {
	return func(o *scalerOptions) {
		o.strict = strict
	}
}

// WithFeatureNames names the columns in degenerate-feature diagnostics.
func WithFeatureNames(names []string) ScalerOption {
	return func(o *scalerOptions) {
		o.featureNames = append([]string(nil), names...)
	}
}

func applyScalerOptions(opts []ScalerOption) scalerOptions {
	var o scalerOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewStandardScaler(withMean, withStd bool, opts ...ScalerOption) *StandardScaler {
	o := applyScalerOptions(opts)
	return &StandardScaler{
		WithMean:       withMean,
		WithStd:        withStd,
		strictVariance: o.strict,
		featureNames:   o.featureNames,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault(opts ...ScalerOption) *StandardScaler {
	return NewStandardScaler(true, true, opts...)
}

// NewStandardScalerFromParams rebuilds a fitted scaler from persisted
// statistics. Every scale must be finite and strictly positive.
func NewStandardScalerFromParams(mean, scale []float64) (*StandardScaler, error) {
	if len(mean) == 0 {
		return nil, errors.NewModelError("NewStandardScalerFromParams", "empty parameters", errors.ErrEmptyData)
	}
	if len(mean) != len(scale) {
		return nil, errors.NewDimensionMismatchError("NewStandardScalerFromParams", len(mean), len(scale), 1)
	}
	for j := range mean {
		if math.IsNaN(mean[j]) || math.IsInf(mean[j], 0) {
			return nil, errors.NewValidationError("mean", "must be finite", mean[j])
		}
		if !(scale[j] > 0) || math.IsInf(scale[j], 0) {
			return nil, errors.NewValidationError("scale", "must be finite and positive", scale[j])
		}
	}
	s := NewStandardScalerDefault()
	s.Mean = append([]float64(nil), mean...)
	s.Scale = append([]float64(nil), scale...)
	s.NFeatures = len(mean)
	s.SetFitted()
	return s, nil
}

// Fit は訓練データから統計情報（平均、母標準偏差）を計算する
//
// A feature whose standard deviation is below 1e-8 gets scale 1 so Transform
// never divides by zero; the condition is reported through errors.Warn, or
// returned when the scaler was built with WithStrictVariance(true).
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("StandardScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if s.featureNames != nil && len(s.featureNames) != c {
		return errors.NewDimensionMismatchError("StandardScaler.Fit", len(s.featureNames), c, 1)
	}

	mean := make([]float64, c)
	scale := make([]float64, c)
	col := make([]float64, r)

	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		m, std := stat.PopMeanStdDev(col, nil)

		if s.WithMean {
			mean[j] = m
		}

		scale[j] = 1.0
		if !s.WithStd {
			continue
		}
		if std < degenerateTol {
			err := errors.NewDegenerateFeatureError("StandardScaler.Fit", s.featureName(j), j, "zero variance")
			if s.strictVariance {
				return err
			}
			errors.Warn(err)
			continue
		}
		scale[j] = std
	}

	s.Mean = mean
	s.Scale = scale
	s.NFeatures = c
	s.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionMismatchError("StandardScaler.Transform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	}, X)
	return result, nil
}

// TransformVector standardizes a single feature vector.
func (s *StandardScaler) TransformVector(x []float64) ([]float64, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "TransformVector")
	}
	if len(x) != s.NFeatures {
		return nil, errors.NewDimensionMismatchError("StandardScaler.TransformVector", s.NFeatures, len(x), 1)
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = (v - s.Mean[j]) / s.Scale[j]
	}
	return out, nil
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	r, c := X.Dims()
	if c != s.NFeatures {
		return nil, errors.NewDimensionMismatchError("StandardScaler.InverseTransform", s.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return v*s.Scale[j] + s.Mean[j]
	}, X)
	return result, nil
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, s.NFeatures)
}

func (s *StandardScaler) featureName(j int) string {
	if j < len(s.featureNames) {
		return s.featureNames[j]
	}
	return ""
}

// DisplayRange is the output range used by the dashboard radar chart and sliders.
var DisplayRange = [2]float64{0, 10}

// MinMaxScaler はscikit-learn互換のMin-Maxスケーラー
// データを指定した範囲（デフォルト[0,1]）にスケーリングする
//
// A constant feature (max == min) maps every input to the lower bound of
// FeatureRange instead of dividing by zero.
type MinMaxScaler struct {
	model.BaseEstimator

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// DataRange は各特徴量の (max - min)。定数特徴量では 0
	DataRange []float64

	// NFeatures は特徴量の数
	NFeatures int

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64

	featureNames []string
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	err := scaler.Fit(X)
//	XScaled, err := scaler.Transform(X)
func NewMinMaxScaler(featureRange [2]float64, opts ...ScalerOption) *MinMaxScaler {
	o := applyScalerOptions(opts)
	return &MinMaxScaler{
		FeatureRange: featureRange,
		featureNames: o.featureNames,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault(opts ...ScalerOption) *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0}, opts...)
}

// NewDisplayScaler returns a MinMaxScaler onto DisplayRange.
func NewDisplayScaler(opts ...ScalerOption) *MinMaxScaler {
	return NewMinMaxScaler(DisplayRange, opts...)
}

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	r, c := X.Dims()
	if r == 0 || c == 0 {
		return errors.NewModelError("MinMaxScaler.Fit", "empty data", errors.ErrEmptyData)
	}
	if !(m.FeatureRange[0] < m.FeatureRange[1]) {
		return errors.NewValidationError("feature_range", "minimum must be smaller than maximum", m.FeatureRange)
	}
	if m.featureNames != nil && len(m.featureNames) != c {
		return errors.NewDimensionMismatchError("MinMaxScaler.Fit", len(m.featureNames), c, 1)
	}

	m.NFeatures = c
	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.DataRange = make([]float64, c)

	col := make([]float64, r)
	for j := 0; j < c; j++ {
		mat.Col(col, j, X)
		lo, hi := col[0], col[0]
		for _, v := range col[1:] {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi

		if hi-lo < degenerateTol {
			name := ""
			if j < len(m.featureNames) {
				name = m.featureNames[j]
			}
			errors.Warn(errors.NewDegenerateFeatureError("MinMaxScaler.Fit", name, j, "zero range"))
			continue
		}
		m.DataRange[j] = hi - lo
	}

	m.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "Transform")
	}

	r, c := X.Dims()
	if c != m.NFeatures {
		return nil, errors.NewDimensionMismatchError("MinMaxScaler.Transform", m.NFeatures, c, 1)
	}

	result := mat.NewDense(r, c, nil)
	result.Apply(func(_, j int, v float64) float64 {
		return m.scale(j, v)
	}, X)
	return result, nil
}

// TransformVector scales a single feature vector.
func (m *MinMaxScaler) TransformVector(x []float64) ([]float64, error) {
	if !m.IsFitted() {
		return nil, errors.NewNotFittedError("MinMaxScaler", "TransformVector")
	}
	if len(x) != m.NFeatures {
		return nil, errors.NewDimensionMismatchError("MinMaxScaler.TransformVector", m.NFeatures, len(x), 1)
	}
	out := make([]float64, len(x))
	for j, v := range x {
		out[j] = m.scale(j, v)
	}
	return out, nil
}

// X_scaled = (X - X.min) / (X.max - X.min) * (max - min) + min
// Degenerate reports whether feature j had a range below 1e-8 during Fit.
// Such a feature always scales to the lower bound of FeatureRange.
func (m *MinMaxScaler) Degenerate(j int) bool {
	return m.DataRange[j] == 0
}

func (m *MinMaxScaler) scale(j int, v float64) float64 {
	if m.Degenerate(j) {
		return m.FeatureRange[0]
	}
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return (v-m.DataMin[j])/m.DataRange[j]*width + m.FeatureRange[0]
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], m.NFeatures)
}
