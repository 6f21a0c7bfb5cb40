package preprocessing

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

func captureWarnings(t *testing.T) *[]error {
	t.Helper()
	var got []error
	errors.SetWarningHandler(func(w error) { got = append(got, w) })
	t.Cleanup(func() { errors.SetWarningHandler(func(error) {}) })
	return &got
}

func TestStandardScaler_FitTransform(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 100,
		2, 200,
		3, 300,
		4, 500,
	})

	s := NewStandardScalerDefault()
	Xs, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}

	// 各列の平均は0、母標準偏差は1
	col := make([]float64, 4)
	for j := 0; j < 2; j++ {
		mat.Col(col, j, Xs)
		mean, std := stat.PopMeanStdDev(col, nil)
		if math.Abs(mean) > 1e-12 {
			t.Errorf("column %d mean = %v, want 0", j, mean)
		}
		if math.Abs(std-1) > 1e-12 {
			t.Errorf("column %d std = %v, want 1", j, std)
		}
	}

	if s.Mean[0] != 2.5 {
		t.Errorf("Mean[0] = %v, want 2.5", s.Mean[0])
	}
	if want := math.Sqrt(1.25); math.Abs(s.Scale[0]-want) > 1e-12 {
		t.Errorf("Scale[0] = %v, want population std %v", s.Scale[0], want)
	}

	back, err := s.InverseTransform(Xs)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.EqualApprox(back, X, 1e-9) {
		t.Errorf("InverseTransform() = %v, want %v", mat.Formatted(back), mat.Formatted(X))
	}
}

func TestStandardScaler_TransformVectorMatchesTransform(t *testing.T) {
	X := mat.NewDense(3, 3, []float64{1, 5, 9, 2, 7, 3, 8, 1, 4})
	s := NewStandardScalerDefault()
	if err := s.Fit(X); err != nil {
		t.Fatal(err)
	}
	Xs, _ := s.Transform(X)
	v, err := s.TransformVector(mat.Row(nil, 1, X))
	if err != nil {
		t.Fatal(err)
	}
	for j := range v {
		if v[j] != Xs.At(1, j) {
			t.Errorf("TransformVector()[%d] = %v, Transform = %v", j, v[j], Xs.At(1, j))
		}
	}
}

func TestStandardScaler_ZeroVariance(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		1, 7,
		2, 7,
		3, 7,
	})

	t.Run("warns and uses unit scale", func(t *testing.T) {
		warnings := captureWarnings(t)
		s := NewStandardScalerDefault(WithFeatureNames([]string{"radius_mean", "area_se"}))
		Xs, err := s.FitTransform(X)
		if err != nil {
			t.Fatalf("FitTransform() error = %v", err)
		}
		if s.Scale[1] != 1 {
			t.Errorf("Scale[1] = %v, want 1", s.Scale[1])
		}
		for i := 0; i < 3; i++ {
			if v := Xs.At(i, 1); v != 0 || math.IsNaN(v) {
				t.Errorf("Xs[%d,1] = %v, want 0", i, v)
			}
		}
		if len(*warnings) != 1 {
			t.Fatalf("expected 1 warning, got %d", len(*warnings))
		}
		var degErr *errors.DegenerateFeatureError
		if !errors.As((*warnings)[0], &degErr) || degErr.Feature != "area_se" {
			t.Errorf("warning = %v, want DegenerateFeatureError for area_se", (*warnings)[0])
		}
	})

	t.Run("strict mode fails", func(t *testing.T) {
		s := NewStandardScalerDefault(WithStrictVariance(true))
		err := s.Fit(X)
		var degErr *errors.DegenerateFeatureError
		if !errors.As(err, &degErr) {
			t.Fatalf("Fit() error = %v, want DegenerateFeatureError", err)
		}
		if degErr.Index != 1 {
			t.Errorf("Index = %d, want 1", degErr.Index)
		}
		if s.IsFitted() {
			t.Error("scaler should not be fitted after a strict failure")
		}
	})
}

func TestStandardScaler_Errors(t *testing.T) {
	s := NewStandardScalerDefault()
	if _, err := s.Transform(mat.NewDense(1, 2, nil)); err == nil {
		t.Error("Transform() before Fit should fail")
	} else {
		var nf *errors.NotFittedError
		if !errors.As(err, &nf) {
			t.Errorf("error = %v, want NotFittedError", err)
		}
	}

	if err := s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatal(err)
	}
	_, err := s.TransformVector([]float64{1, 2, 3})
	var dimErr *errors.DimensionMismatchError
	if !errors.As(err, &dimErr) {
		t.Errorf("TransformVector() error = %v, want DimensionMismatchError", err)
	}
}

func TestNewStandardScalerFromParams(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{1, 10, 2, 30, 6, 20})
	fitted := NewStandardScalerDefault()
	if err := fitted.Fit(X); err != nil {
		t.Fatal(err)
	}

	restored, err := NewStandardScalerFromParams(fitted.Mean, fitted.Scale)
	if err != nil {
		t.Fatalf("NewStandardScalerFromParams() error = %v", err)
	}
	a, _ := fitted.Transform(X)
	b, _ := restored.Transform(X)
	if !mat.Equal(a, b) {
		t.Error("restored scaler transforms differently")
	}

	tests := []struct {
		name  string
		mean  []float64
		scale []float64
	}{
		{"empty", nil, nil},
		{"length mismatch", []float64{0}, []float64{1, 1}},
		{"zero scale", []float64{0}, []float64{0}},
		{"NaN mean", []float64{math.NaN()}, []float64{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewStandardScalerFromParams(tt.mean, tt.scale); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestMinMaxScaler_DisplayRange(t *testing.T) {
	X := mat.NewDense(3, 2, []float64{
		6.98, 143.5,
		14.1, 654.9,
		28.1, 2501,
	})
	m := NewDisplayScaler()
	if err := m.Fit(X); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		in   []float64
		want []float64
	}{
		{"minimum maps to 0", []float64{6.98, 143.5}, []float64{0, 0}},
		{"maximum maps to 10", []float64{28.1, 2501}, []float64{10, 10}},
		{"midpoint", []float64{(6.98 + 28.1) / 2, (143.5 + 2501) / 2}, []float64{5, 5}},
		{"outside the range is not clamped", []float64{28.1 + 21.12, 143.5}, []float64{20, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := m.TransformVector(tt.in)
			if err != nil {
				t.Fatal(err)
			}
			for j := range got {
				if math.Abs(got[j]-tt.want[j]) > 1e-9 {
					t.Errorf("TransformVector()[%d] = %v, want %v", j, got[j], tt.want[j])
				}
			}
		})
	}

	// 単調性
	lo, _ := m.TransformVector([]float64{10, 500})
	hi, _ := m.TransformVector([]float64{11, 501})
	if !(hi[0] > lo[0] && hi[1] > lo[1]) {
		t.Errorf("scaling is not monotonic: %v then %v", lo, hi)
	}
}

func TestMinMaxScaler_DegenerateRange(t *testing.T) {
	warnings := captureWarnings(t)

	// 2列目の幅 5e-9 は許容誤差 1e-8 未満なので定数扱い
	X := mat.NewDense(2, 3, []float64{
		4, 1, 2,
		4, 1 + 5e-9, 3,
	})
	m := NewDisplayScaler()
	Xs, err := m.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform() error = %v", err)
	}
	for j, want := range []bool{true, true, false} {
		if got := m.Degenerate(j); got != want {
			t.Errorf("Degenerate(%d) = %v, want %v", j, got, want)
		}
		if !want {
			continue
		}
		if v := Xs.At(1, j); v != 0 || math.IsNaN(v) {
			t.Errorf("degenerate feature %d scaled to %v, want 0", j, v)
		}
		if m.DataRange[j] != 0 {
			t.Errorf("DataRange[%d] = %v, want 0", j, m.DataRange[j])
		}
	}
	if len(*warnings) != 2 {
		t.Errorf("expected 2 warnings, got %d", len(*warnings))
	}
}

func TestMinMaxScaler_InvalidRange(t *testing.T) {
	m := NewMinMaxScaler([2]float64{1, 1})
	if err := m.Fit(mat.NewDense(2, 1, []float64{0, 1})); err == nil {
		t.Error("Fit() with empty feature range should fail")
	}
}
