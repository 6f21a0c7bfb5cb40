package pipeline

import (
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/dataset"
	"github.com/YuminosukeSato/oncolens/linear"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/preprocessing"
)

// fittedPair returns a scaler and a model fitted on the tiny dataset.
func fittedPair(t *testing.T) (model.Schema, *preprocessing.StandardScaler, *linear.LogisticRegression) {
	t.Helper()
	ds := tinyDataset(t)
	scaler := preprocessing.NewStandardScalerDefault()
	Xs, err := scaler.FitTransform(ds.X())
	if err != nil {
		t.Fatal(err)
	}
	lr := linear.NewLogisticRegression()
	if err := lr.Fit(Xs, ds.Y()); err != nil {
		t.Fatal(err)
	}
	return ds.Schema, scaler, lr
}

// saveArtifacts writes both artifacts into dir and returns their paths.
func saveArtifacts(t *testing.T, dir string, schema model.Schema, scaler *preprocessing.StandardScaler, lr *linear.LogisticRegression) (string, string) {
	t.Helper()
	sa, err := NewScalerArtifact(schema, scaler)
	if err != nil {
		t.Fatal(err)
	}
	ma, err := NewModelArtifact(schema, lr, Hyperparams{C: 1, MaxIter: 100, Tol: 1e-4, Solver: linear.SolverLBFGS, RandomState: -1})
	if err != nil {
		t.Fatal(err)
	}
	scalerPath := filepath.Join(dir, "scaler.gob")
	modelPath := filepath.Join(dir, "model.gob")
	if err := SaveScalerArtifact(sa, scalerPath); err != nil {
		t.Fatal(err)
	}
	if err := SaveModelArtifact(ma, modelPath); err != nil {
		t.Fatal(err)
	}
	return scalerPath, modelPath
}

func TestArtifacts_RoundTrip(t *testing.T) {
	schema, scaler, lr := fittedPair(t)
	scalerPath, modelPath := saveArtifacts(t, t.TempDir(), schema, scaler, lr)

	loadedScaler, scalerSchema, err := LoadScalerArtifact(scalerPath)
	if err != nil {
		t.Fatalf("LoadScalerArtifact() error = %v", err)
	}
	loadedModel, modelSchema, err := LoadModelArtifact(modelPath)
	if err != nil {
		t.Fatalf("LoadModelArtifact() error = %v", err)
	}
	if !scalerSchema.Equal(schema) || !modelSchema.Equal(schema) {
		t.Errorf("schemas = %v / %v, want %v", scalerSchema.Names(), modelSchema.Names(), schema.Names())
	}

	for j := range scaler.Mean {
		if loadedScaler.Mean[j] != scaler.Mean[j] || loadedScaler.Scale[j] != scaler.Scale[j] {
			t.Errorf("scaler param %d changed: %v/%v vs %v/%v", j,
				loadedScaler.Mean[j], loadedScaler.Scale[j], scaler.Mean[j], scaler.Scale[j])
		}
	}
	wantCoef, gotCoef := lr.Coef(), loadedModel.Coef()
	for j := range wantCoef {
		if gotCoef[j] != wantCoef[j] {
			t.Errorf("coef[%d] = %v, want %v", j, gotCoef[j], wantCoef[j])
		}
	}
	if loadedModel.Intercept() != lr.Intercept() {
		t.Errorf("intercept = %v, want %v", loadedModel.Intercept(), lr.Intercept())
	}

	// 復元したモデルは同じ確率を返す
	X := mat.NewDense(3, 1, []float64{0.7, 2.5, 3.9})
	a, err := scaler.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	b, err := loadedScaler.Transform(X)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a, b) {
		t.Error("loaded scaler transforms differently")
	}
	pa, _ := lr.PredictProba(a)
	pb, err := loadedModel.PredictProba(b)
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(pa, pb) {
		t.Error("loaded model predicts differently")
	}
}

func TestArtifacts_UnfittedRejected(t *testing.T) {
	schema := model.MustSchema("x")
	if _, err := NewScalerArtifact(schema, preprocessing.NewStandardScalerDefault()); err == nil {
		t.Error("NewScalerArtifact() should reject an unfitted scaler")
	}
	if _, err := NewModelArtifact(schema, linear.NewLogisticRegression(), Hyperparams{}); err == nil {
		t.Error("NewModelArtifact() should reject an unfitted model")
	}
}

func TestLoadPredictor_Errors(t *testing.T) {
	schema, scaler, lr := fittedPair(t)
	dir := t.TempDir()
	scalerPath, modelPath := saveArtifacts(t, dir, schema, scaler, lr)

	corrupt := filepath.Join(dir, "corrupt.gob")
	if err := os.WriteFile(corrupt, []byte("not a gob stream"), 0o644); err != nil {
		t.Fatal(err)
	}

	// スキーマが異なるモデル
	otherDir := filepath.Join(dir, "other")
	if err := os.Mkdir(otherDir, 0o755); err != nil {
		t.Fatal(err)
	}
	otherScaler, err := preprocessing.NewStandardScalerFromParams([]float64{0}, []float64{1})
	if err != nil {
		t.Fatal(err)
	}
	_, otherModelPath := saveArtifacts(t, otherDir, model.MustSchema("y"), otherScaler, lr)

	tests := []struct {
		name        string
		scalerPath  string
		modelPath   string
		wantMissing bool
	}{
		{"missing scaler", filepath.Join(dir, "nope.gob"), modelPath, true},
		{"missing model", scalerPath, filepath.Join(dir, "nope.gob"), true},
		{"corrupt scaler", corrupt, modelPath, false},
		{"corrupt model", scalerPath, corrupt, false},
		{"inconsistent schemas", scalerPath, otherModelPath, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadPredictor(tt.scalerPath, tt.modelPath)
			if err == nil {
				t.Fatal("LoadPredictor() should fail")
			}
			var loadErr *errors.ArtifactLoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("error = %T %v, want ArtifactLoadError", err, err)
			}
			if got := errors.Is(err, fs.ErrNotExist); got != tt.wantMissing {
				t.Errorf("errors.Is(err, fs.ErrNotExist) = %v, want %v", got, tt.wantMissing)
			}
		})
	}
}

func TestPredictor_Predict(t *testing.T) {
	schema, scaler, lr := fittedPair(t)
	p, err := NewPredictor(schema, scaler, lr)
	if err != nil {
		t.Fatal(err)
	}

	prevMalignant := -1.0
	for _, x := range []float64{0, 1, 2.5, 4, 10} {
		pred, err := p.Predict(map[string]float64{"x": x})
		if err != nil {
			t.Fatalf("Predict(%v) error = %v", x, err)
		}
		if math.Abs(pred.ProbabilityBenign+pred.ProbabilityMalignant-1) > 1e-12 {
			t.Errorf("Predict(%v) probabilities sum to %v", x, pred.ProbabilityBenign+pred.ProbabilityMalignant)
		}
		if pred.ProbabilityMalignant < prevMalignant {
			t.Errorf("P(malignant) is not monotone at x=%v", x)
		}
		prevMalignant = pred.ProbabilityMalignant
		if want := dataset.ClassNames[pred.Label]; pred.Diagnosis != want {
			t.Errorf("Diagnosis = %q, want %q", pred.Diagnosis, want)
		}
	}
}

func TestPredictor_SchemaMismatch(t *testing.T) {
	schema, scaler, lr := fittedPair(t)
	p, err := NewPredictor(schema, scaler, lr)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name           string
		input          map[string]float64
		wantMissing    []string
		wantUnexpected []string
	}{
		{"missing feature", map[string]float64{}, []string{"x"}, nil},
		{"unknown feature", map[string]float64{"x": 1, "z": 2}, nil, []string{"z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := p.Predict(tt.input)
			var dimErr *errors.DimensionMismatchError
			if !errors.As(err, &dimErr) {
				t.Fatalf("error = %v, want DimensionMismatchError", err)
			}
			if len(dimErr.Missing) != len(tt.wantMissing) || len(dimErr.Unexpected) != len(tt.wantUnexpected) {
				t.Errorf("missing=%v unexpected=%v, want %v / %v",
					dimErr.Missing, dimErr.Unexpected, tt.wantMissing, tt.wantUnexpected)
			}
		})
	}

	if _, err := p.PredictVector([]float64{math.NaN()}); err == nil {
		t.Error("PredictVector(NaN) should fail")
	}
}

func TestPredictor_NumericalOverflow(t *testing.T) {
	schema := model.MustSchema("a", "b")
	scaler, err := preprocessing.NewStandardScalerFromParams([]float64{0, 0}, []float64{1, 0.5})
	if err != nil {
		t.Fatal(err)
	}
	lr, err := linear.NewLogisticRegressionFromParams([]float64{2, 2}, 0, []int{dataset.Benign, dataset.Malignant})
	if err != nil {
		t.Fatal(err)
	}
	p, err := NewPredictor(schema, scaler, lr)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		input map[string]float64
	}{
		// b / 0.5 は float64 の範囲を超える
		{"scaled value overflows", map[string]float64{"a": 0, "b": 1e308}},
		// 2e308 と -2e308 の和で決定関数が NaN になる
		{"decision score is NaN", map[string]float64{"a": 1e308, "b": -5e307}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pred, err := p.Predict(tt.input)
			var numErr *errors.NumericalInstabilityError
			if !errors.As(err, &numErr) {
				t.Fatalf("Predict() = %+v, %v, want NumericalInstabilityError", pred, err)
			}
		})
	}

	pred, err := p.Predict(map[string]float64{"a": 1, "b": 1})
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.Diagnosis != dataset.ClassNames[dataset.Malignant] {
		t.Errorf("Predict(1, 1) = %+v, want Malignant", pred)
	}
}
