package pipeline

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/dataset"
	"github.com/YuminosukeSato/oncolens/linear"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/preprocessing"
)

// Prediction is the outcome for one measurement set.
type Prediction struct {
	Label                int     `json:"label"`
	Diagnosis            string  `json:"diagnosis"`
	ProbabilityBenign    float64 `json:"probability_benign"`
	ProbabilityMalignant float64 `json:"probability_malignant"`
}

// Predictor standardizes raw measurements and classifies them.
type Predictor struct {
	schema model.Schema
	scaler *preprocessing.StandardScaler
	model  *linear.LogisticRegression
}

// NewPredictor checks that scaler and model agree with schema.
func NewPredictor(schema model.Schema, scaler *preprocessing.StandardScaler, lr *linear.LogisticRegression) (*Predictor, error) {
	if err := schema.CheckWidth("NewPredictor.scaler", scaler.NFeatures); err != nil {
		return nil, err
	}
	if err := schema.CheckWidth("NewPredictor.model", len(lr.Coef())); err != nil {
		return nil, err
	}
	classes := lr.Classes()
	if len(classes) != 2 || classes[0] != dataset.Benign || classes[1] != dataset.Malignant {
		return nil, errors.NewValidationError("classes", "model must be trained on benign (0) and malignant (1)", classes)
	}
	return &Predictor{schema: schema, scaler: scaler, model: lr}, nil
}

// LoadPredictor reads both artifacts. Missing, corrupt or mutually
// inconsistent files yield an ArtifactLoadError.
func LoadPredictor(scalerPath, modelPath string) (*Predictor, error) {
	scaler, scalerSchema, err := LoadScalerArtifact(scalerPath)
	if err != nil {
		return nil, err
	}
	lr, modelSchema, err := LoadModelArtifact(modelPath)
	if err != nil {
		return nil, err
	}
	if !scalerSchema.Equal(modelSchema) {
		return nil, errors.NewArtifactLoadError(ModelArtifactName, modelPath,
			errors.Newf("feature schema differs from scaler artifact %s", scalerPath))
	}
	p, err := NewPredictor(modelSchema, scaler, lr)
	if err != nil {
		return nil, errors.NewArtifactLoadError(ModelArtifactName, modelPath, err)
	}
	return p, nil
}

// Schema returns the feature order expected by Predict.
func (p *Predictor) Schema() model.Schema {
	return p.schema
}

// Predict classifies named raw measurements. Every schema feature must be
// present and no other name is accepted; otherwise a DimensionMismatchError
// listing the offending names is returned.
func (p *Predictor) Predict(input map[string]float64) (*Prediction, error) {
	vec, err := p.schema.Vector("Predictor.Predict", input)
	if err != nil {
		return nil, err
	}
	return p.PredictVector(vec)
}

// PredictVector classifies raw measurements ordered by Schema. Inputs that
// are NaN or Inf, or that overflow once standardized, yield a
// NumericalInstabilityError.
func (p *Predictor) PredictVector(x []float64) (*Prediction, error) {
	if err := errors.CheckNumericalStability("Predictor.PredictVector", x, 0); err != nil {
		return nil, err
	}
	scaled, err := p.scaler.TransformVector(x)
	if err != nil {
		return nil, err
	}
	if err := errors.CheckNumericalStability("Predictor.PredictVector.scaled", scaled, 0); err != nil {
		return nil, err
	}
	row := mat.NewDense(1, len(scaled), scaled)

	probas, err := p.model.PredictProba(row)
	if err != nil {
		return nil, err
	}
	// 極端な入力では決定関数がオーバーフローし確率がNaNになる
	pair := []float64{probas.At(0, 0), probas.At(0, 1)}
	if err := errors.CheckNumericalStability("Predictor.PredictVector.proba", pair, 0); err != nil {
		return nil, err
	}
	labels, err := p.model.Predict(row)
	if err != nil {
		return nil, err
	}

	label := int(labels.At(0, 0))
	name, ok := dataset.ClassNames[label]
	if !ok {
		return nil, errors.NewValueError("Predictor.PredictVector", fmt.Sprintf("unknown class %d", label))
	}
	return &Prediction{
		Label:                label,
		Diagnosis:            name,
		ProbabilityBenign:    pair[0],
		ProbabilityMalignant: pair[1],
	}, nil
}
