// Package pipeline wires loading, scaling, training, persistence and inference
// into the two workflows of the application: training and prediction.
package pipeline

import (
	"time"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/linear"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/preprocessing"
)

// ArtifactVersion is bumped whenever the persisted layout changes.
const ArtifactVersion = 1

// Artifact names used in ArtifactLoadError.
const (
	ScalerArtifactName = "scaler"
	ModelArtifactName  = "model"
)

// ScalerArtifact is the persisted form of a fitted StandardScaler.
type ScalerArtifact struct {
	Version   int
	Features  []string
	Mean      []float64
	Scale     []float64
	CreatedAt time.Time
}

// Hyperparams records how the persisted model was trained.
type Hyperparams struct {
	C           float64
	MaxIter     int
	Tol         float64
	Solver      string
	RandomState int64
}

// ModelArtifact is the persisted form of a fitted LogisticRegression.
type ModelArtifact struct {
	Version     int
	Features    []string
	Coef        []float64
	Intercept   float64
	Classes     []int
	Hyperparams Hyperparams
	NIter       int
	CreatedAt   time.Time
}

// NewScalerArtifact captures a fitted scaler and its schema.
func NewScalerArtifact(schema model.Schema, s *preprocessing.StandardScaler) (*ScalerArtifact, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "NewScalerArtifact")
	}
	if err := schema.CheckWidth("NewScalerArtifact", s.NFeatures); err != nil {
		return nil, err
	}
	return &ScalerArtifact{
		Version:   ArtifactVersion,
		Features:  schema.Names(),
		Mean:      append([]float64(nil), s.Mean...),
		Scale:     append([]float64(nil), s.Scale...),
		CreatedAt: time.Now().UTC(),
	}, nil
}

// Scaler rebuilds the fitted scaler and its schema.
func (a *ScalerArtifact) Scaler() (*preprocessing.StandardScaler, model.Schema, error) {
	if a.Version != ArtifactVersion {
		return nil, model.Schema{}, errors.Newf("unsupported scaler artifact version %d", a.Version)
	}
	schema, err := model.NewSchema(a.Features...)
	if err != nil {
		return nil, model.Schema{}, err
	}
	if err := schema.CheckWidth("ScalerArtifact.Scaler", len(a.Mean)); err != nil {
		return nil, model.Schema{}, err
	}
	s, err := preprocessing.NewStandardScalerFromParams(a.Mean, a.Scale)
	if err != nil {
		return nil, model.Schema{}, err
	}
	return s, schema, nil
}

// NewModelArtifact captures a fitted classifier and its schema.
func NewModelArtifact(schema model.Schema, lr *linear.LogisticRegression, hp Hyperparams) (*ModelArtifact, error) {
	if !lr.IsFitted() {
		return nil, errors.NewNotFittedError("LogisticRegression", "NewModelArtifact")
	}
	coef := lr.Coef()
	if err := schema.CheckWidth("NewModelArtifact", len(coef)); err != nil {
		return nil, err
	}
	return &ModelArtifact{
		Version:     ArtifactVersion,
		Features:    schema.Names(),
		Coef:        coef,
		Intercept:   lr.Intercept(),
		Classes:     lr.Classes(),
		Hyperparams: hp,
		NIter:       lr.NIter(),
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// Model rebuilds the fitted classifier and its schema.
func (a *ModelArtifact) Model() (*linear.LogisticRegression, model.Schema, error) {
	if a.Version != ArtifactVersion {
		return nil, model.Schema{}, errors.Newf("unsupported model artifact version %d", a.Version)
	}
	schema, err := model.NewSchema(a.Features...)
	if err != nil {
		return nil, model.Schema{}, err
	}
	if err := schema.CheckWidth("ModelArtifact.Model", len(a.Coef)); err != nil {
		return nil, model.Schema{}, err
	}
	lr, err := linear.NewLogisticRegressionFromParams(a.Coef, a.Intercept, a.Classes,
		linear.WithC(a.Hyperparams.C),
		linear.WithMaxIter(a.Hyperparams.MaxIter),
		linear.WithTol(a.Hyperparams.Tol),
		linear.WithSolver(a.Hyperparams.Solver),
		linear.WithRandomState(a.Hyperparams.RandomState),
	)
	if err != nil {
		return nil, model.Schema{}, err
	}
	return lr, schema, nil
}

// SaveScalerArtifact writes the artifact atomically to path.
func SaveScalerArtifact(a *ScalerArtifact, path string) error {
	return model.SaveModel(a, path)
}

// SaveModelArtifact writes the artifact atomically to path.
func SaveModelArtifact(a *ModelArtifact, path string) error {
	return model.SaveModel(a, path)
}

// LoadScalerArtifact reads and validates the scaler artifact at path.
// Every failure is an ArtifactLoadError.
func LoadScalerArtifact(path string) (*preprocessing.StandardScaler, model.Schema, error) {
	var a ScalerArtifact
	if err := model.LoadModel(&a, path); err != nil {
		return nil, model.Schema{}, errors.NewArtifactLoadError(ScalerArtifactName, path, err)
	}
	s, schema, err := a.Scaler()
	if err != nil {
		return nil, model.Schema{}, errors.NewArtifactLoadError(ScalerArtifactName, path, err)
	}
	return s, schema, nil
}

// LoadModelArtifact reads and validates the model artifact at path.
// Every failure is an ArtifactLoadError.
func LoadModelArtifact(path string) (*linear.LogisticRegression, model.Schema, error) {
	var a ModelArtifact
	if err := model.LoadModel(&a, path); err != nil {
		return nil, model.Schema{}, errors.NewArtifactLoadError(ModelArtifactName, path, err)
	}
	lr, schema, err := a.Model()
	if err != nil {
		return nil, model.Schema{}, errors.NewArtifactLoadError(ModelArtifactName, path, err)
	}
	return lr, schema, nil
}
