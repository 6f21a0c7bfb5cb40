package pipeline

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/oncolens/config"
	"github.com/YuminosukeSato/oncolens/dataset"
	"github.com/YuminosukeSato/oncolens/linear"
	"github.com/YuminosukeSato/oncolens/metrics"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/pkg/log"
	"github.com/YuminosukeSato/oncolens/preprocessing"
)

// TrainingResult summarises a training run. The held-out scores are
// diagnostics only; they are not persisted.
type TrainingResult struct {
	Accuracy   float64
	Brier      float64
	LogLoss    float64
	AUC        float64
	Report     *metrics.Report
	TrainSize  int
	TestSize   int
	Iterations int
	ScalerPath string
	ModelPath  string
	Duration   time.Duration
}

// Trainer runs load → scale → split → fit → evaluate → persist.
type Trainer struct {
	cfg    config.Config
	logger log.Logger
	loader *dataset.Loader
}

// NewTrainer returns a Trainer. A nil logger uses log.GetLogger().
func NewTrainer(cfg config.Config, logger log.Logger) *Trainer {
	if logger == nil {
		logger = log.GetLogger()
	}
	return &Trainer{
		cfg:    cfg,
		logger: logger.With(log.ComponentKey, "pipeline", log.ModelNameKey, "LogisticRegression"),
		loader: dataset.NewLoader(dataset.WithLabelColumn(cfg.Dataset.LabelColumn)),
	}
}

// Dataset loads the configured CSV.
func (t *Trainer) Dataset() (*dataset.Dataset, error) {
	ds, err := t.loader.Load(t.cfg.Dataset.Path)
	if err != nil {
		return nil, err
	}
	t.logger.Info("Dataset loaded",
		log.OperationKey, log.OperationLoad,
		log.SourceKey, ds.Source,
		log.SamplesKey, ds.Len(),
		log.FeaturesKey, ds.Schema.Len(),
	)
	return ds, nil
}

// Train runs the whole workflow and writes both artifacts.
func (t *Trainer) Train(ctx context.Context) (*TrainingResult, error) {
	ds, err := t.Dataset()
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return t.TrainDataset(ctx, ds)
}

// TrainDataset runs the workflow on an already loaded dataset.
func (t *Trainer) TrainDataset(ctx context.Context, ds *dataset.Dataset) (*TrainingResult, error) {
	start := time.Now()
	tc := t.cfg.Training

	// スケーラーは全データで学習する（分割前）
	scaler := preprocessing.NewStandardScalerDefault(preprocessing.WithFeatureNames(ds.Schema.Names()))
	Xs, err := scaler.FitTransform(ds.X())
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Scaler fitted",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, ds.Len(),
	)

	split, err := dataset.TrainTestSplit(ds, tc.TestSize, tc.RandomState, tc.Stratify)
	if err != nil {
		return nil, err
	}
	y := ds.Y()
	XTrain, yTrain := selectRows(Xs, split.Train), selectRows(y, split.Train)
	XTest, yTest := selectRows(Xs, split.Test), selectRows(y, split.Test)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hp := Hyperparams{
		C:           tc.C,
		MaxIter:     tc.MaxIter,
		Tol:         tc.Tol,
		Solver:      tc.Solver,
		RandomState: tc.RandomState,
	}
	lr := linear.NewLogisticRegression(
		linear.WithC(hp.C),
		linear.WithMaxIter(hp.MaxIter),
		linear.WithTol(hp.Tol),
		linear.WithSolver(hp.Solver),
		linear.WithRandomState(hp.RandomState),
	)
	t.logger.Info("Training started",
		log.OperationKey, log.OperationFit,
		log.PhaseKey, log.PhaseTraining,
		log.SamplesKey, len(split.Train),
		log.RandomSeedKey, tc.RandomState,
		log.HyperParamsKey, lr.GetParams(),
	)
	if err := lr.Fit(XTrain, yTrain); err != nil {
		return nil, err
	}

	result, err := evaluate(lr, XTest, yTest)
	if err != nil {
		return nil, err
	}
	result.TrainSize = len(split.Train)
	result.TestSize = len(split.Test)
	result.Iterations = lr.NIter()
	t.logger.Info("Model evaluated",
		log.OperationKey, log.OperationScore,
		log.PhaseKey, log.PhaseValidation,
		log.SamplesKey, result.TestSize,
		log.IterationKey, result.Iterations,
		log.AccuracyKey, result.Accuracy,
		log.BrierKey, result.Brier,
		log.AUCKey, result.AUC,
		log.LossKey, result.LogLoss,
	)
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := t.persist(ds, scaler, lr, hp); err != nil {
		return nil, err
	}
	result.ScalerPath = t.cfg.Artifacts.ScalerPath
	result.ModelPath = t.cfg.Artifacts.ModelPath
	result.Duration = time.Since(start)
	t.logger.Info("Training finished", log.DurationMsKey, result.Duration.Milliseconds())
	return result, nil
}

func (t *Trainer) persist(ds *dataset.Dataset, scaler *preprocessing.StandardScaler, lr *linear.LogisticRegression, hp Hyperparams) error {
	sa, err := NewScalerArtifact(ds.Schema, scaler)
	if err != nil {
		return err
	}
	if err := SaveScalerArtifact(sa, t.cfg.Artifacts.ScalerPath); err != nil {
		return err
	}
	t.logger.Info("Artifact saved", log.OperationKey, log.OperationSave, log.ArtifactKey, t.cfg.Artifacts.ScalerPath)

	ma, err := NewModelArtifact(ds.Schema, lr, hp)
	if err != nil {
		return err
	}
	if err := SaveModelArtifact(ma, t.cfg.Artifacts.ModelPath); err != nil {
		return err
	}
	t.logger.Info("Artifact saved", log.OperationKey, log.OperationSave, log.ArtifactKey, t.cfg.Artifacts.ModelPath)
	return nil
}

// evaluate scores lr on the held-out partition.
func evaluate(lr *linear.LogisticRegression, X, y mat.Matrix) (*TrainingResult, error) {
	n, _ := y.Dims()
	if n == 0 {
		return nil, errors.NewModelError("evaluate", "empty test partition", errors.ErrEmptyData)
	}
	pred, err := lr.Predict(X)
	if err != nil {
		return nil, err
	}
	probas, err := lr.PredictProba(X)
	if err != nil {
		return nil, err
	}

	yTrue := mat.NewVecDense(n, mat.Col(nil, 0, y))
	yPred := mat.NewVecDense(n, mat.Col(nil, 0, pred))
	pMalignant := mat.NewVecDense(n, mat.Col(nil, 1, probas))

	r := &TrainingResult{}
	if r.Accuracy, err = metrics.AccuracyScore(yTrue, yPred); err != nil {
		return nil, err
	}
	if r.Brier, err = metrics.BrierScore(yTrue, pMalignant); err != nil {
		return nil, err
	}
	if r.LogLoss, err = metrics.BinaryLogLoss(yTrue, pMalignant); err != nil {
		return nil, err
	}
	if r.AUC, err = metrics.AUC(yTrue, pMalignant); err != nil {
		return nil, err
	}
	r.Report, err = metrics.ClassificationReport(yTrue, yPred,
		[]int{dataset.Benign, dataset.Malignant},
		[]string{dataset.ClassNames[dataset.Benign], dataset.ClassNames[dataset.Malignant]})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// selectRows copies the rows at idx into a new matrix.
func selectRows(m mat.Matrix, idx []int) *mat.Dense {
	_, c := m.Dims()
	out := mat.NewDense(len(idx), c, nil)
	row := make([]float64, c)
	for k, i := range idx {
		mat.Row(row, i, m)
		out.SetRow(k, row)
	}
	return out
}
