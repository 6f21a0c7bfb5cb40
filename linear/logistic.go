// Package linear provides the binary logistic-regression classifier.
package linear

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/YuminosukeSato/oncolens/core/model"
	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

var _ model.ProbabilisticClassifier = (*LogisticRegression)(nil)

// LogisticRegression は二値分類用のロジスティック回帰
//
// 目的関数は C·Σ logloss + ½‖w‖² で、切片は正則化しない。
// 入力は学習時と同じスケーラーで標準化済みであること。
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	c            float64
	maxIter      int
	tol          float64
	solver       string
	fitIntercept bool
	randomState  int64

	// Model parameters
	coef      []float64
	intercept float64
	classes   []int
	nIter     int
}

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...Option) *LogisticRegression {
	lr := &LogisticRegression{
		state:        model.NewStateManager(),
		c:            1.0,
		maxIter:      100,
		tol:          1e-4,
		solver:       SolverLBFGS,
		fitIntercept: true,
		randomState:  -1,
	}
	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// NewLogisticRegressionFromParams rebuilds a fitted model from persisted parameters.
func NewLogisticRegressionFromParams(coef []float64, intercept float64, classes []int, opts ...Option) (*LogisticRegression, error) {
	if len(coef) == 0 {
		return nil, errors.NewValidationError("coef", "must not be empty", coef)
	}
	if len(classes) != 2 || classes[0] >= classes[1] {
		return nil, errors.NewValidationError("classes", "must be two ascending labels", classes)
	}
	if err := errors.CheckNumericalStability("LogisticRegression.coef", coef, 0); err != nil {
		return nil, err
	}
	if err := errors.CheckScalar("LogisticRegression.intercept", intercept, 0); err != nil {
		return nil, err
	}

	lr := NewLogisticRegression(opts...)
	lr.coef = append([]float64(nil), coef...)
	lr.intercept = intercept
	lr.classes = append([]int(nil), classes...)
	lr.state.SetDimensions(len(coef), 0)
	lr.state.SetFitted()
	return lr, nil
}

// Fit trains the logistic regression model
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionMismatchError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewValueError("LogisticRegression.Fit", "y must be a column vector")
	}

	classes, err := extractClasses(y)
	if err != nil {
		return err
	}
	if len(classes) != 2 {
		return errors.NewValidationError("y", "exactly two classes are required", classes)
	}

	// 正例 (classes[1]) を1、それ以外を0に変換
	target := make([]float64, nSamples)
	for i := range target {
		if int(y.At(i, 0)) == classes[1] {
			target[i] = 1
		}
	}
	rows := make([][]float64, nSamples)
	for i := range rows {
		rows[i] = mat.Row(nil, i, X)
	}

	lr.state.Reset()
	lr.classes = classes
	init := lr.initialWeights(nFeatures)

	var theta []float64
	switch lr.solver {
	case SolverLBFGS:
		theta, err = lr.fitLBFGS(rows, target, init)
	case SolverGD:
		theta, err = lr.fitGradientDescent(rows, target, init)
	}
	if err != nil {
		return err
	}
	if err := errors.CheckNumericalStability("LogisticRegression.Fit", theta, lr.nIter); err != nil {
		return err
	}

	lr.coef = theta[:nFeatures]
	lr.intercept = theta[nFeatures]
	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

func (lr *LogisticRegression) validateParams() error {
	if lr.c <= 0 || math.IsNaN(lr.c) || math.IsInf(lr.c, 0) {
		return errors.NewValidationError("C", "must be positive and finite", lr.c)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("max_iter", "must be positive", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	if lr.solver != SolverLBFGS && lr.solver != SolverGD {
		return errors.NewValidationError("solver", "must be lbfgs or gd", lr.solver)
	}
	return nil
}

// extractClasses returns the sorted distinct labels of y.
func extractClasses(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := make(map[int]bool)
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) {
			return nil, errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("label %v at row %d is not an integer", v, i))
		}
		seen[int(v)] = true
	}
	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)
	return classes, nil
}

// initialWeights は重みと切片を連結した初期ベクトルを返す
func (lr *LogisticRegression) initialWeights(nFeatures int) []float64 {
	theta := make([]float64, nFeatures+1)
	if lr.randomState < 0 {
		return theta
	}
	rng := rand.New(rand.NewSource(lr.randomState))
	for j := 0; j < nFeatures; j++ {
		theta[j] = rng.NormFloat64() * 0.01
	}
	return theta
}

// objective evaluates the penalized negative log-likelihood and, when grad
// is non-nil, its gradient. theta holds the weights followed by the intercept.
func (lr *LogisticRegression) objective(rows [][]float64, target, theta, grad []float64) float64 {
	nFeatures := len(theta) - 1
	w := theta[:nFeatures]
	b := theta[nFeatures]
	if !lr.fitIntercept {
		b = 0
	}

	if grad != nil {
		for j := range grad {
			grad[j] = 0
		}
	}

	var loss float64
	for i, x := range rows {
		z := floats.Dot(w, x) + b
		loss += logOnePlusExp(z) - target[i]*z
		if grad != nil {
			residual := sigmoid(z) - target[i]
			floats.AddScaled(grad[:nFeatures], residual, x)
			grad[nFeatures] += residual
		}
	}
	loss *= lr.c
	loss += 0.5 * floats.Dot(w, w)

	if grad != nil {
		floats.Scale(lr.c, grad)
		floats.Add(grad[:nFeatures], w)
		if !lr.fitIntercept {
			grad[nFeatures] = 0
		}
	}
	return loss
}

// fitLBFGS minimizes the objective with gonum's L-BFGS.
func (lr *LogisticRegression) fitLBFGS(rows [][]float64, target, init []float64) ([]float64, error) {
	problem := optimize.Problem{
		Func: func(theta []float64) float64 {
			return lr.objective(rows, target, theta, nil)
		},
		Grad: func(grad, theta []float64) {
			lr.objective(rows, target, theta, grad)
		},
	}
	settings := &optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
	}

	result, err := optimize.Minimize(problem, init, settings, &optimize.LBFGS{})
	if result == nil {
		return nil, errors.NewModelError("LogisticRegression.Fit", "optimization failed", err)
	}
	lr.nIter = result.MajorIterations
	if err != nil {
		// 直線探索の失敗などは最後の点が有限なら受け入れる
		if !floats.HasNaN(result.X) && !math.IsInf(result.F, 0) {
			errors.Warn(errors.NewConvergenceWarning(SolverLBFGS, lr.nIter, err.Error()))
			return result.X, nil
		}
		return nil, errors.NewModelError("LogisticRegression.Fit", "optimization failed", err)
	}
	if result.Status == optimize.IterationLimit {
		errors.Warn(errors.NewConvergenceWarning(SolverLBFGS, lr.nIter,
			"increase max_iter or scale the data"))
	}
	return result.X, nil
}

// fitGradientDescent は減衰学習率の勾配降下法で学習する
func (lr *LogisticRegression) fitGradientDescent(rows [][]float64, target, theta []float64) ([]float64, error) {
	const baseLearningRate = 1.0
	scale := 1.0 / (lr.c * float64(len(rows)))
	grad := make([]float64, len(theta))

	converged := false
	for iter := 0; iter < lr.maxIter; iter++ {
		lr.objective(rows, target, theta, grad)
		// 平均損失のスケールに揃える
		floats.Scale(scale, grad)

		learningRate := baseLearningRate / (1.0 + 0.1*float64(iter))
		floats.AddScaled(theta, -learningRate, grad)
		lr.nIter = iter + 1

		if err := errors.CheckNumericalStability("LogisticRegression.gd", theta, lr.nIter); err != nil {
			return nil, err
		}
		if floats.Norm(grad, math.Inf(1)) < lr.tol {
			converged = true
			break
		}
	}
	if !converged {
		errors.Warn(errors.NewConvergenceWarning(SolverGD, lr.nIter,
			"increase max_iter or scale the data"))
	}
	return theta, nil
}

func (lr *LogisticRegression) checkInput(op string, X mat.Matrix) (int, error) {
	if err := lr.state.RequireFitted("LogisticRegression", op); err != nil {
		return 0, err
	}
	nSamples, nFeatures := X.Dims()
	if nFeatures != len(lr.coef) {
		return 0, errors.NewDimensionMismatchError("LogisticRegression."+op, len(lr.coef), nFeatures, 1)
	}
	return nSamples, nil
}

// DecisionFunction returns w·x + b for every row of X.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	nSamples, err := lr.checkInput("DecisionFunction", X)
	if err != nil {
		return nil, err
	}
	scores := mat.NewVecDense(nSamples, nil)
	row := make([]float64, len(lr.coef))
	for i := 0; i < nSamples; i++ {
		mat.Row(row, i, X)
		scores.SetVec(i, floats.Dot(lr.coef, row)+lr.intercept)
	}
	return scores, nil
}

// PredictProba returns an n×2 matrix of class probabilities ordered as Classes.
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p1 := sigmoid(scores.AtVec(i))
		probas.Set(i, 0, 1.0-p1)
		probas.Set(i, 1, p1)
	}
	return probas, nil
}

// Predict returns the most probable class for each row; ties go to the lower class.
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	scores, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	n := scores.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		label := lr.classes[0]
		if sigmoid(scores.AtVec(i)) > 0.5 {
			label = lr.classes[1]
		}
		predictions.Set(i, 0, float64(label))
	}
	return predictions, nil
}

// Score returns the mean accuracy on the given data
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}
	n, _ := predictions.Dims()
	if yRows, _ := y.Dims(); yRows != n {
		return 0, errors.NewDimensionMismatchError("LogisticRegression.Score", n, yRows, 0)
	}
	if n == 0 {
		return 0, errors.NewModelError("LogisticRegression.Score", "empty data", errors.ErrEmptyData)
	}
	correct := 0
	for i := 0; i < n; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// Coef returns a copy of the learned weights.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef...)
}

// Intercept returns the learned bias.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept
}

// Classes returns the class labels in probability column order.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes...)
}

// NIter returns the number of solver iterations run by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter
}

// IsFitted reports whether Fit or NewLogisticRegressionFromParams has completed.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the hyperparameters of the model
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"C":             lr.c,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
		"solver":        lr.solver,
		"fit_intercept": lr.fitIntercept,
		"random_state":  lr.randomState,
	}
}

// String returns a string representation of the model
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LogisticRegression(C=%g, solver=%s, fitted=false)", lr.c, lr.solver)
	}
	return fmt.Sprintf("LogisticRegression(C=%g, solver=%s, n_features=%d, n_iter=%d)",
		lr.c, lr.solver, len(lr.coef), lr.nIter)
}

// sigmoid computes the logistic function without overflowing for large |z|.
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	ez := math.Exp(z)
	return ez / (1.0 + ez)
}

// logOnePlusExp computes log(1+exp(z)) stably.
func logOnePlusExp(z float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z))
	}
	return math.Log1p(math.Exp(z))
}
