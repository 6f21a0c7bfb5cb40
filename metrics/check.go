package metrics

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// MSE は平均二乗誤差を計算する。BrierScore はこれを P(malignant) に適用したもの
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	for i := 0; i < n; i++ {
		diff := yTrue.AtVec(i) - yPred.AtVec(i)
		sum += diff * diff
	}
	return sum / float64(n), nil
}

// checkPair validates that both vectors are non-empty and of equal length.
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewModelError(op, "empty vector", errors.ErrEmptyData)
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionMismatchError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// checkBinaryLabels accepts only benign (0) and malignant (1).
func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, fmt.Sprintf("label %v at index %d is not 0 or 1", v, i))
		}
	}
	return nil
}
