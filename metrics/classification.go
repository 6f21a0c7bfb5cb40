// Package metrics provides evaluation scores for the binary classifier.
package metrics

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
)

// logLossEps は log(0) を避けるためのクリップ幅
const logLossEps = 1e-15

// AccuracyScore は正解率を計算する
func AccuracyScore(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AccuracyScore", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// BrierScore is the mean squared difference between the 0/1 outcome and the
// predicted probability of the positive class.
func BrierScore(yTrue, probPositive *mat.VecDense) (float64, error) {
	n, err := checkPair("BrierScore", yTrue, probPositive)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BrierScore", yTrue); err != nil {
		return 0, err
	}
	for i := 0; i < n; i++ {
		if p := probPositive.AtVec(i); p < 0 || p > 1 || math.IsNaN(p) {
			return 0, errors.NewValueError("BrierScore", fmt.Sprintf("probability %v at index %d is outside [0, 1]", p, i))
		}
	}
	return MSE(yTrue, probPositive)
}

// BinaryLogLoss は二値交差エントロピーを計算する
// 予測確率は [eps, 1-eps] にクリップされる
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			sum -= math.Log(p)
		} else {
			sum -= math.Log(1 - p)
		}
	}
	return sum / float64(n), nil
}

// AUC computes the area under the ROC curve from positive-class scores.
// Tied scores count as half a correctly ordered pair. When only one class is
// present the score is undefined and 0.5 is returned with a warning.
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yScore.AtVec(order[a]) < yScore.AtVec(order[b])
	})

	// 同順位は平均順位を割り当てる
	var rankSumPos float64
	nPos := 0
	for start := 0; start < n; {
		end := start + 1
		for end < n && yScore.AtVec(order[end]) == yScore.AtVec(order[start]) {
			end++
		}
		avgRank := float64(start+end+1) / 2
		for k := start; k < end; k++ {
			if yTrue.AtVec(order[k]) == 1 {
				rankSumPos += avgRank
				nPos++
			}
		}
		start = end
	}

	nNeg := n - nPos
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("AUC", "only one class present in y_true", 0.5))
		return 0.5, nil
	}
	return (rankSumPos - float64(nPos*(nPos+1))/2) / float64(nPos*nNeg), nil
}

// ConfusionMatrix returns counts with true labels on rows and predicted
// labels on columns, both ordered as labels.
func ConfusionMatrix(yTrue, yPred *mat.VecDense, labels []int) (*mat.Dense, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, err
	}
	if len(labels) == 0 {
		return nil, errors.NewValidationError("labels", "must not be empty", labels)
	}
	index := make(map[int]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, errors.NewValidationError("labels", "must be unique", labels)
		}
		index[l] = i
	}

	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, ok := index[int(yTrue.AtVec(i))]
		if !ok || yTrue.AtVec(i) != math.Trunc(yTrue.AtVec(i)) {
			return nil, errors.NewValueError("ConfusionMatrix", fmt.Sprintf("unknown true label %v at index %d", yTrue.AtVec(i), i))
		}
		c, ok := index[int(yPred.AtVec(i))]
		if !ok || yPred.AtVec(i) != math.Trunc(yPred.AtVec(i)) {
			return nil, errors.NewValueError("ConfusionMatrix", fmt.Sprintf("unknown predicted label %v at index %d", yPred.AtVec(i), i))
		}
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, nil
}

// ClassMetrics holds the per-class scores of a Report.
type ClassMetrics struct {
	Label     int
	Name      string
	Precision float64
	Recall    float64
	F1        float64
	Support   int
}

// Report is the per-class precision/recall/F1 summary of a classifier.
type Report struct {
	Classes     []ClassMetrics
	Accuracy    float64
	MacroAvg    ClassMetrics
	WeightedAvg ClassMetrics
	Total       int
}

// ClassificationReport computes precision, recall, F1 and support for every
// label. names are the display names of labels; when nil the numeric label is
// used. A zero denominator yields 0 and an UndefinedMetricWarning.
func ClassificationReport(yTrue, yPred *mat.VecDense, labels []int, names []string) (*Report, error) {
	if names != nil && len(names) != len(labels) {
		return nil, errors.NewDimensionMismatchError("ClassificationReport", len(labels), len(names), 0)
	}
	cm, err := ConfusionMatrix(yTrue, yPred, labels)
	if err != nil {
		return nil, err
	}

	k := len(labels)
	report := &Report{Total: yTrue.Len()}
	correct := 0.0
	for i := 0; i < k; i++ {
		tp := cm.At(i, i)
		correct += tp
		predicted := mat.Sum(cm.ColView(i))
		actual := mat.Sum(cm.RowView(i))

		name := fmt.Sprint(labels[i])
		if names != nil {
			name = names[i]
		}
		precision := ratio("precision", name, tp, predicted)
		recall := ratio("recall", name, tp, actual)
		f1 := ratio("f1-score", name, 2*precision*recall, precision+recall)

		report.Classes = append(report.Classes, ClassMetrics{
			Label:     labels[i],
			Name:      name,
			Precision: precision,
			Recall:    recall,
			F1:        f1,
			Support:   int(actual),
		})
	}
	report.Accuracy = correct / float64(report.Total)

	report.MacroAvg = ClassMetrics{Name: "macro avg", Support: report.Total}
	report.WeightedAvg = ClassMetrics{Name: "weighted avg", Support: report.Total}
	for _, c := range report.Classes {
		w := float64(c.Support) / float64(report.Total)
		report.MacroAvg.Precision += c.Precision / float64(k)
		report.MacroAvg.Recall += c.Recall / float64(k)
		report.MacroAvg.F1 += c.F1 / float64(k)
		report.WeightedAvg.Precision += c.Precision * w
		report.WeightedAvg.Recall += c.Recall * w
		report.WeightedAvg.F1 += c.F1 * w
	}
	return report, nil
}

func ratio(metric, class string, num, den float64) float64 {
	if den == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning(metric, "no samples for class "+class, 0))
		return 0
	}
	return num / den
}

// String renders the report as a fixed-width text table.
func (r *Report) String() string {
	width := len("weighted avg")
	for _, c := range r.Classes {
		if len(c.Name) > width {
			width = len(c.Name)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%*s %9s %9s %9s %9s\n\n", width, "", "precision", "recall", "f1-score", "support")
	row := func(c ClassMetrics) {
		fmt.Fprintf(&b, "%*s %9.2f %9.2f %9.2f %9d\n", width, c.Name, c.Precision, c.Recall, c.F1, c.Support)
	}
	for _, c := range r.Classes {
		row(c)
	}
	b.WriteString("\n")
	fmt.Fprintf(&b, "%*s %9s %9s %9.2f %9d\n", width, "accuracy", "", "", r.Accuracy, r.Total)
	row(r.MacroAvg)
	row(r.WeightedAvg)
	return b.String()
}
