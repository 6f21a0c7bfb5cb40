package dataset

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/YuminosukeSato/oncolens/core/model"
)

// Measurements are the ten base cell-nucleus measurements, in column order.
var Measurements = []string{
	"radius",
	"texture",
	"perimeter",
	"area",
	"smoothness",
	"compactness",
	"concavity",
	"concave points",
	"symmetry",
	"fractal_dimension",
}

// Variants are the statistics recorded for every measurement.
var Variants = []string{"mean", "se", "worst"}

// DefaultLabelColumn is the diagnosis column of the breast-cancer CSV.
const DefaultLabelColumn = "diagnosis"

// Class labels.
const (
	Benign    = 0
	Malignant = 1
)

// ClassNames maps class labels to their display names.
var ClassNames = map[int]string{
	Benign:    "Benign",
	Malignant: "Malignant",
}

// FeatureName joins a measurement and a variant into a column name,
// e.g. FeatureName("concave points", "se") == "concave points_se".
func FeatureName(measurement, variant string) string {
	return measurement + "_" + variant
}

// SplitFeature is the inverse of FeatureName.
func SplitFeature(feature string) (measurement, variant string, ok bool) {
	i := strings.LastIndex(feature, "_")
	if i <= 0 || i == len(feature)-1 {
		return "", "", false
	}
	return feature[:i], feature[i+1:], true
}

// BreastCancerSchema returns the 30 features in canonical order: all means,
// then all standard errors, then all worst values.
func BreastCancerSchema() model.Schema {
	names := make([]string, 0, len(Measurements)*len(Variants))
	for _, v := range Variants {
		for _, m := range Measurements {
			names = append(names, FeatureName(m, v))
		}
	}
	return model.MustSchema(names...)
}

// MeasurementTitle は "fractal_dimension" を "Fractal dimension" に変換する
func MeasurementTitle(measurement string) string {
	words := strings.Fields(strings.ReplaceAll(measurement, "_", " "))
	if len(words) == 0 {
		return ""
	}
	// Caser は状態を持つので呼び出しごとに作る
	words[0] = cases.Title(language.English).String(words[0])
	return strings.Join(words, " ")
}

// Title returns the slider label of a feature, e.g. "Concave points (se)".
// Names that do not follow the measurement_variant pattern are only titled.
func Title(feature string) string {
	measurement, variant, ok := SplitFeature(feature)
	if !ok {
		return MeasurementTitle(feature)
	}
	return MeasurementTitle(measurement) + " (" + variant + ")"
}
