// Package errors はプロジェクト全体のエラーハンドリングと警告システムを提供します。
// scikit-learnの警告・例外システムにインスパイアされており、構造化されたエラー情報を提供します。
package errors

import (
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	グローバル警告ハンドリング
//
// ===========================================================================
var (
	warningMutex   sync.Mutex
	warningHandler = func(w error) {
		// デフォルトのハンドラは標準エラー出力にログを出す
		log.Printf("oncolens-Warning: %v\n", w)
	}
	// zerologロガー（循環importを避けるため遅延初期化）
	zerologWarnFunc func(warning error)
)

// SetWarningHandler sets the handler used for warnings when no zerolog
// function has been registered.
//
//	errors.SetWarningHandler(func(w error) {
//	    // 警告を無視する
//	})
func SetWarningHandler(handler func(w error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	warningHandler = handler
}

// SetZerologWarnFunc はzerolog警告関数を設定します（循環importを避けるため）。
// nil を渡すと従来のハンドラに戻ります。
func SetZerologWarnFunc(warnFunc func(warning error)) {
	warningMutex.Lock()
	defer warningMutex.Unlock()
	zerologWarnFunc = warnFunc
}

// Warn は警告を発生させます。
// zerologが利用可能な場合は構造化ログとして出力し、そうでなければ従来のハンドラを使用します。
func Warn(w error) {
	warningMutex.Lock()
	defer warningMutex.Unlock()

	if zerologWarnFunc != nil {
		zerologWarnFunc(w)
		return
	}

	if warningHandler != nil {
		warningHandler(w)
	}
}

// ===========================================================================
//
//	警告型
//
// ===========================================================================

// ConvergenceWarning は最適化アルゴリズムが収束しなかった場合に発生する警告です。
type ConvergenceWarning struct {
	Algorithm  string
	Iterations int
	Message    string
}

func (w *ConvergenceWarning) Error() string {
	if w.Message != "" {
		return fmt.Sprintf("%s failed to converge after %d iterations: %s", w.Algorithm, w.Iterations, w.Message)
	}
	return fmt.Sprintf("%s failed to converge after %d iterations. Consider increasing max_iter or adjusting parameters.", w.Algorithm, w.Iterations)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *ConvergenceWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("algorithm", w.Algorithm).
		Int("iterations", w.Iterations).
		Str("message", w.Message).
		Str("type", "ConvergenceWarning")
}

// NewConvergenceWarning は新しいConvergenceWarningを作成します。
func NewConvergenceWarning(algorithm string, iterations int, message string) *ConvergenceWarning {
	return &ConvergenceWarning{Algorithm: algorithm, Iterations: iterations, Message: message}
}

// UndefinedMetricWarning は評価指標が計算できない場合に発生する警告です。
// 例えば、適合率(precision)を計算する際に、陽性クラスの予測が一つもなかった場合など。
type UndefinedMetricWarning struct {
	Metric    string
	Condition string
	Result    float64 // この条件で返される値
}

func (w *UndefinedMetricWarning) Error() string {
	return fmt.Sprintf("'%s' is ill-defined and being set to %f due to %s.", w.Metric, w.Result, w.Condition)
}

// MarshalZerologObject はzerologのイベントに構造化された警告情報を追加します。
func (w *UndefinedMetricWarning) MarshalZerologObject(e *zerolog.Event) {
	e.Str("metric", w.Metric).
		Str("condition", w.Condition).
		Float64("result", w.Result).
		Str("type", "UndefinedMetricWarning")
}

// NewUndefinedMetricWarning は新しいUndefinedMetricWarningを作成します。
func NewUndefinedMetricWarning(metric, condition string, result float64) *UndefinedMetricWarning {
	return &UndefinedMetricWarning{Metric: metric, Condition: condition, Result: result}
}

// ===========================================================================
//
//	構造化されたエラー型
//
// ===========================================================================

// NotFittedError はモデルが未学習の状態で `Predict` や `Transform` を呼び出した場合のエラーです。
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("oncolens: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError は新しいNotFittedErrorを作成し、スタックトレースを付与します。
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionMismatchError is returned when a feature vector or matrix does not
// match the schema the scaler or model was fitted on. Missing and Unexpected
// are filled when the mismatch was detected by feature name.
type DimensionMismatchError struct {
	Op         string
	Expected   int
	Got        int
	Axis       int // 0 for rows, 1 for columns/features
	Missing    []string
	Unexpected []string
}

func (e *DimensionMismatchError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	msg := fmt.Sprintf("oncolens: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
	if len(e.Missing) > 0 {
		msg += fmt.Sprintf("; missing [%s]", strings.Join(e.Missing, ", "))
	}
	if len(e.Unexpected) > 0 {
		msg += fmt.Sprintf("; unexpected [%s]", strings.Join(e.Unexpected, ", "))
	}
	return msg
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DimensionMismatchError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Strs("missing", e.Missing).
		Strs("unexpected", e.Unexpected).
		Str("type", "DimensionMismatchError")
}

// NewDimensionMismatchError は新しいDimensionMismatchErrorを作成し、スタックトレースを付与します。
func NewDimensionMismatchError(op string, expected, got, axis int) error {
	err := &DimensionMismatchError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// NewFeatureMismatchError reports a by-name schema mismatch on the feature axis.
func NewFeatureMismatchError(op string, expected, got int, missing, unexpected []string) error {
	err := &DimensionMismatchError{
		Op:         op,
		Expected:   expected,
		Got:        got,
		Axis:       1,
		Missing:    missing,
		Unexpected: unexpected,
	}
	return errors.WithStack(err)
}

// DataFormatError is returned when a tabular input cannot be turned into a
// dataset: missing label or feature columns, unparsable cells, unknown labels.
// Row is 1-based and counts the header; zero means the error is not tied to a row.
type DataFormatError struct {
	Source string
	Row    int
	Column string
	Reason string
}

func (e *DataFormatError) Error() string {
	loc := e.Source
	if e.Row > 0 {
		loc = fmt.Sprintf("%s:%d", loc, e.Row)
	}
	if e.Column != "" {
		return fmt.Sprintf("oncolens: data format: %s: column %q: %s", loc, e.Column, e.Reason)
	}
	return fmt.Sprintf("oncolens: data format: %s: %s", loc, e.Reason)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DataFormatError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("source", e.Source).
		Int("row", e.Row).
		Str("column", e.Column).
		Str("reason", e.Reason).
		Str("type", "DataFormatError")
}

// NewDataFormatError は新しいDataFormatErrorを作成し、スタックトレースを付与します。
func NewDataFormatError(source string, row int, column, reason string) error {
	err := &DataFormatError{Source: source, Row: row, Column: column, Reason: reason}
	return errors.WithStack(err)
}

// DegenerateFeatureError marks a feature whose statistics make a transform
// undefined: zero variance for standardization, zero range for min-max scaling.
// Transforms substitute a fallback and pass it to Warn unless configured to fail.
type DegenerateFeatureError struct {
	Op      string
	Feature string
	Index   int
	Kind    string // "zero variance", "zero range"
}

func (e *DegenerateFeatureError) Error() string {
	name := e.Feature
	if name == "" {
		name = fmt.Sprintf("#%d", e.Index)
	}
	return fmt.Sprintf("oncolens: %s: degenerate feature %s: %s", e.Op, name, e.Kind)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *DegenerateFeatureError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("feature", e.Feature).
		Int("index", e.Index).
		Str("kind", e.Kind).
		Str("type", "DegenerateFeatureError")
}

// NewDegenerateFeatureError は新しいDegenerateFeatureErrorを作成し、スタックトレースを付与します。
func NewDegenerateFeatureError(op, feature string, index int, kind string) error {
	err := &DegenerateFeatureError{Op: op, Feature: feature, Index: index, Kind: kind}
	return errors.WithStack(err)
}

// ArtifactLoadError is returned when a persisted scaler or model cannot be read:
// the file is missing, the payload is corrupt, or its content is inconsistent.
// The cause is kept, so errors.Is(err, fs.ErrNotExist) identifies a first run.
type ArtifactLoadError struct {
	Artifact string // "scaler", "model"
	Path     string
	Err      error
}

func (e *ArtifactLoadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oncolens: load %s artifact %s: %v", e.Artifact, e.Path, e.Err)
	}
	return fmt.Sprintf("oncolens: load %s artifact %s", e.Artifact, e.Path)
}

func (e *ArtifactLoadError) Unwrap() error {
	return e.Err
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ArtifactLoadError) MarshalZerologObject(event *zerolog.Event) {
	cause := ""
	if e.Err != nil {
		cause = e.Err.Error()
	}
	event.Str("artifact", e.Artifact).
		Str("path", e.Path).
		Str("cause", cause).
		Str("type", "ArtifactLoadError")
}

// NewArtifactLoadError は新しいArtifactLoadErrorを作成し、スタックトレースを付与します。
func NewArtifactLoadError(artifact, path string, err error) error {
	return errors.WithStack(&ArtifactLoadError{Artifact: artifact, Path: path, Err: err})
}

// ValidationError は入力パラメータの検証に失敗した場合のエラーです。
// `ValueError`よりも具体的なバリデーションロジックの失敗を示します。
type ValidationError struct {
	ParamName string
	Reason    string
	Value     interface{}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("oncolens: validation failed for parameter '%s': %s (got: %v)", e.ParamName, e.Reason, e.Value)
}

// MarshalZerologObject はzerologのイベントに構造化されたエラー情報を追加します。
func (e *ValidationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param_name", e.ParamName).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ValidationError")
}

// NewValidationError は新しいValidationErrorを作成し、スタックトレースを付与します。
func NewValidationError(param, reason string, value interface{}) error {
	err := &ValidationError{ParamName: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// ValueError は引数の値が不適切または不正な場合に発生するエラーです。
type ValueError struct {
	Op      string
	Message string
}

func (e *ValueError) Error() string {
	return fmt.Sprintf("oncolens: %s: %s", e.Op, e.Message)
}

// NewValueError は新しいValueErrorを作成し、スタックトレースを付与します。
func NewValueError(op, message string) error {
	err := &ValueError{Op: op, Message: message}
	return errors.WithStack(err)
}

// ModelError は機械学習モデルに関する一般的なエラーです。
type ModelError struct {
	Op   string
	Kind string
	Err  error
}

func (e *ModelError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("oncolens: %s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("oncolens: %s: %s", e.Op, e.Kind)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError は新しいModelErrorを作成し、スタックトレースを付与します。
func NewModelError(op, kind string, err error) error {
	modelErr := &ModelError{Op: op, Kind: kind, Err: err}
	return errors.WithStack(modelErr)
}

// NumericalInstabilityError は数値計算が不安定になった場合のエラーです。
// NaN、Inf、オーバーフローなどを検出します。
type NumericalInstabilityError struct {
	Operation string    // 発生した操作（例: "loss", "gradient"）
	Values    []float64 // 問題のある値
	Iteration int       // 発生したイテレーション番号
}

func (e *NumericalInstabilityError) Error() string {
	valStr := ""
	for i, v := range e.Values {
		if i > 0 {
			valStr += ", "
		}
		if i >= 5 {
			valStr += "..."
			break
		}
		valStr += fmt.Sprintf("%.6g", v)
	}
	return fmt.Sprintf("oncolens: numerical instability detected in %s at iteration %d. Values: [%s]",
		e.Operation, e.Iteration, valStr)
}

// NewNumericalInstabilityError は新しいNumericalInstabilityErrorを作成します。
func NewNumericalInstabilityError(operation string, values []float64, iteration int) error {
	err := &NumericalInstabilityError{
		Operation: operation,
		Values:    values,
		Iteration: iteration,
	}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors ラッパー関数
//
// ===========================================================================

// Is はエラーが特定のターゲットエラーかどうかを判定します。
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As はエラーが特定の型にキャスト可能かどうかを判定します。
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap は既存のエラーをメッセージ付きでラップします。
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf は既存のエラーをフォーマット文字列でラップします。
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New は新しいエラーを作成します。
func New(message string) error {
	return errors.New(message)
}

// Newf は新しいフォーマット済みエラーを作成します。
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack はエラーにスタックトレースを付与します。
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	共通エラー変数
//
// ===========================================================================

var (
	// ErrEmptyData は空のデータが渡された場合のエラーです。
	ErrEmptyData = New("empty data")
)
