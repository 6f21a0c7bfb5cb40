// Package oncolens trains a breast-cancer classifier on cell-nuclei
// measurements and serves its predictions through an interactive dashboard.
//
// OncoLens reads the labelled WDBC CSV (a diagnosis column plus thirty
// features: ten measurements, each as mean, standard error and worst value),
// standardizes the features, fits an L2-regularized logistic regression and
// persists both the scaler and the model. The dashboard reloads them on every
// request, so retraining never needs a restart.
//
// # Installation
//
//	go install github.com/YuminosukeSato/oncolens/cmd/train@latest
//	go install github.com/YuminosukeSato/oncolens/cmd/app@latest
//
// # Quick Start
//
// Train once, then start the dashboard with the same configuration:
//
//	train -config oncolens.yaml
//	app -config oncolens.yaml
//
// The same workflow from Go:
//
//	cfg, err := config.Load("oncolens.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	result, err := pipeline.NewTrainer(cfg, nil).Train(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Print(result.Report)
//
//	p, err := pipeline.LoadPredictor(cfg.Artifacts.ScalerPath, cfg.Artifacts.ModelPath)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	pred, err := p.Predict(measurements) // map[string]float64 keyed by feature name
//
// # Packages
//
//   - dataset: CSV loading, the breast-cancer feature schema, train/test split
//   - preprocessing: StandardScaler for prediction, MinMaxScaler for display
//   - linear: LogisticRegression (L-BFGS or gradient descent)
//   - metrics: accuracy, Brier score, log loss, ROC AUC, classification report
//   - pipeline: training workflow, artifacts, inference, display ranges
//   - chart: radar chart rendering with gonum/plot
//   - dashboard: echo HTTP server for the sliders page and the JSON API
//   - config: YAML settings shared by both commands
//   - core/model: estimator state, feature schema, gob persistence
//   - pkg/errors, pkg/log: error taxonomy and zerolog-based logging
//
// # Disclaimer
//
// OncoLens can assist medical professionals in making a diagnosis, but it is
// not a substitute for a professional diagnosis.
package oncolens
