// Command train fits the scaler and the logistic regression on the labelled
// dataset, prints held-out scores and writes both artifacts.
//
//	train -config oncolens.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"github.com/YuminosukeSato/oncolens/config"
	"github.com/YuminosukeSato/oncolens/pipeline"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

func main() {
	configPath := flag.String("config", "", "path to oncolens.yaml (defaults are used when empty)")
	loglevel := flag.String("loglevel", "", "log level, overrides the config file. debug|info|warn|error")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "can not read configuration: %v\n", err)
		os.Exit(2)
	}
	if *loglevel != "" {
		cfg.Log.Level = *loglevel
	}
	logger, closer, err := log.Setup(cfg.LogOptions())
	if err != nil {
		fmt.Fprintf(os.Stderr, "can not set up logging: %v\n", err)
		os.Exit(2)
	}
	defer closer.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	result, err := pipeline.NewTrainer(cfg, logger).Train(ctx)
	if err != nil {
		logger.Error("Training failed", err)
		closer.Close()
		os.Exit(1)
	}

	fmt.Printf("Accuracy:    %.4f\n", result.Accuracy)
	fmt.Printf("Brier score: %.4f\n", result.Brier)
	fmt.Printf("Log loss:    %.4f\n", result.LogLoss)
	fmt.Printf("ROC AUC:     %.4f\n", result.AUC)
	fmt.Printf("Train/test:  %d/%d (%d iterations)\n\n", result.TrainSize, result.TestSize, result.Iterations)
	fmt.Print(result.Report)
	fmt.Printf("\nScaler written to %s\nModel written to %s\n", result.ScalerPath, result.ModelPath)
}
