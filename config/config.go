// Package config loads the YAML settings shared by the trainer and the dashboard.
package config

import (
	"bytes"
	"io"
	"math"
	"os"
	"path/filepath"

	yaml "gopkg.in/yaml.v3"

	"github.com/YuminosukeSato/oncolens/pkg/errors"
	"github.com/YuminosukeSato/oncolens/pkg/log"
)

// Config is the root of oncolens.yaml.
type Config struct {
	Dataset   Dataset   `yaml:"dataset"`
	Artifacts Artifacts `yaml:"artifacts"`
	Training  Training  `yaml:"training"`
	Server    Server    `yaml:"server"`
	Log       Log       `yaml:"log"`
}

// Dataset locates the labelled CSV.
type Dataset struct {
	Path        string `yaml:"path"`
	LabelColumn string `yaml:"label_column"`
}

// Artifacts locates the persisted scaler and model.
type Artifacts struct {
	ScalerPath string `yaml:"scaler_path"`
	ModelPath  string `yaml:"model_path"`
}

// Training holds split and classifier hyperparameters.
type Training struct {
	TestSize    float64 `yaml:"test_size"`
	RandomState int64   `yaml:"random_state"`
	Stratify    bool    `yaml:"stratify"`
	C           float64 `yaml:"c"`
	MaxIter     int     `yaml:"max_iter"`
	Tol         float64 `yaml:"tol"`
	Solver      string  `yaml:"solver"`
}

// Server configures the dashboard listener.
type Server struct {
	Addr string `yaml:"addr"`
}

// Log mirrors log.Options.
type Log struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"`
	File       string `yaml:"file"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the settings used when no file is given.
func Default() Config {
	return Config{
		Dataset: Dataset{
			Path:        filepath.Join("dataset", "cdata.csv"),
			LabelColumn: "diagnosis",
		},
		Artifacts: Artifacts{
			ScalerPath: "scaler.gob",
			ModelPath:  "model.gob",
		},
		Training: Training{
			TestSize:    0.3,
			RandomState: 42,
			C:           1.0,
			MaxIter:     100,
			Tol:         1e-4,
			Solver:      "lbfgs",
		},
		Server: Server{Addr: ":8501"},
		Log: Log{
			Level:      "info",
			Format:     "json",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
// Relative dataset and artifact paths are resolved against the directory of
// the file, so the trainer and the dashboard agree regardless of their
// working directories.
func Load(path string) (Config, error) {
	if path == "" {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Parse(buf)
	if err != nil {
		return Config{}, errors.Wrapf(err, "parse config %s", path)
	}
	cfg.resolve(filepath.Dir(path))
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
// Unknown keys are rejected.
func Parse(buf []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(buf))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, errors.NewValidationError("config", err.Error(), nil)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	switch {
	case c.Dataset.Path == "":
		return errors.NewValidationError("dataset.path", "must not be empty", c.Dataset.Path)
	case c.Dataset.LabelColumn == "":
		return errors.NewValidationError("dataset.label_column", "must not be empty", c.Dataset.LabelColumn)
	case c.Artifacts.ScalerPath == "":
		return errors.NewValidationError("artifacts.scaler_path", "must not be empty", c.Artifacts.ScalerPath)
	case c.Artifacts.ModelPath == "":
		return errors.NewValidationError("artifacts.model_path", "must not be empty", c.Artifacts.ModelPath)
	case c.Artifacts.ScalerPath == c.Artifacts.ModelPath:
		return errors.NewValidationError("artifacts", "scaler and model paths must differ", c.Artifacts.ModelPath)
	case !(c.Training.TestSize > 0 && c.Training.TestSize < 1):
		return errors.NewValidationError("training.test_size", "must be in (0, 1)", c.Training.TestSize)
	case !(c.Training.C > 0) || math.IsInf(c.Training.C, 0):
		return errors.NewValidationError("training.c", "must be positive", c.Training.C)
	case c.Training.MaxIter <= 0:
		return errors.NewValidationError("training.max_iter", "must be positive", c.Training.MaxIter)
	case !(c.Training.Tol > 0):
		return errors.NewValidationError("training.tol", "must be positive", c.Training.Tol)
	case c.Training.Solver != "lbfgs" && c.Training.Solver != "gd":
		return errors.NewValidationError("training.solver", "must be lbfgs or gd", c.Training.Solver)
	case c.Server.Addr == "":
		return errors.NewValidationError("server.addr", "must not be empty", c.Server.Addr)
	}
	if _, err := log.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.Format != "json" && c.Log.Format != "console" {
		return errors.NewValidationError("log.format", "must be json or console", c.Log.Format)
	}
	return nil
}

// LogOptions converts the log section for log.Setup.
func (c Config) LogOptions() log.Options {
	return log.Options{
		Level:      c.Log.Level,
		Format:     c.Log.Format,
		File:       c.Log.File,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
	}
}

func (c *Config) resolve(dir string) {
	for _, p := range []*string{&c.Dataset.Path, &c.Artifacts.ScalerPath, &c.Artifacts.ModelPath, &c.Log.File} {
		if *p != "" && !filepath.IsAbs(*p) {
			*p = filepath.Join(dir, *p)
		}
	}
}
