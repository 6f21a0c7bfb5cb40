package log

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	oerrors "github.com/YuminosukeSato/oncolens/pkg/errors"
)

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]interface{} {
	t.Helper()
	var entries []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]interface{}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			t.Fatalf("invalid json line %q: %v", line, err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func TestZerologLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelInfo)

	logger.Debug("hidden")
	logger.Info("training started", SamplesKey, 398, FeaturesKey, 30)
	logger.Warn("slow convergence", IterationKey, 100)

	entries := decodeLines(t, &buf)
	if len(entries) != 2 {
		t.Fatalf("expected 2 records, got %d: %s", len(entries), buf.String())
	}
	if entries[0]["message"] != "training started" {
		t.Errorf("message = %v", entries[0]["message"])
	}
	if entries[0][SamplesKey] != 398.0 {
		t.Errorf("%s = %v, want 398", SamplesKey, entries[0][SamplesKey])
	}
	if entries[1]["level"] != "warn" {
		t.Errorf("level = %v, want warn", entries[1]["level"])
	}
}

func TestZerologLogger_Enabled(t *testing.T) {
	logger := NewLogger(&bytes.Buffer{}, LevelWarn)
	ctx := context.Background()

	if logger.Enabled(ctx, LevelInfo) {
		t.Error("info should be disabled at warn level")
	}
	if !logger.Enabled(ctx, LevelError) {
		t.Error("error should be enabled at warn level")
	}
}

func TestZerologLogger_ErrorWithStack(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug)

	err := oerrors.NewArtifactLoadError("model", "model.gob", fmt.Errorf("unexpected EOF"))
	logger.Error("load failed", err, ArtifactKey, "model.gob")

	entries := decodeLines(t, &buf)
	if len(entries) != 1 {
		t.Fatalf("expected 1 record, got %d", len(entries))
	}
	entry := entries[0]
	if !strings.Contains(fmt.Sprint(entry[ErrAttrKey]), "unexpected EOF") {
		t.Errorf("error field = %v", entry[ErrAttrKey])
	}
	if _, ok := entry[StacktraceAttrKey]; !ok {
		t.Error("expected stacktrace field")
	}
	detail, ok := entry[ErrAttrKey+".detail"].(map[string]interface{})
	if !ok {
		t.Fatalf("expected structured error detail, got %v", entry[ErrAttrKey+".detail"])
	}
	if detail["type"] != "ArtifactLoadError" {
		t.Errorf("detail type = %v", detail["type"])
	}
}

func TestZerologLogger_With(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, LevelDebug).With(ComponentKey, "pipeline", ModelNameKey, "LogisticRegression")

	logger.Info("fitted", OperationKey, OperationFit)

	entries := decodeLines(t, &buf)
	if entries[0][ComponentKey] != "pipeline" || entries[0][ModelNameKey] != "LogisticRegression" {
		t.Errorf("context fields missing: %v", entries[0])
	}
}

func TestSetup(t *testing.T) {
	var out bytes.Buffer
	file := filepath.Join(t.TempDir(), "oncolens.log")

	logger, closer, err := Setup(Options{Level: "debug", Format: "json", File: file, MaxSizeMB: 1, Output: &out})
	if err != nil {
		t.Fatalf("Setup() error = %v", err)
	}
	defer closer.Close()
	defer oerrors.SetZerologWarnFunc(nil)

	if GetLogger() != logger {
		t.Error("Setup should install the default logger")
	}

	oerrors.Warn(oerrors.NewConvergenceWarning("lbfgs", 100, "iteration limit"))
	if !strings.Contains(out.String(), "lbfgs failed to converge") {
		t.Errorf("warning not routed to logger: %s", out.String())
	}
}

func TestSetup_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{name: "level", opts: Options{Level: "verbose"}},
		{name: "format", opts: Options{Format: "xml"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, _, err := Setup(tt.opts); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestTestLogger(t *testing.T) {
	testLogger, _ := NewTestLogger(LevelInfo)

	testLogger.Debug("debug message")
	testLogger.With(ComponentKey, "dashboard").Info("request", "status", 200)
	testLogger.Error("failed", fmt.Errorf("boom"))

	if testLogger.ContainsMessage("debug message") {
		t.Error("debug record should be filtered")
	}
	if !testLogger.ContainsField(ComponentKey, "dashboard") {
		t.Error("With fields missing")
	}
	if !testLogger.ContainsField("status", 200.0) {
		t.Error("status field missing")
	}
	if !testLogger.ContainsField(ErrAttrKey, "boom") {
		t.Error("error field missing")
	}
}
