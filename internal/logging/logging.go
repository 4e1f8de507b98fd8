// Package logging builds the structured execution logger for scenario runs.
//
// Each run gets its own JSON log file in the output directory, recording
// lifecycle events (launch arguments, readiness, child exit, collected
// results). Human-facing output stays on the CLI's stderr; the log file is
// for post-run analysis next to the scenario result files.
package logging

import (
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewRunLogger creates a zap logger writing JSON to a timestamped file in
// outputDir. Returns the logger and the log file path. Callers must Sync
// the logger before exiting.
func NewRunLogger(outputDir string) (*zap.Logger, string, error) {
	path := filepath.Join(outputDir,
		fmt.Sprintf("carlactl-run-%s.log", time.Now().UTC().Format("20060102-150405")))

	cfg := zap.NewProductionConfig()
	cfg.Encoding = "json"
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.EncoderConfig.TimeKey = "timestamp"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, "", fmt.Errorf("build run logger: %w", err)
	}
	return logger, path, nil
}
