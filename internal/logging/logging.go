// Package logging sets up file-backed structured logging. The TUI owns
// stdout, so logs go to a file under the state directory.
package logging

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Init builds the application logger writing to <stateDir>/freechat.log.
func Init(stateDir string, verbose bool) (*zap.Logger, error) {
	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create state dir")
	}

	cfg := zap.NewProductionConfig()
	cfg.OutputPaths = []string{filepath.Join(stateDir, "freechat.log")}
	cfg.ErrorOutputPaths = cfg.OutputPaths
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrap(err, "build logger")
	}
	return logger, nil
}
