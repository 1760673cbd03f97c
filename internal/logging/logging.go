// Package logging holds the plugin's debug logger. Hooks must keep stdout
// clean for report text, so log output goes to a file and only when a path
// is configured.
package logging

import (
	"go.uber.org/zap"
)

var Logger *zap.SugaredLogger = zap.NewNop().Sugar()

// Init points the logger at path. An empty path disables logging. A path
// that cannot be opened also disables logging: a hook never dies over its
// own diagnostics.
func Init(path string) {
	if path == "" {
		Logger = zap.NewNop().Sugar()
		return
	}
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	logger, err := cfg.Build()
	if err != nil {
		Logger = zap.NewNop().Sugar()
		return
	}
	Logger = logger.Sugar()
}

// Sync flushes buffered log entries. Safe to call when logging is disabled.
func Sync() {
	_ = Logger.Sync()
}
