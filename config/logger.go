package config

import (
	"crypto/rand"
	"encoding/hex"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NodeID distinguishes this process in logs and events when several instances
// run behind the same gateway. Regenerated on every start.
var NodeID = newNodeID()

// RootLogger is the process-wide logger. Packages derive their own loggers
// from it with With fields rather than constructing new ones.
var RootLogger = newRootLogger(os.Getenv(ACT_LOG_LEVEL), os.Getenv(ACT_LOG_MODE))

// logger is for config package internals.
var logger = RootLogger

func newNodeID() string {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "node-unknown"
	}
	return hex.EncodeToString(b)
}

// newRootLogger builds a zap logger from the level and mode settings. Mode
// "console" is for development; everything else renders JSON lines.
func newRootLogger(level, mode string) *zap.Logger {
	lvl := zapcore.InfoLevel
	switch strings.ToLower(level) {
	case "debug":
		lvl = zapcore.DebugLevel
	case "", "info":
		lvl = zapcore.InfoLevel
	case "warn", "warning":
		lvl = zapcore.WarnLevel
	case "error":
		lvl = zapcore.ErrorLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if strings.ToLower(mode) == "console" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	return l.With(zap.String("node", NodeID))
}
