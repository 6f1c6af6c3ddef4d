// Package logging constructs the supervisor's structured logger.
//
// Child process output never flows through here; children write straight to
// the inherited terminal. The logger itself writes to stderr so lifecycle
// lines stay out of the byte streams the children share.
package logging

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/term"
)

// Config holds the logger configuration.
type Config struct {
	Level  string // debug, info, warn, error
	Format string // console or json
}

// FromEnv builds a Config from HOTRUN_LOG_LEVEL and HOTRUN_LOG_FORMAT,
// defaulting to info level and a format chosen by terminal detection.
// Unparseable values fall back to the defaults.
func FromEnv() Config {
	cfg := Config{Level: "info", Format: detectFormat()}
	if value := os.Getenv("HOTRUN_LOG_LEVEL"); value != "" {
		cfg.Level = value
	}
	if value := os.Getenv("HOTRUN_LOG_FORMAT"); value != "" {
		cfg.Format = value
	}
	return cfg
}

// New creates a logger with the given configuration.
func New(cfg Config) *zap.Logger {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "timestamp"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.LowercaseLevelEncoder

	var encoder zapcore.Encoder
	// Accept both "console" and "text" as aliases for human-readable output.
	if cfg.Format == "console" || cfg.Format == "text" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stderr), level)
	return zap.New(core)
}

func parseLevel(level string) (zapcore.Level, error) {
	var l zapcore.Level
	err := l.UnmarshalText([]byte(level))
	return l, err
}

// detectFormat picks console output when stderr is a terminal and JSON when
// it is redirected.
func detectFormat() string {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return "console"
	}
	return "json"
}
