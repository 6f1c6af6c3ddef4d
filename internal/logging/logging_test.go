package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestFromEnvReadsOverrides(t *testing.T) {
	t.Setenv("HOTRUN_LOG_LEVEL", "debug")
	t.Setenv("HOTRUN_LOG_FORMAT", "json")

	cfg := FromEnv()
	if cfg.Level != "debug" {
		t.Fatalf("level: got %q, want debug", cfg.Level)
	}
	if cfg.Format != "json" {
		t.Fatalf("format: got %q, want json", cfg.Format)
	}
}

func TestFromEnvDefaultsLevel(t *testing.T) {
	t.Setenv("HOTRUN_LOG_LEVEL", "")
	t.Setenv("HOTRUN_LOG_FORMAT", "")

	cfg := FromEnv()
	if cfg.Level != "info" {
		t.Fatalf("level: got %q, want info", cfg.Level)
	}
	if cfg.Format != "console" && cfg.Format != "json" {
		t.Fatalf("format: got %q, want console or json", cfg.Format)
	}
}

func TestNewHonorsLevel(t *testing.T) {
	logger := New(Config{Level: "warn", Format: "json"})
	if logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("info should be disabled at warn level")
	}
	if !logger.Core().Enabled(zapcore.WarnLevel) {
		t.Fatalf("warn should be enabled at warn level")
	}
}

func TestNewFallsBackOnBadLevel(t *testing.T) {
	logger := New(Config{Level: "loud", Format: "json"})
	if !logger.Core().Enabled(zapcore.InfoLevel) {
		t.Fatalf("unparseable level should fall back to info")
	}
	if logger.Core().Enabled(zapcore.DebugLevel) {
		t.Fatalf("debug should be disabled at the fallback level")
	}
}
