package logger

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestInitReturnsLogger(t *testing.T) {
	logg, err := Init("debug")
	if err != nil {
		t.Fatalf("Init returned error: %v", err)
	}
	if logg == nil {
		t.Fatal("expected logger instance")
	}
	if !logg.Core().Enabled(zapcore.DebugLevel) {
		t.Fatal("expected debug level enabled")
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		"warn":    zapcore.WarnLevel,
		"warning": zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
		"bogus":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
