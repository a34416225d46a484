package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew_InteractiveWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "dashboard.log")

	logger, err := New(Options{Level: "info", File: path, Interactive: true})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	logger.Info("payload normalized", zap.Int("records", 3))
	logger.Debug("hidden")
	_ = logger.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"msg":"payload normalized"`) || !strings.Contains(text, `"records":3`) {
		t.Fatalf("unexpected log content: %s", text)
	}
	if strings.Contains(text, "hidden") {
		t.Fatalf("debug entry written at info level: %s", text)
	}
}

func TestNew_Levels(t *testing.T) {
	cases := []struct {
		opts Options
		want zapcore.Level
	}{
		{Options{}, zapcore.InfoLevel},
		{Options{Level: "WARN"}, zapcore.WarnLevel},
		{Options{Level: "error"}, zapcore.ErrorLevel},
		{Options{Level: "error", Verbose: true}, zapcore.DebugLevel},
	}
	for _, tc := range cases {
		logger, err := New(tc.opts)
		if err != nil {
			t.Fatalf("New(%+v): expected nil error, got %v", tc.opts, err)
		}
		if !logger.Core().Enabled(tc.want) {
			t.Fatalf("New(%+v): expected %s enabled", tc.opts, tc.want)
		}
		if tc.want > zapcore.DebugLevel && logger.Core().Enabled(tc.want-1) {
			t.Fatalf("New(%+v): expected %s disabled", tc.opts, tc.want-1)
		}
	}
}

func TestNew_InvalidLevel(t *testing.T) {
	if _, err := New(Options{Level: "chatty"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestDefaultFile(t *testing.T) {
	root := t.TempDir()
	t.Setenv("HOME", root)
	t.Setenv("XDG_CACHE_HOME", root)

	path, err := DefaultFile()
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if want := filepath.Join(root, "saneamento-dashboard", "dashboard.log"); path != want {
		t.Fatalf("expected %s, got %s", want, path)
	}
}
