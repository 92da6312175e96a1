package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNewLogger_Levels(t *testing.T) {
	tests := []struct {
		name  string
		level string
		want  logrus.Level
	}{
		{name: "debug", level: "debug", want: logrus.DebugLevel},
		{name: "warn", level: "warn", want: logrus.WarnLevel},
		{name: "upper case", level: "ERROR", want: logrus.ErrorLevel},
		{name: "unknown falls back to info", level: "loud", want: logrus.InfoLevel},
		{name: "empty falls back to info", level: "", want: logrus.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := NewLogger(tt.level, &bytes.Buffer{})
			if logger.GetLevel() != tt.want {
				t.Errorf("level = %v, want %v", logger.GetLevel(), tt.want)
			}
		})
	}
}

func TestNewLogger_WritesFields(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger("info", &buf)

	logger.WithField("plugin", "radiation").Info("probe")
	logger.Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "plugin=radiation") || !strings.Contains(out, "msg=probe") {
		t.Errorf("unexpected output: %s", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message written at info level: %s", out)
	}
}

func TestDiscardLogger(t *testing.T) {
	logger := DiscardLogger()
	logger.Error("nothing")
}

func TestValidLogLevel(t *testing.T) {
	for _, level := range []string{"trace", "debug", "info", "warn", "warning", "error", "fatal", "panic"} {
		if !ValidLogLevel(level) {
			t.Errorf("ValidLogLevel(%q) = false", level)
		}
	}
	if ValidLogLevel("verbose") {
		t.Error("ValidLogLevel(verbose) = true")
	}
}
