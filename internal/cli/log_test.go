package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerLevel(t *testing.T) {
	var buf bytes.Buffer
	l := newLogger(&buf, log.InfoLevel)

	l.Debug("hidden")
	l.Info("visible")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message passed info filter: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestLoggerContextRoundTrip(t *testing.T) {
	l := newLogger(&bytes.Buffer{}, log.DebugLevel)
	ctx := withLogger(context.Background(), l)

	if got := loggerFromContext(ctx); got != l {
		t.Error("logger from context is not the attached logger")
	}
}

func TestLoggerFromContextFallback(t *testing.T) {
	if got := loggerFromContext(context.Background()); got == nil {
		t.Error("no fallback logger returned")
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	p := newProgress(newLogger(&buf, log.InfoLevel))
	p.done("Finished run")

	if !strings.Contains(buf.String(), "Finished run") {
		t.Errorf("progress output missing message: %q", buf.String())
	}
}
