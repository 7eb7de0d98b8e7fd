package logging

import (
	"bytes"
	"strings"
	"testing"
)

func TestNew_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug("hidden")
	logger.Info("shown")

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("debug message leaked at info level: %q", out)
	}
	if !strings.Contains(out, "shown") {
		t.Errorf("info message missing: %q", out)
	}
}

func TestNew_DebugLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug("resolving", "package", "@acme/init")

	out := buf.String()
	if !strings.Contains(out, "resolving") || !strings.Contains(out, "@acme/init") {
		t.Errorf("debug output missing fields: %q", out)
	}
}

func TestDiscard(t *testing.T) {
	// Must not panic.
	Discard().Error("nothing", "k", "v")
}
