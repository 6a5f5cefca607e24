package tui

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestNewRenderer(t *testing.T) {
	render, err := NewRenderer(0)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := render("**Chlorophyll** is a *green* pigment.")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "Chlorophyll") || !strings.Contains(out, "pigment") {
		t.Errorf("expected rendered text to keep the answer, got %q", out)
	}
}

func TestWidth_NotATerminal(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "out")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	if IsTerminal(f) {
		t.Error("temp file reported as terminal")
	}
	if got := Width(f); got != DefaultWidth {
		t.Errorf("expected %d, got %d", DefaultWidth, got)
	}
	if IsTerminal(nil) {
		t.Error("nil file reported as terminal")
	}
}

func TestPrintBanner(t *testing.T) {
	var buf bytes.Buffer
	PrintBanner(&buf, "0.1.0\n")

	out := buf.String()
	if !strings.Contains(out, "|_|") {
		t.Errorf("expected ascii art, got %q", out)
	}
	if !strings.Contains(out, "v0.1.0") {
		t.Errorf("expected version, got %q", out)
	}
}
