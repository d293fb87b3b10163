package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/vart-team/vart/go-controller/pkg/vart"
	"github.com/vart-team/vart/go-controller/pkg/vartlang"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(append([]string{"--config", ""}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDemoAndDisasm(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "demo.vart")
	if _, err := run(t, "demo", "-o", path); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(b, vartlang.Demo()) {
		t.Errorf("demo wrote %d bytes, expected the built-in program", len(b))
	}

	out, err := run(t, "disasm", path)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) < 2 || !strings.Contains(lines[len(lines)-1], "quit") {
		t.Errorf("Unexpected listing:\n%s", out)
	}
}

func TestPreview(t *testing.T) {
	dir := t.TempDir()
	program := filepath.Join(dir, "p.vart")
	if err := os.WriteFile(program, vartlang.Demo(), 0644); err != nil {
		t.Fatal(err)
	}
	png := filepath.Join(dir, "p.png")
	if _, err := run(t, "preview", program, "-o", png); err != nil {
		t.Fatal(err)
	}
	if fi, err := os.Stat(png); err != nil || fi.Size() == 0 {
		t.Errorf("No preview written: %v", err)
	}
}

func TestConfig(t *testing.T) {
	out, err := run(t, "config")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "ticks_in_mm") {
		t.Errorf("Config output lacks pulley settings:\n%s", out)
	}
}

func TestSimulate(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.vart")
	var buf bytes.Buffer
	vartlang.NewWriter(&buf).SetPlannerMode(vart.ModePosition).SetProgress(100).SetPosition(0, 0).Quit()
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
	out, err := run(t, "simulate", path, "--timeout", "10s")
	if err != nil {
		t.Fatalf("simulate failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ExitOk") || !strings.Contains(out, "100%") {
		t.Errorf("Unexpected report:\n%s", out)
	}
}

func TestDisasmBadHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.vart")
	if err := os.WriteFile(path, []byte{0x02, 0x00}, 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := run(t, "disasm", path); err == nil {
		t.Errorf("Expected an error for a bad header")
	}
}
