package cmd

import (
	"bytes"
	"image"
	"image/color"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
)

func discardLoggerFactory(slog.Leveler, string) *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

const testYAML = `
input_backend: dry-run
match_threshold: 0.8
scan_interval: 20ms
zones:
  - {name: up, x1: 100, x2: 180, y: 50, height: 80, key: up}
  - {name: down, x1: 200, x2: 280, y: 50, height: 80, key: down}
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand(discardLoggerFactory)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCheckCommand(t *testing.T) {
	path := writeConfig(t, testYAML)
	out, err := execute(t, "check", "--config", path)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	for _, want := range []string{"left=100 top=50 width=180 height=80", "up", "100,0", "48x48"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestCheckCommand_IgnoresInputBackend(t *testing.T) {
	path := writeConfig(t, strings.Replace(testYAML, "input_backend: dry-run", "input_backend: system", 1))
	if out, err := execute(t, "check", "--config", path); err != nil {
		t.Fatalf("check must not need a key backend: %v\n%s", err, out)
	}
}

func TestCheckCommand_InvalidZone(t *testing.T) {
	path := writeConfig(t, `
input_backend: dry-run
zones:
  - {name: up, x1: 100, x2: 100, y: 50, height: 80, key: up}
`)
	if _, err := execute(t, "check", "--config", path); err == nil {
		t.Fatalf("expected startup error for zero-width zone")
	}
}

func TestScoreCommand(t *testing.T) {
	path := writeConfig(t, testYAML)
	dir := t.TempDir()
	shot := image.NewNRGBA(image.Rect(0, 0, 300, 160))
	for i := 3; i < len(shot.Pix); i += 4 {
		shot.Pix[i] = 0xFF
	}
	// a red vertical bar is not an arrow
	for y := 60; y < 110; y++ {
		for x := 120; x < 130; x++ {
			shot.Set(x, y, color.NRGBA{R: 255, A: 255})
		}
	}
	imgPath := filepath.Join(dir, "shot.png")
	if err := imaging.Save(shot, imgPath); err != nil {
		t.Fatal(err)
	}
	dump := filepath.Join(dir, "dump")
	out, err := execute(t, "score", imgPath, "--config", path, "--dump", dump)
	if err != nil {
		t.Fatalf("score: %v\n%s", err, out)
	}
	if !strings.Contains(out, "ZONE") || !strings.Contains(out, "down") {
		t.Fatalf("unexpected output:\n%s", out)
	}
	if _, err := os.Stat(filepath.Join(dump, "up_masked.png")); err != nil {
		t.Fatalf("masked roi not dumped: %v", err)
	}
}

func TestScoreCommand_RequiresImage(t *testing.T) {
	if _, err := execute(t, "score"); err == nil {
		t.Fatalf("expected argument error")
	}
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]slog.Level{"": slog.LevelInfo, "debug": slog.LevelDebug, "WARN": slog.LevelWarn, "error": slog.LevelError} {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Errorf("ParseLevel(%q)=%v,%v want %v", in, got, err, want)
		}
	}
	if _, err := ParseLevel("loud"); err == nil {
		t.Errorf("expected error")
	}
}
