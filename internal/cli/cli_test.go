package cli

import (
	"bytes"
	"context"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"golang.org/x/image/bmp"

	"github.com/marben/mandelview/internal/landmarks"
	"github.com/marben/mandelview/internal/palette"
	"github.com/marben/mandelview/internal/zoom"
)

// executeCommand runs a cobra command with args and returns captured output
func executeCommand(root *cobra.Command, args ...string) (output string, err error) {
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err = root.Execute()
	return buf.String(), err
}

// isolate keeps the user's config out of the test and shrinks renders.
func isolate(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("MANDELVIEW_LOGGING_LEVEL", "error")
	t.Setenv("MANDELVIEW_CACHE_BACKEND", "none")
	t.Setenv("MANDELVIEW_ENGINE_RESOLUTION_X", "24")
	t.Setenv("MANDELVIEW_ENGINE_RESOLUTION_Y", "16")
	t.Setenv("MANDELVIEW_ENGINE_MAX_ITERATIONS", "40")
}

func TestRootCommand(t *testing.T) {
	if rootCmd.Use != "mandelview" {
		t.Errorf("rootCmd.Use = %q, want %q", rootCmd.Use, "mandelview")
	}

	expectedCmds := []string{"render", "view", "serve", "zoom", "regions", "schemes"}
	cmdMap := make(map[string]bool)
	for _, cmd := range rootCmd.Commands() {
		cmdMap[cmd.Name()] = true
	}
	for _, expected := range expectedCmds {
		if !cmdMap[expected] {
			t.Errorf("expected subcommand %q not found", expected)
		}
	}
}

func decodePNG(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return img.Bounds().Dx(), img.Bounds().Dy()
}

func TestRenderPositional(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "out.png")

	if output, err := executeCommand(rootCmd, "render", "-o", out, "--region", "", "--thumbnail", "0",
		"--", "-2.5", "1", "-1", "1", "50", "40", "30"); err != nil {
		t.Fatalf("render: %v\n%s", err, output)
	}
	if w, h := decodePNG(t, out); w != 40 || h != 30 {
		t.Errorf("image is %dx%d, want 40x30", w, h)
	}
}

func TestRenderFromConfigAndFlags(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	out := filepath.Join(dir, "default.png")
	if output, err := executeCommand(rootCmd, "render", "-o", out, "--region", "",
		"--width", "0", "--height", "0", "--iterations", "0", "--thumbnail", "0", "--annotate=false"); err != nil {
		t.Fatalf("render: %v\n%s", err, output)
	}
	if w, h := decodePNG(t, out); w != 24 || h != 16 {
		t.Errorf("configured size: image is %dx%d, want 24x16", w, h)
	}

	out = filepath.Join(dir, "seahorse.bmp")
	if output, err := executeCommand(rootCmd, "render", "-o", out, "--region", "Seahorse Valley",
		"--width", "32", "--height", "20", "--iterations", "60", "--scheme", "wiky", "--annotate", "--thumbnail", "0"); err != nil {
		t.Fatalf("render: %v\n%s", err, output)
	}
	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := bmp.Decode(f)
	if err != nil {
		t.Fatalf("decode bmp: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 20 {
		t.Errorf("bmp is %dx%d, want 32x20", b.Dx(), b.Dy())
	}
}

func TestRenderThumbnail(t *testing.T) {
	isolate(t)
	out := filepath.Join(t.TempDir(), "thumb.png")
	if output, err := executeCommand(rootCmd, "render", "-o", out, "--region", "",
		"--width", "64", "--height", "32", "--iterations", "0", "--thumbnail", "16", "--annotate=false"); err != nil {
		t.Fatalf("render: %v\n%s", err, output)
	}
	if w, h := decodePNG(t, out); w != 16 || h != 8 {
		t.Errorf("thumbnail is %dx%d, want 16x8", w, h)
	}
}

func TestRenderStdout(t *testing.T) {
	isolate(t)
	output, err := executeCommand(rootCmd, "render", "-o", "-", "--format", "png", "--region", "",
		"--width", "0", "--height", "0", "--iterations", "0", "--thumbnail", "0", "--annotate=false")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := png.Decode(strings.NewReader(output))
	if err != nil {
		t.Fatalf("stdout is not a PNG: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 24 || b.Dy() != 16 {
		t.Errorf("image is %dx%d, want 24x16", b.Dx(), b.Dy())
	}
}

func TestRenderErrors(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	reset := []string{"--width", "0", "--height", "0", "--iterations", "0", "--thumbnail", "0", "--format", "png"}

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"wrong argument count", []string{"-o", filepath.Join(dir, "a.png"), "--region", "", "1", "2", "3"}, "0 or 7 positional"},
		{"bad number", []string{"-o", filepath.Join(dir, "b.png"), "--region", "", "--", "left", "1", "-1", "1", "50", "40", "30"}, "argument 1"},
		{"inverted axis", []string{"-o", filepath.Join(dir, "c.png"), "--region", "", "--", "1", "-2", "-1", "1", "50", "40", "30"}, "x_interval"},
		{"degenerate resolution", []string{"-o", filepath.Join(dir, "d.png"), "--region", "", "--", "-2", "1", "-1", "1", "50", "1", "30"}, "resolution.x"},
		{"unknown landmark", []string{"-o", filepath.Join(dir, "e.png"), "--region", "atlantis"}, "unknown landmark"},
		{"unknown extension", []string{"-o", filepath.Join(dir, "f.gif"), "--region", ""}, "unsupported image extension"},
		{"unknown scheme", []string{"-o", filepath.Join(dir, "g.png"), "--region", "", "--scheme", "plaid"}, "plaid"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--scheme", ""}, reset...)
			args = append(args, tt.args...)
			_, err := executeCommand(rootCmd, args...)
			if err == nil {
				t.Fatal("expected an error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want it to mention %q", err, tt.want)
			}
		})
	}
}

func TestRegions(t *testing.T) {
	isolate(t)

	output, err := executeCommand(rootCmd, "regions", "--yaml=false")
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	if !strings.HasPrefix(output, "NAME") {
		t.Errorf("table header missing:\n%s", output)
	}
	for _, name := range landmarks.Builtin().Names() {
		if !strings.Contains(output, name) {
			t.Errorf("regions output is missing %q", name)
		}
	}

	output, err = executeCommand(rootCmd, "regions", "--yaml")
	if err != nil {
		t.Fatalf("regions --yaml: %v", err)
	}
	c := landmarks.Catalog{}
	if err := c.Merge(strings.NewReader(output)); err != nil {
		t.Fatalf("yaml output does not load back: %v", err)
	}
	if len(c) != len(landmarks.Builtin()) {
		t.Errorf("yaml round trip has %d regions, want %d", len(c), len(landmarks.Builtin()))
	}
}

func TestRegionsWithLandmarksFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "landmarks.yaml")
	doc := "landmarks:\n  - name: My Spot\n    x_min: -0.5\n    x_max: -0.4\n    y_min: 0.5\n    y_max: 0.6\n"
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("MANDELVIEW_LANDMARKS_FILE", path)

	output, err := executeCommand(rootCmd, "regions", "--yaml=false")
	if err != nil {
		t.Fatalf("regions: %v", err)
	}
	if !strings.Contains(output, "my-spot") {
		t.Errorf("custom landmark missing:\n%s", output)
	}
}

func TestSchemes(t *testing.T) {
	output, err := executeCommand(rootCmd, "schemes")
	if err != nil {
		t.Fatalf("schemes: %v", err)
	}
	if got, want := strings.Fields(output), palette.Names(); strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("schemes = %v, want %v", got, want)
	}
}

func TestZoom(t *testing.T) {
	isolate(t)
	dir := t.TempDir()

	output, err := executeCommand(rootCmd, "zoom", "seahorse-valley", "--from", "", "--frames", "3",
		"--ratio", "0", "--out", dir, "--parallel", "2", "--scheme", "")
	if err != nil {
		t.Fatalf("zoom: %v\n%s", err, output)
	}
	if !strings.Contains(output, "3 frames rendered, 0 skipped") {
		t.Errorf("unexpected summary: %q", output)
	}
	for i := range 3 {
		if w, h := decodePNG(t, filepath.Join(dir, zoom.FrameName(i))); w != 24 || h != 16 {
			t.Errorf("frame %d is %dx%d, want 24x16", i, w, h)
		}
	}

	output, err = executeCommand(rootCmd, "zoom", "seahorse-valley", "--from", "", "--frames", "3",
		"--ratio", "0", "--out", dir, "--parallel", "2", "--scheme", "")
	if err != nil {
		t.Fatalf("second zoom: %v", err)
	}
	if !strings.Contains(output, "0 frames rendered, 3 skipped") {
		t.Errorf("existing frames were not skipped: %q", output)
	}
}

func TestSetupLogDestination(t *testing.T) {
	tests := []struct {
		name       string
		configured bool
	}{
		{"configured file wins", true},
		{"default when unset", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			dir := t.TempDir()
			configured := filepath.Join(dir, "configured.log")
			fallback := filepath.Join(dir, "view.log")
			if tt.configured {
				t.Setenv("MANDELVIEW_LOGGING_FILE", configured)
			}
			initConfig()

			e, err := setup(context.Background(), fallback)
			if err != nil {
				t.Fatalf("setup: %v", err)
			}
			e.close()

			want, other := fallback, configured
			if tt.configured {
				want, other = configured, fallback
			}
			if _, err := os.Stat(want); err != nil {
				t.Errorf("log file %s not created: %v", filepath.Base(want), err)
			}
			if _, err := os.Stat(other); err == nil {
				t.Errorf("log file %s should not exist", filepath.Base(other))
			}
		})
	}
}
