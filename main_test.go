package main

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/df07/go-pathtracer/pkg/config"
	"github.com/df07/go-pathtracer/pkg/imageio"
	"github.com/df07/go-pathtracer/pkg/renderer"
	"github.com/df07/go-pathtracer/pkg/scene"
)

// runApp runs the CLI with an env file that does not exist, so only flags apply
func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout bytes.Buffer
	app := newApp(&stdout)
	full := append([]string{"pathtracer", "--env", filepath.Join(t.TempDir(), "none.env")}, args...)
	err := app.Run(full)
	return stdout.String(), err
}

func TestCreateScene(t *testing.T) {
	tests := []struct {
		name        string
		sceneType   string
		expectError bool
	}{
		{"random scene", "random", false},
		{"materials scene", "materials", false},
		{"diffuse scene", "diffuse", false},
		{"normals scene", "normals", false},
		{"gradient scene", "gradient", false},
		{"case insensitive", "Random", false},

		{"unknown scene", "cornell", true},
		{"empty scene name", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Scene = tt.sceneType
			s, err := createScene(cfg, sceneOverrides{})

			if tt.expectError {
				if !errors.Is(err, scene.ErrUnknownScene) {
					t.Errorf("Expected ErrUnknownScene for scene type '%s', got %v", tt.sceneType, err)
				}
				if s != nil {
					t.Errorf("Expected nil scene for invalid scene type '%s'", tt.sceneType)
				}
				return
			}

			if err != nil {
				t.Fatalf("Unexpected error for scene type '%s': %v", tt.sceneType, err)
			}
			if s.SamplingConfig.Width <= 0 || s.SamplingConfig.Height <= 0 {
				t.Errorf("Scene size should be positive, got %dx%d", s.SamplingConfig.Width, s.SamplingConfig.Height)
			}
			if err := s.Validate(); err != nil {
				t.Errorf("Expected a valid scene, got %v", err)
			}
		})
	}
}

func TestCreateScene_Overrides(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "diffuse"
	cfg.Width = 100
	cfg.Samples = 3
	cfg.MaxDepth = 4
	cfg.Workers = 2

	s, err := createScene(cfg, sceneOverrides{vfov: ptr(float32(45))})
	if err != nil {
		t.Fatalf("createScene failed: %v", err)
	}

	sc := s.SamplingConfig
	if sc.Width != 100 || sc.SamplesPerPixel != 3 || sc.MaxDepth != 4 || sc.NumWorkers != 2 {
		t.Errorf("Expected overrides applied, got %+v", sc)
	}
	if sc.Seed != cfg.Seed {
		t.Errorf("Expected seed %d, got %d", cfg.Seed, sc.Seed)
	}
	if s.CameraConfig.VFov != 45 {
		t.Errorf("Expected vfov 45, got %f", s.CameraConfig.VFov)
	}
}

func TestCreateScene_ZeroOverrides(t *testing.T) {
	cfg := config.Default()
	cfg.Scene = "random"
	cfg.Width = 16

	s, err := createScene(cfg, sceneOverrides{
		maxDepth: ptr(0),
		workers:  ptr(0),
		aperture: ptr(float32(0)),
	})
	if err != nil {
		t.Fatalf("createScene failed: %v", err)
	}

	if s.SamplingConfig.MaxDepth != 0 {
		t.Errorf("Expected max depth 0, got %d", s.SamplingConfig.MaxDepth)
	}
	if s.CameraConfig.Aperture != 0 {
		t.Errorf("Expected pinhole aperture 0, got %f", s.CameraConfig.Aperture)
	}
	if got := s.Camera.Config().Aperture; got != 0 {
		t.Errorf("Expected camera rebuilt with aperture 0, got %f", got)
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Expected a valid scene, got %v", err)
	}

	// Without overrides the scene keeps its defaults
	s, err = createScene(cfg, sceneOverrides{})
	if err != nil {
		t.Fatalf("createScene failed: %v", err)
	}
	if s.SamplingConfig.MaxDepth != 50 || s.CameraConfig.Aperture != 0.1 {
		t.Errorf("Expected scene defaults, got depth %d and aperture %f",
			s.SamplingConfig.MaxDepth, s.CameraConfig.Aperture)
	}
}

func TestRenderCommand_ZeroMaxDepthIsBlack(t *testing.T) {
	out, err := runApp(t, "render", "--scene", "random", "--width", "8", "--samples", "1",
		"--max-depth", "0", "--aperture", "0", "-o", "-")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) <= 3 {
		t.Fatalf("Expected pixel lines, got %q", out)
	}
	for i, line := range lines[3:] {
		if line != "0 0 0" {
			t.Fatalf("Expected black pixel %d with zero bounces, got %q", i, line)
		}
	}
}

func TestRenderCommand_ZeroValuesRejected(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"zero samples", []string{"--width", "4", "--samples", "0"}},
		{"zero width", []string{"--width", "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"render", "--scene", "gradient", "-o", "-"}, tt.args...)
			_, err := runApp(t, args...)
			if !errors.Is(err, renderer.ErrInvalidSampling) {
				t.Errorf("Expected ErrInvalidSampling, got %v", err)
			}
		})
	}
}

func TestRenderCommand_PPMToStdout(t *testing.T) {
	out, err := runApp(t, "render", "--scene", "gradient", "--width", "4", "--output", "-")
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 3+16 {
		t.Fatalf("Expected 3 header lines and 16 pixels, got %d lines", len(lines))
	}
	if lines[0] != "P3" || lines[1] != "4 4" || lines[2] != "255" {
		t.Errorf("Unexpected header %q", lines[:3])
	}
	// Top-left pixel: red 0, green 1, blue 0.25
	if lines[3] != "0 255 64" {
		t.Errorf("Expected top-left pixel '0 255 64', got %q", lines[3])
	}
}

func TestRenderCommand_FileAndThumbnail(t *testing.T) {
	dir := t.TempDir()
	output := filepath.Join(dir, "diffuse.png")

	_, err := runApp(t, "render", "--scene", "diffuse", "--width", "32", "--samples", "2",
		"--max-depth", "3", "--workers", "2", "--thumbnail", "8", "-o", output)
	if err != nil {
		t.Fatalf("render failed: %v", err)
	}

	img, err := imageio.Open(output)
	if err != nil {
		t.Fatalf("Failed to open render: %v", err)
	}
	if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 18 {
		t.Errorf("Expected 32x18, got %v", img.Bounds())
	}

	thumb, err := imageio.Open(filepath.Join(dir, "diffuse_thumb.png"))
	if err != nil {
		t.Fatalf("Failed to open thumbnail: %v", err)
	}
	if thumb.Bounds().Dx() > 8 || thumb.Bounds().Dy() > 8 {
		t.Errorf("Thumbnail %v exceeds 8x8", thumb.Bounds())
	}
}

func TestRenderCommand_PublishWithoutBucket(t *testing.T) {
	t.Setenv("PATHTRACER_S3_BUCKET", "")
	output := filepath.Join(t.TempDir(), "g.ppm")
	_, err := runApp(t, "render", "--scene", "gradient", "--width", "2", "--publish", "-o", output)
	if err == nil || !strings.Contains(err.Error(), "bucket") {
		t.Errorf("Expected a missing bucket error, got %v", err)
	}
}

func TestRenderCommand_UnknownScene(t *testing.T) {
	_, err := runApp(t, "render", "--scene", "nonexistent", "-o", "-")
	if !errors.Is(err, scene.ErrUnknownScene) {
		t.Errorf("Expected ErrUnknownScene, got %v", err)
	}
}

func TestConvertAndInspect(t *testing.T) {
	dir := t.TempDir()
	ppm := filepath.Join(dir, "gradient.ppm")
	png := filepath.Join(dir, "gradient.png")

	if _, err := runApp(t, "render", "--scene", "gradient", "--width", "16", "-o", ppm); err != nil {
		t.Fatalf("render failed: %v", err)
	}

	out, err := runApp(t, "convert", "--width", "8", ppm, png)
	if err != nil {
		t.Fatalf("convert failed: %v", err)
	}
	if !strings.Contains(out, "(8x8)") {
		t.Errorf("Expected converted size in output, got %q", out)
	}

	out, err = runApp(t, "inspect", ppm)
	if err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	// Blue is constant 0.25 across the gradient
	if !strings.Contains(out, "16x16") || !strings.Contains(out, ", 64)") {
		t.Errorf("Unexpected inspect output %q", out)
	}
}

func TestConvert_MissingArgs(t *testing.T) {
	if _, err := runApp(t, "convert", "only-one.ppm"); err == nil {
		t.Error("Expected an error with one argument")
	}
}

func TestScenesCommand(t *testing.T) {
	out, err := runApp(t, "scenes")
	if err != nil {
		t.Fatalf("scenes failed: %v", err)
	}
	for _, info := range scene.List() {
		if !strings.Contains(out, info.ID) {
			t.Errorf("Expected %q in scene list %q", info.ID, out)
		}
	}
}
