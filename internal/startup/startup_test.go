package startup

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"photoreel/internal/transition"
)

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	// Check that all fields are populated
	if info.Version == "" {
		t.Error("Expected Version to be set")
	}
	if info.GoVersion == "" {
		t.Error("Expected GoVersion to be set")
	}
	if info.OS == "" {
		t.Error("Expected OS to be set")
	}
	if info.Arch == "" {
		t.Error("Expected Arch to be set")
	}

	if info.GoVersion != GoVersion {
		t.Errorf("Expected GoVersion=%s, got %s", GoVersion, info.GoVersion)
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		width   int
		height  int
		wantErr bool
	}{
		{name: "Standard 720p", input: "1280x720", width: 1280, height: 720},
		{name: "Uppercase separator", input: "1920X1080", width: 1920, height: 1080},
		{name: "Surrounding whitespace", input: " 640x480 ", width: 640, height: 480},
		{name: "Missing separator", input: "1280", wantErr: true},
		{name: "Non-numeric width", input: "widex720", wantErr: true},
		{name: "Non-numeric height", input: "1280xtall", wantErr: true},
		{name: "Zero width", input: "0x720", wantErr: true},
		{name: "Negative height", input: "1280x-720", wantErr: true},
		{name: "Odd width", input: "1281x720", wantErr: true},
		{name: "Odd height", input: "1280x721", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h, err := parseSize(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Errorf("parseSize(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseSize(%q) failed: %v", tt.input, err)
			}
			if w != tt.width || h != tt.height {
				t.Errorf("parseSize(%q) = %dx%d, want %dx%d", tt.input, w, h, tt.width, tt.height)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	photoDir := t.TempDir()
	outDir := t.TempDir()
	out := filepath.Join(outDir, "reel.mp4")

	config, err := LoadConfig([]string{
		"-in", photoDir,
		"-out", out,
		"-photo-duration", "3s",
		"-transition", "750ms",
		"-style", "slide",
		"-size", "640x480",
		"-fps", "24",
		"-bitrate", "4000",
	})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}

	if config.PhotoDir != photoDir {
		t.Errorf("PhotoDir = %q, want %q", config.PhotoDir, photoDir)
	}
	if config.OutputPath != out {
		t.Errorf("OutputPath = %q, want %q", config.OutputPath, out)
	}
	if config.PerPhoto != 3*time.Second {
		t.Errorf("PerPhoto = %s, want 3s", config.PerPhoto)
	}
	if config.Transition != 750*time.Millisecond {
		t.Errorf("Transition = %s, want 750ms", config.Transition)
	}
	if config.Style != transition.StyleSlide {
		t.Errorf("Style = %q, want slide", config.Style)
	}
	if config.Width != 640 || config.Height != 480 {
		t.Errorf("Size = %dx%d, want 640x480", config.Width, config.Height)
	}
	if config.FrameRate != 24 {
		t.Errorf("FrameRate = %d, want 24", config.FrameRate)
	}
	if config.BitrateKbps != 4000 {
		t.Errorf("BitrateKbps = %d, want 4000", config.BitrateKbps)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	photoDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "reel.mp4")

	config, err := LoadConfig([]string{"-in", photoDir, "-out", out})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.PerPhoto != 2*time.Second {
		t.Errorf("default PerPhoto = %s, want 2s", config.PerPhoto)
	}
	if config.Transition != 500*time.Millisecond {
		t.Errorf("default Transition = %s, want 500ms", config.Transition)
	}
	if config.Style != transition.StyleCrossFade {
		t.Errorf("default Style = %q, want crossfade", config.Style)
	}
	if config.Width != 1280 || config.Height != 720 {
		t.Errorf("default size = %dx%d, want 1280x720", config.Width, config.Height)
	}
	if config.FrameRate != 30 {
		t.Errorf("default FrameRate = %d, want 30", config.FrameRate)
	}
	if config.MetricsEnabled {
		t.Error("metrics enabled by default")
	}
}

func TestLoadConfigRejections(t *testing.T) {
	photoDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "reel.mp4")

	tests := []struct {
		name string
		args []string
	}{
		{name: "Unknown style", args: []string{"-style", "swirl"}},
		{name: "Odd dimensions", args: []string{"-size", "1281x721"}},
		{name: "Malformed size", args: []string{"-size", "huge"}},
		{name: "Transition equals photo duration", args: []string{"-photo-duration", "2s", "-transition", "2s"}},
		{name: "Transition exceeds photo duration", args: []string{"-photo-duration", "1s", "-transition", "2s"}},
		{name: "Zero frame rate", args: []string{"-fps", "0"}},
		{name: "Missing photo directory", args: []string{"-in", filepath.Join(photoDir, "nope")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"-in", photoDir, "-out", out}, tt.args...)
			if _, err := LoadConfig(args); err == nil {
				t.Errorf("LoadConfig(%v) succeeded, want error", tt.args)
			}
		})
	}
}

func TestLoadConfigEnvDefaults(t *testing.T) {
	photoDir := t.TempDir()
	out := filepath.Join(t.TempDir(), "reel.mp4")

	t.Setenv("TRANSITION_STYLE", "ripple")
	t.Setenv("PHOTO_DURATION", "5s")
	t.Setenv("FRAME_RATE", "60")

	config, err := LoadConfig([]string{"-in", photoDir, "-out", out})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Style != transition.StyleRipple {
		t.Errorf("Style = %q, want ripple from environment", config.Style)
	}
	if config.PerPhoto != 5*time.Second {
		t.Errorf("PerPhoto = %s, want 5s from environment", config.PerPhoto)
	}
	if config.FrameRate != 60 {
		t.Errorf("FrameRate = %d, want 60 from environment", config.FrameRate)
	}

	// Flags still win over the environment.
	config, err = LoadConfig([]string{"-in", photoDir, "-out", out, "-style", "zoom"})
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if config.Style != transition.StyleZoom {
		t.Errorf("Style = %q, want zoom from flag", config.Style)
	}
}

func TestCompositorOptions(t *testing.T) {
	config := &Config{
		PhotoDir:    "/photos",
		OutputPath:  "/out/reel.mp4",
		PerPhoto:    2 * time.Second,
		Transition:  500 * time.Millisecond,
		Style:       transition.StyleWipeLeft,
		Width:       1920,
		Height:      1080,
		FrameRate:   30,
		BitrateKbps: 8000,
	}

	opts := config.CompositorOptions()
	if opts.OutputPath != config.OutputPath {
		t.Errorf("OutputPath = %q, want %q", opts.OutputPath, config.OutputPath)
	}
	if opts.Style != config.Style {
		t.Errorf("Style = %q, want %q", opts.Style, config.Style)
	}
	if opts.Width != 1920 || opts.Height != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", opts.Width, opts.Height)
	}
	if opts.BitrateKbps != 8000 {
		t.Errorf("BitrateKbps = %d, want 8000", opts.BitrateKbps)
	}
}

func TestGetEnvDuration(t *testing.T) {
	tests := []struct {
		name         string
		envValue     string
		setEnv       bool
		defaultValue time.Duration
		want         time.Duration
	}{
		{name: "Unset returns default", defaultValue: time.Second, want: time.Second},
		{name: "Valid duration parsed", envValue: "250ms", setEnv: true, defaultValue: time.Second, want: 250 * time.Millisecond},
		{name: "Invalid falls back to default", envValue: "soon", setEnv: true, defaultValue: time.Second, want: time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := "TEST_DURATION_VAR"
			os.Unsetenv(key)
			if tt.setEnv {
				t.Setenv(key, tt.envValue)
			}
			if got := getEnvDuration(key, tt.defaultValue); got != tt.want {
				t.Errorf("getEnvDuration = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestGetEnvInt(t *testing.T) {
	key := "TEST_INT_VAR"
	os.Unsetenv(key)
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("getEnvInt(unset) = %d, want 42", got)
	}
	t.Setenv(key, "7")
	if got := getEnvInt(key, 42); got != 7 {
		t.Errorf("getEnvInt(7) = %d, want 7", got)
	}
	t.Setenv(key, "seven")
	if got := getEnvInt(key, 42); got != 42 {
		t.Errorf("getEnvInt(invalid) = %d, want default 42", got)
	}
}
