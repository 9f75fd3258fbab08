package startup

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"photoreel/internal/compositor"
	"photoreel/internal/logging"
	"photoreel/internal/transition"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Config holds all application configuration
type Config struct {
	PhotoDir   string
	OutputPath string

	PerPhoto    time.Duration
	Transition  time.Duration
	Style       transition.Style
	Width       int
	Height      int
	FrameRate   int
	BitrateKbps int

	MetricsEnabled bool
	MetricsPort    string
}

// LoadConfig parses command-line flags, applies environment overrides
// and validates the result. Flags win over environment variables.
func LoadConfig(args []string) (*Config, error) {
	fs := flag.NewFlagSet("photoreel", flag.ContinueOnError)

	photoDir := fs.String("in", getEnv("PHOTO_DIR", "."), "directory containing the source photos")
	outputPath := fs.String("out", getEnv("OUTPUT_PATH", "reel.mp4"), "path of the video file to write")
	perPhoto := fs.Duration("photo-duration", getEnvDuration("PHOTO_DURATION", 2*time.Second), "how long each photo is shown")
	transitionDur := fs.Duration("transition", getEnvDuration("TRANSITION_DURATION", 500*time.Millisecond), "duration of the blend between photos")
	styleName := fs.String("style", getEnv("TRANSITION_STYLE", string(transition.StyleCrossFade)), "transition style")
	size := fs.String("size", getEnv("OUTPUT_SIZE", "1280x720"), "output dimensions as WIDTHxHEIGHT")
	fps := fs.Int("fps", getEnvInt("FRAME_RATE", 30), "output frame rate")
	bitrate := fs.Int("bitrate", getEnvInt("BITRATE_KBPS", 0), "target bitrate in kbit/s (0 = encoder default)")
	metricsEnabled := fs.Bool("metrics", getEnvBool("METRICS_ENABLED", false), "serve Prometheus metrics while running")
	metricsPort := fs.String("metrics-port", getEnv("METRICS_PORT", "9090"), "metrics listener port")
	showVersion := fs.Bool("version", false, "print version and exit")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if *showVersion {
		info := GetBuildInfo()
		fmt.Printf("photoreel %s (%s, built %s, %s %s/%s)\n",
			info.Version, info.Commit, info.BuildTime, info.GoVersion, info.OS, info.Arch)
		os.Exit(0)
	}

	printBanner()
	logSystemInfo()

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  PHOTO_DIR:           %s", *photoDir)
	logging.Info("  OUTPUT_PATH:         %s", *outputPath)
	logging.Info("  PHOTO_DURATION:      %s", *perPhoto)
	logging.Info("  TRANSITION_DURATION: %s", *transitionDur)
	logging.Info("  TRANSITION_STYLE:    %s", *styleName)
	logging.Info("  OUTPUT_SIZE:         %s", *size)
	logging.Info("  FRAME_RATE:          %d", *fps)
	if *bitrate > 0 {
		logging.Info("  BITRATE_KBPS:        %d", *bitrate)
	} else {
		logging.Info("  BITRATE_KBPS:        (encoder default)")
	}
	logging.Info("  METRICS_ENABLED:     %v", *metricsEnabled)
	if *metricsEnabled {
		logging.Info("  METRICS_PORT:        %s", *metricsPort)
	}
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	style, err := transition.ParseStyle(*styleName)
	if err != nil {
		return nil, err
	}

	width, height, err := parseSize(*size)
	if err != nil {
		return nil, err
	}

	if *perPhoto <= 0 {
		return nil, fmt.Errorf("photo duration must be positive, got %s", *perPhoto)
	}
	if *transitionDur <= 0 || *transitionDur >= *perPhoto {
		return nil, fmt.Errorf("transition duration %s must be positive and shorter than the photo duration %s", *transitionDur, *perPhoto)
	}
	if *fps <= 0 {
		return nil, fmt.Errorf("frame rate must be positive, got %d", *fps)
	}

	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DIRECTORY SETUP")
	logging.Info("------------------------------------------------------------")

	absPhotoDir, err := filepath.Abs(*photoDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve photo directory path: %w", err)
	}
	logging.Info("  Photo directory (absolute): %s", absPhotoDir)

	info, err := os.Stat(absPhotoDir)
	if err != nil {
		return nil, fmt.Errorf("photo directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("photo directory %s is not a directory", absPhotoDir)
	}

	absOutput, err := filepath.Abs(*outputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output path: %w", err)
	}
	logging.Info("  Output path (absolute):     %s", absOutput)

	outDir := filepath.Dir(absOutput)
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	logging.Debug("  Testing output directory write access...")
	if err := testWriteAccess(outDir); err != nil {
		return nil, fmt.Errorf("output directory is not writable: %w", err)
	}
	logging.Info("  [OK] Output directory is writable")

	return &Config{
		PhotoDir:       absPhotoDir,
		OutputPath:     absOutput,
		PerPhoto:       *perPhoto,
		Transition:     *transitionDur,
		Style:          style,
		Width:          width,
		Height:         height,
		FrameRate:      *fps,
		BitrateKbps:    *bitrate,
		MetricsEnabled: *metricsEnabled,
		MetricsPort:    *metricsPort,
	}, nil
}

// CompositorOptions translates the validated config into pipeline options.
func (c *Config) CompositorOptions() compositor.Options {
	return compositor.Options{
		PerPhoto:    c.PerPhoto,
		Transition:  c.Transition,
		Style:       c.Style,
		Width:       c.Width,
		Height:      c.Height,
		FrameRate:   c.FrameRate,
		BitrateKbps: c.BitrateKbps,
		OutputPath:  c.OutputPath,
	}
}

// parseSize parses "1280x720" into width and height. The encoder
// requires even dimensions, so odd values are rejected here where the
// error message can still name the flag.
func parseSize(s string) (int, int, error) {
	parts := strings.SplitN(strings.ToLower(strings.TrimSpace(s)), "x", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid size %q, expected WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid width in size %q", s)
	}
	height, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("invalid height in size %q", s)
	}
	if width <= 0 || height <= 0 {
		return 0, 0, fmt.Errorf("size %q must be positive", s)
	}
	if width%2 != 0 || height%2 != 0 {
		return 0, 0, fmt.Errorf("size %q must have even dimensions", s)
	}
	return width, height, nil
}

// LogEncoderInit logs encoder setup and checks FFmpeg availability.
func LogEncoderInit() {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("ENCODER INITIALIZATION")
	logging.Info("------------------------------------------------------------")

	if err := checkFFmpeg(); err != nil {
		logging.Warn("  FFmpeg check failed: %v", err)
		logging.Warn("  Encoding will fail unless ffmpeg becomes available")
	} else {
		logging.Info("  [OK] FFmpeg is available")
	}
}

// LogScanStarted logs the start of the photo directory scan.
func LogScanStarted(dir string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("PHOTO SCAN")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Scanning %s...", dir)
}

// LogScanComplete logs the scan outcome.
func LogScanComplete(count int, duration time.Duration) {
	logging.Info("  [OK] Found %d photos in %v", count, duration.Round(time.Millisecond))
}

// LogMetricsStarted logs the metrics listener endpoint.
func LogMetricsStarted(port string) {
	logging.Info("")
	logging.Info("  Metrics:  http://localhost:%s/metrics", port)
	logging.Info("  Health:   http://localhost:%s/healthz", port)
}

// LogRunStarted logs the start of the composition run.
func LogRunStarted(config *Config, photoCount int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("COMPOSITION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Photos:     %d", photoCount)
	logging.Info("  Style:      %s", config.Style)
	logging.Info("  Output:     %dx%d @ %d fps", config.Width, config.Height, config.FrameRate)
	logging.Info("  Writing to: %s", config.OutputPath)
}

// LogRunComplete logs the final output and total runtime.
func LogRunComplete(outputPath string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("DONE")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Output:     %s", outputPath)
	logging.Info("  Total time: %v", duration.Round(time.Millisecond))
	logging.Info("")
}

// LogShutdownInitiated logs cancellation start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("CANCELLATION REQUESTED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// Helper functions

func printBanner() {
	banner := `
------------------------------------------------------------
    ____  __          __        ____            __
   / __ \/ /_  ____  / /_____  / __ \___  ___  / /
  / /_/ / __ \/ __ \/ __/ __ \/ /_/ / _ \/ _ \/ /
 / ____/ / / / /_/ / /_/ /_/ / _, _/  __/  __/ /
/_/   /_/ /_/\____/\__/\____/_/ |_|\___/\___/_/

------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		logging.Debug("  Goroutines:      %d", runtime.NumGoroutine())

		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}

		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}

	logging.Info("")
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
		// Don't return error since write access was confirmed
	}
	return nil
}

func checkFFmpeg() error {
	path, err := exec.LookPath("ffmpeg")
	if err != nil {
		return fmt.Errorf("ffmpeg not found in PATH")
	}
	logging.Debug("  FFmpeg path: %s", path)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffmpeg", "-version")
	output, err := cmd.Output()
	if err != nil {
		return fmt.Errorf("failed to get ffmpeg version: %w", err)
	}

	lines := strings.Split(string(output), "\n")
	if len(lines) > 0 {
		logging.Debug("  FFmpeg version: %s", strings.TrimSpace(lines[0]))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		logging.Warn("Invalid integer value for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		logging.Warn("Invalid duration value for %s: %q, using default: %s", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
