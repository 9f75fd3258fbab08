// Package startup handles application initialization, configuration loading,
// and startup/shutdown logging.
//
// This package centralizes all application configuration and provides
// consistent logging throughout the composition run.
//
// # Configuration
//
// Configuration comes from command-line flags, with environment
// variables supplying the defaults, via [LoadConfig]:
//
//   - -in / PHOTO_DIR: Directory containing the source photos (default: .)
//   - -out / OUTPUT_PATH: Video file to write (default: reel.mp4)
//   - -photo-duration / PHOTO_DURATION: Display time per photo (default: 2s)
//   - -transition / TRANSITION_DURATION: Blend time between photos (default: 500ms)
//   - -style / TRANSITION_STYLE: Transition style (default: crossfade)
//   - -size / OUTPUT_SIZE: Output dimensions as WIDTHxHEIGHT (default: 1280x720)
//   - -fps / FRAME_RATE: Output frame rate (default: 30)
//   - -bitrate / BITRATE_KBPS: Target bitrate in kbit/s (default: encoder chooses)
//   - -metrics / METRICS_ENABLED: Serve Prometheus metrics while running (default: false)
//   - -metrics-port / METRICS_PORT: Metrics listener port (default: 9090)
//   - LOG_LEVEL: Logging level - debug, info, warn, error (default: info)
//   - REEL_WORKERS: Override for worker pool sizing
//   - MEMORY_LIMIT: Container memory limit for automatic GOMEMLIMIT configuration
//   - MEMORY_RATIO: Percentage of MEMORY_LIMIT for Go heap (default: 0.85)
//   - GOMEMLIMIT: Direct override for Go's memory limit
//
// # Validation
//
// LoadConfig rejects configurations the pipeline would reject later,
// where the error can still name the offending flag: unknown styles,
// odd or non-positive dimensions, transitions at least as long as the
// photo duration, and unreadable photo or unwritable output
// directories.
//
// # Build Information
//
// Build-time variables are injected via ldflags and exposed via [GetBuildInfo]:
//   - Version: Application version
//   - Commit: Git commit hash
//   - BuildTime: Build timestamp
//   - GoVersion: Go compiler version
//
// # Lifecycle Logging
//
// The package provides structured logging functions for consistent output:
//   - [LogEncoderInit]: Encoder setup and FFmpeg availability
//   - [LogScanStarted], [LogScanComplete]: Photo directory scan
//   - [LogMetricsStarted]: Metrics listener endpoints
//   - [LogRunStarted], [LogRunComplete]: Composition run
//   - [LogShutdownInitiated]: Cancellation on signal
package startup
