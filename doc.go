// Package main provides the entry point for the PhotoReel application.
//
// PhotoReel turns a directory of photos into a single video: each photo
// is shown for a fixed duration and blended into the next with a
// configurable transition effect, then the frames are encoded through
// FFmpeg into an MP4.
//
// # Application Lifecycle
//
// The application follows a structured initialization sequence:
//
//  1. Configuration Loading: Parses flags and environment, validates
//     timing, geometry and directories
//  2. Memory Configuration: Sets GOMEMLIMIT from environment or cgroup limits
//  3. Decoder Initialization: Starts libvips for fast photo decoding,
//     falling back to pure-Go decoding when unavailable
//  4. Encoder Check: Verifies FFmpeg availability
//  5. Photo Scan: Walks the photo directory and probes each image in a
//     worker pool, ordered by capture time
//  6. Composition: Builds the frame schedule and streams composited
//     frames into the encoder
//  7. Cancellation: SIGINT/SIGTERM stops the run at the next frame
//     boundary and discards the partial output
//
// # Exit Codes
//
//   - 0: video written successfully
//   - 1: runtime failure (decode, allocation, encoder)
//   - 2: usage failure (bad configuration, no photos)
//   - 130: canceled by signal
//
// # Metrics
//
// With -metrics enabled a Prometheus endpoint is served on
// -metrics-port for the duration of the run, alongside a /healthz
// probe. This is aimed at long batch runs under supervision.
package main
