package encoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"photoreel/internal/logging"
	"photoreel/internal/metrics"
	"photoreel/internal/raster"
	"photoreel/internal/timeline"
)

// Sentinel errors for sink operations.
var (
	// ErrInvalidState indicates a sink method was called outside the
	// state it is valid in (append before start, finish twice, ...).
	// This is a programming error and fails fast rather than risking a
	// corrupt container.
	ErrInvalidState = errors.New("encoder: operation invalid in current state")

	// ErrInit indicates the encoder could not be configured or started.
	ErrInit = errors.New("encoder: failed to start")

	// ErrWrite indicates a frame append failed mid-stream.
	ErrWrite = errors.New("encoder: frame write failed")

	// ErrFinalize indicates the container could not be flushed.
	ErrFinalize = errors.New("encoder: finalize failed")

	// ErrNonMonotonic indicates an append with a presentation time
	// earlier than an already appended frame.
	ErrNonMonotonic = errors.New("encoder: non-monotonic presentation timestamp")
)

// State tracks the sink lifecycle.
type State int

const (
	// StateUninitialized is the state before Start.
	StateUninitialized State = iota
	// StateConfiguring is the transient state while Start runs.
	StateConfiguring
	// StateWriting accepts Append calls.
	StateWriting
	// StateFinishing is the transient state while Finish runs.
	StateFinishing
	// StateCompleted is the terminal success state.
	StateCompleted
	// StateFailed is the terminal failure state.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConfiguring:
		return "configuring"
	case StateWriting:
		return "writing"
	case StateFinishing:
		return "finishing"
	case StateCompleted:
		return "completed"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Settings configures the encoder output.
type Settings struct {
	Width       int
	Height      int
	FrameRate   int    // output frames per second
	BitrateKbps int    // average video bitrate
	Preset      string // libx264 preset
}

// DefaultSettings returns the settings used when fields are zero.
func DefaultSettings() Settings {
	return Settings{
		FrameRate:   30,
		BitrateKbps: 4000,
		Preset:      "medium",
	}
}

func (s Settings) withDefaults() Settings {
	def := DefaultSettings()
	if s.FrameRate <= 0 {
		s.FrameRate = def.FrameRate
	}
	if s.BitrateKbps <= 0 {
		s.BitrateKbps = def.BitrateKbps
	}
	if s.Preset == "" {
		s.Preset = def.Preset
	}
	return s
}

// Sink is the streaming video encoder boundary. Frames are appended in
// non-decreasing presentation order; Append blocks while the encoder
// is not ready for more input. Finish is one-shot and only valid after
// the last Append.
type Sink interface {
	Start(ctx context.Context, outputPath string) error
	Append(buf *raster.FrameBuffer, pts timeline.Timestamp) error
	Finish() (string, error)
	Discard()
}

// process is the seam between the sink and the encoder process, so the
// state machine can be exercised without ffmpeg installed.
type process struct {
	stdin io.WriteCloser
	wait  func() error
	kill  func()
}

// launcher starts the underlying encoder process for an output path.
type launcher func(ctx context.Context, outputPath string, s Settings) (*process, error)

const (
	// queueDepth bounds the frames in flight between Append and the
	// encoder pipe. Small on purpose: the encoder, not the caller,
	// paces ingestion.
	queueDepth = 4

	// defaultPollInterval bounds how often a blocked Append re-checks
	// for encoder death or cancellation.
	defaultPollInterval = 100 * time.Millisecond
)

// FFmpegSink encodes raw BGRA frames into an MP4 via an ffmpeg
// subprocess. Variable-duration schedule entries are mapped onto
// ffmpeg's fixed frame grid with a hold-previous rule: each appended
// frame is emitted for the number of grid slots between its timestamp
// and the next one, and Finish flushes the final held frame.
//
// The sink is single-writer: Start, Append, Finish and Discard must be
// called from one goroutine.
type FFmpegSink struct {
	settings Settings
	launch   launcher
	poll     time.Duration

	state      State
	ctx        context.Context
	outputPath string
	proc       *process

	queue    chan []byte
	writeErr chan error
	writerWG chan struct{}
	stop     chan struct{}
	stopOnce sync.Once

	held    []byte
	heldSet bool
	heldIdx int64
	lastPTS timeline.Timestamp
	frames  int64
}

// NewFFmpegSink creates a sink for the given settings.
func NewFFmpegSink(settings Settings) *FFmpegSink {
	return &FFmpegSink{
		settings: settings.withDefaults(),
		launch:   launchFFmpeg,
		poll:     defaultPollInterval,
		state:    StateUninitialized,
		lastPTS:  -1,
	}
}

// State returns the current lifecycle state.
func (s *FFmpegSink) State() State { return s.state }

// Start validates the settings, launches the encoder process and
// transitions the sink to the writing state. Nothing is written before
// Start succeeds.
func (s *FFmpegSink) Start(ctx context.Context, outputPath string) error {
	if s.state != StateUninitialized {
		return fmt.Errorf("%w: start in state %s", ErrInvalidState, s.state)
	}
	s.state = StateConfiguring

	if s.settings.Width <= 0 || s.settings.Height <= 0 {
		s.state = StateFailed
		return fmt.Errorf("%w: invalid dimensions %dx%d", ErrInit, s.settings.Width, s.settings.Height)
	}
	// libx264 with yuv420p rejects odd dimensions.
	if s.settings.Width%2 != 0 || s.settings.Height%2 != 0 {
		s.state = StateFailed
		return fmt.Errorf("%w: dimensions %dx%d must be even", ErrInit, s.settings.Width, s.settings.Height)
	}

	if dir := filepath.Dir(outputPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			s.state = StateFailed
			return fmt.Errorf("%w: create output directory: %v", ErrInit, err)
		}
	}

	proc, err := s.launch(ctx, outputPath, s.settings)
	if err != nil {
		s.state = StateFailed
		return fmt.Errorf("%w: %v", ErrInit, err)
	}

	s.ctx = ctx
	s.outputPath = outputPath
	s.proc = proc
	s.queue = make(chan []byte, queueDepth)
	s.writeErr = make(chan error, 1)
	s.writerWG = make(chan struct{})
	s.stop = make(chan struct{})

	go s.writeLoop()

	s.state = StateWriting
	logging.Debug("encoder started: %dx%d @ %d fps -> %s",
		s.settings.Width, s.settings.Height, s.settings.FrameRate, outputPath)
	return nil
}

// writeLoop drains the frame queue into the encoder pipe. The first
// write error is retained and surfaced on the next Append or Finish.
// A closed queue drains and exits (Finish); a closed stop channel
// exits immediately, dropping queued frames (abort).
func (s *FFmpegSink) writeLoop() {
	defer close(s.writerWG)
	for {
		select {
		case <-s.stop:
			return
		case frame, ok := <-s.queue:
			if !ok {
				return
			}
			metrics.EncoderQueueDepth.Set(float64(len(s.queue)))
			if _, err := s.proc.stdin.Write(frame); err != nil {
				select {
				case s.writeErr <- err:
				default:
				}
				// Keep draining so producers never deadlock on the queue.
				continue
			}
			metrics.EncoderFramesWritten.Inc()
		}
	}
}

// abort moves to the terminal failed state and signals the writer
// goroutine to exit without draining. Every failure transition after
// Start goes through here so a failed run never pins a goroutine on
// the frame queue.
func (s *FFmpegSink) abort() {
	s.state = StateFailed
	if s.stop != nil {
		s.stopOnce.Do(func() { close(s.stop) })
	}
}

// gridIndex maps a presentation timestamp to the encoder's fixed
// output grid, rounding to the nearest slot. Drift-free: computed from
// the absolute timestamp, not from accumulated deltas.
func (s *FFmpegSink) gridIndex(pts timeline.Timestamp) int64 {
	fps := int64(s.settings.FrameRate)
	return (int64(pts)*fps + timeline.Timescale/2) / timeline.Timescale
}

// Append hands one frame to the encoder at the given presentation
// time. It blocks while the encoder's input queue is full, polling at
// a bounded interval for process death or context cancellation; the
// encoder paces ingestion, not the caller.
func (s *FFmpegSink) Append(buf *raster.FrameBuffer, pts timeline.Timestamp) error {
	if s.state != StateWriting {
		return fmt.Errorf("%w: append in state %s", ErrInvalidState, s.state)
	}
	if err := s.asyncError(); err != nil {
		return err
	}
	if pts < s.lastPTS {
		s.abort()
		return fmt.Errorf("%w: %d after %d", ErrNonMonotonic, pts, s.lastPTS)
	}
	if buf.Width() != s.settings.Width || buf.Height() != s.settings.Height {
		s.abort()
		return fmt.Errorf("%w: frame geometry %dx%d does not match encoder %dx%d",
			ErrWrite, buf.Width(), buf.Height(), s.settings.Width, s.settings.Height)
	}

	data, err := buf.Bytes()
	if err != nil {
		s.abort()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	}

	idx := s.gridIndex(pts)
	if s.heldSet {
		for n := idx - s.heldIdx; n > 0; n-- {
			if err := s.enqueue(s.held); err != nil {
				return err
			}
		}
	}

	// The caller releases its buffer after Append returns, so the held
	// frame must be an owned copy.
	frame := make([]byte, len(data))
	copy(frame, data)
	s.held = frame
	s.heldSet = true
	s.heldIdx = idx
	s.lastPTS = pts
	return nil
}

// enqueue blocks until the writer accepts the frame, an error
// surfaces, or the context is canceled.
func (s *FFmpegSink) enqueue(frame []byte) error {
	start := time.Now()
	defer func() {
		metrics.EncoderAppendBlocked.Observe(time.Since(start).Seconds())
	}()

	for {
		select {
		case s.queue <- frame:
			s.frames++
			return nil
		case err := <-s.writeErr:
			s.abort()
			return fmt.Errorf("%w: %v", ErrWrite, err)
		case <-s.ctx.Done():
			s.abort()
			return fmt.Errorf("%w: %v", ErrWrite, s.ctx.Err())
		case <-time.After(s.poll):
			// Bounded wait; loop and re-check readiness.
		}
	}
}

func (s *FFmpegSink) asyncError() error {
	select {
	case err := <-s.writeErr:
		s.abort()
		return fmt.Errorf("%w: %v", ErrWrite, err)
	default:
		return nil
	}
}

// Finish flushes the held final frame, closes the encoder input and
// waits for the container trailer to be written. One-shot: calling it
// twice, or appending afterwards, fails with ErrInvalidState.
func (s *FFmpegSink) Finish() (string, error) {
	if s.state != StateWriting {
		return "", fmt.Errorf("%w: finish in state %s", ErrInvalidState, s.state)
	}
	s.state = StateFinishing

	// The schedule's extended last entry filled the timeline up to one
	// epsilon before the end; one more emission closes the clip.
	if s.heldSet {
		if err := s.enqueue(s.held); err != nil {
			s.fail()
			return "", err
		}
	}

	close(s.queue)
	<-s.writerWG

	select {
	case err := <-s.writeErr:
		s.fail()
		return "", fmt.Errorf("%w: %v", ErrWrite, err)
	default:
	}

	if err := s.proc.stdin.Close(); err != nil {
		s.fail()
		return "", fmt.Errorf("%w: close input: %v", ErrFinalize, err)
	}
	if err := s.proc.wait(); err != nil {
		s.fail()
		return "", fmt.Errorf("%w: %v", ErrFinalize, err)
	}

	s.state = StateCompleted
	logging.Debug("encoder finished: %d frames -> %s", s.frames, s.outputPath)
	return s.outputPath, nil
}

// fail stops the writer, kills the encoder process and removes any
// partial output so a failure never leaves a file that looks complete.
func (s *FFmpegSink) fail() {
	s.abort()
	s.proc.kill()
	s.removeOutput()
}

// Discard aborts the sink: the writer goroutine is released, the
// encoder process killed and any partial output file removed. Safe to
// call in any state, including after a failed Append.
func (s *FFmpegSink) Discard() {
	switch s.state {
	case StateUninitialized, StateCompleted:
		return
	}
	if s.proc != nil {
		s.proc.kill()
	}
	s.abort()
	s.removeOutput()
}

func (s *FFmpegSink) removeOutput() {
	if s.outputPath == "" {
		return
	}
	if err := os.Remove(s.outputPath); err != nil && !os.IsNotExist(err) {
		logging.Warn("failed to remove partial output %s: %v", s.outputPath, err)
	}
}

// launchFFmpeg starts ffmpeg reading raw bottom-up BGRA frames on
// stdin. The vflip filter compensates for the frame buffer's bottom-up
// row order.
func launchFFmpeg(ctx context.Context, outputPath string, s Settings) (*process, error) {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	args := []string{
		"-hide_banner",
		"-loglevel", "error",
		"-y",
		"-f", "rawvideo",
		"-pixel_format", "bgra",
		"-video_size", fmt.Sprintf("%dx%d", s.Width, s.Height),
		"-framerate", fmt.Sprintf("%d", s.FrameRate),
		"-i", "-",
		"-vf", "vflip",
		"-c:v", "libx264",
		"-preset", s.Preset,
		"-b:v", fmt.Sprintf("%dk", s.BitrateKbps),
		"-pix_fmt", "yuv420p",
		"-movflags", "+faststart",
		outputPath,
	}

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}

	return &process{
		stdin: stdin,
		wait:  cmd.Wait,
		kill: func() {
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
		},
	}, nil
}
