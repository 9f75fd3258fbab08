package compositor

import (
	"context"
	"fmt"
	"image"
	"os"
	"sort"
	"time"

	"photoreel/internal/encoder"
	"photoreel/internal/logging"
	"photoreel/internal/metrics"
	"photoreel/internal/photostore"
	"photoreel/internal/raster"
	"photoreel/internal/timeline"
	"photoreel/internal/transition"

	"github.com/google/uuid"
)

// Options configures one composition run.
type Options struct {
	PerPhoto    time.Duration
	Transition  time.Duration
	Style       transition.Style
	Width       int
	Height      int
	FrameRate   int
	BitrateKbps int
	OutputPath  string
}

// DefaultOptions returns the values used for zero fields.
func DefaultOptions() Options {
	return Options{
		PerPhoto:   2 * time.Second,
		Transition: 500 * time.Millisecond,
		Style:      transition.StyleCrossFade,
		Width:      1280,
		Height:     720,
		FrameRate:  30,
	}
}

func (o Options) withDefaults() Options {
	def := DefaultOptions()
	if o.PerPhoto <= 0 {
		o.PerPhoto = def.PerPhoto
	}
	if o.Transition <= 0 {
		o.Transition = def.Transition
	}
	if o.Style == "" {
		o.Style = def.Style
	}
	if o.Width <= 0 {
		o.Width = def.Width
	}
	if o.Height <= 0 {
		o.Height = def.Height
	}
	if o.FrameRate <= 0 {
		o.FrameRate = def.FrameRate
	}
	return o
}

// Result is the terminal outcome of an asynchronous composition run.
type Result struct {
	OutputPath string
	Err        error
}

// sinkFactory builds the encoder sink for a run. Injectable so the
// orchestrator can be exercised without ffmpeg.
type sinkFactory func(encoder.Settings) encoder.Sink

// Orchestrator drives a composition run: it plans the frame schedule,
// pulls frames through the transition and raster stages, and feeds the
// encoder sink in presentation order.
type Orchestrator struct {
	store   photostore.Store
	newSink sinkFactory
}

// New creates an orchestrator over the given photo store.
func New(store photostore.Store) *Orchestrator {
	return &Orchestrator{
		store: store,
		newSink: func(s encoder.Settings) encoder.Sink {
			return encoder.NewFFmpegSink(s)
		},
	}
}

// Composite builds one video from the photos and returns the output
// path. The run is sequential: presentation timestamps must be
// monotonic and the encoder is a single-writer sink. Cancellation is
// honored at frame boundaries only; a started frame append always
// completes or fails on its own.
//
// On failure no partially written file is left looking complete: the
// sink output is discarded.
func (o *Orchestrator) Composite(ctx context.Context, photos []photostore.PhotoRecord, opts Options) (string, error) {
	runID := uuid.NewString()
	start := time.Now()

	metrics.RunsInFlight.Inc()
	defer metrics.RunsInFlight.Dec()

	out, err := o.run(ctx, runID, photos, opts)

	metrics.RunDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind, _ := KindOf(err)
		metrics.RunsTotal.WithLabelValues("failure").Inc()
		metrics.FailuresTotal.WithLabelValues(kind.String()).Inc()
		logging.Error("composition %s failed after %s: %v", runID, time.Since(start).Round(time.Millisecond), err)
		return "", err
	}
	metrics.RunsTotal.WithLabelValues("success").Inc()
	logging.Info("composition %s finished in %s: %s", runID, time.Since(start).Round(time.Millisecond), out)
	return out, nil
}

// CompositeAsync runs Composite on its own goroutine and delivers the
// single terminal result on the returned channel.
func (o *Orchestrator) CompositeAsync(ctx context.Context, photos []photostore.PhotoRecord, opts Options) <-chan Result {
	ch := make(chan Result, 1)
	go func() {
		out, err := o.Composite(ctx, photos, opts)
		ch <- Result{OutputPath: out, Err: err}
		close(ch)
	}()
	return ch
}

func (o *Orchestrator) run(ctx context.Context, runID string, photos []photostore.PhotoRecord, opts Options) (string, error) {
	if len(photos) == 0 {
		return "", newError(KindEmptyInput, fmt.Errorf("no photos supplied"))
	}
	opts = opts.withDefaults()
	if opts.OutputPath == "" {
		return "", newError(KindInvalidPlan, fmt.Errorf("output path not set"))
	}

	ordered := make([]photostore.PhotoRecord, len(photos))
	copy(ordered, photos)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CapturedAt.Equal(ordered[j].CapturedAt) {
			return ordered[i].CapturedAt.Before(ordered[j].CapturedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	plan := timeline.Plan{
		PhotoCount: len(ordered),
		PerPhoto:   opts.PerPhoto,
		Transition: opts.Transition,
	}
	schedule, err := timeline.Build(plan)
	if err != nil {
		return "", newError(KindInvalidPlan, err)
	}

	producer, err := raster.NewProducer(opts.Width, opts.Height)
	if err != nil {
		return "", newError(KindBufferAlloc, err)
	}

	metrics.PhotosPerRun.Observe(float64(len(ordered)))
	metrics.ClipSeconds.Observe(schedule.End().Seconds())
	logging.Info("composition %s: %d photos, %d frames, %.1fs clip, style %s, %dx%d -> %s",
		runID, len(ordered), schedule.Len(), schedule.End().Seconds(), opts.Style, opts.Width, opts.Height, opts.OutputPath)

	// A fresh run never appends to a stale file.
	if err := os.Remove(opts.OutputPath); err != nil && !os.IsNotExist(err) {
		return "", newError(KindEncoderInit, fmt.Errorf("remove existing output: %w", err))
	}

	sink := o.newSink(encoder.Settings{
		Width:       opts.Width,
		Height:      opts.Height,
		FrameRate:   opts.FrameRate,
		BitrateKbps: opts.BitrateKbps,
	})
	if err := sink.Start(ctx, opts.OutputPath); err != nil {
		return "", newError(KindEncoderInit, err)
	}

	effect := transition.Effect(opts.Style)
	frames := newFrameCache(o.store, producer, ordered)

	for _, entry := range schedule.Entries() {
		// Cancellation is only checked between frames; a started
		// append is never abandoned mid-write.
		if err := ctx.Err(); err != nil {
			sink.Discard()
			return "", newError(KindCanceled, err)
		}

		frameStart := time.Now()

		var frame *image.NRGBA
		switch entry.Kind {
		case timeline.KindMain:
			frame, err = frames.get(ctx, entry.Photo)
		case timeline.KindTransition:
			var a, b *image.NRGBA
			if a, err = frames.get(ctx, entry.Photo); err == nil {
				if b, err = frames.get(ctx, entry.Next); err == nil {
					frame = effect(a, b, entry.Progress)
				}
			}
		}
		if err != nil {
			sink.Discard()
			return "", newError(KindSourceDecode, err)
		}
		frames.evictBefore(entry.Photo)

		buf, err := producer.Rasterize(frame)
		if err != nil {
			sink.Discard()
			return "", newError(KindBufferAlloc, err)
		}

		if err := sink.Append(buf, entry.PTS); err != nil {
			sink.Discard()
			return "", newError(KindEncoderWrite, err)
		}

		kind := entry.Kind.String()
		metrics.FramesComposedTotal.WithLabelValues(kind).Inc()
		metrics.FrameBuildDuration.WithLabelValues(kind).Observe(time.Since(frameStart).Seconds())
	}

	out, err := sink.Finish()
	if err != nil {
		sink.Discard()
		return "", newError(KindEncoderFinalize, err)
	}
	return out, nil
}

// frameCache holds decoded, output-fitted photos for the frames
// currently in flight. At most the two photos adjacent to the current
// schedule entry are retained, so peak memory is O(1) in the gallery
// size.
type frameCache struct {
	store    photostore.Store
	producer *raster.Producer
	photos   []photostore.PhotoRecord
	fitted   map[int]*image.NRGBA
}

func newFrameCache(store photostore.Store, producer *raster.Producer, photos []photostore.PhotoRecord) *frameCache {
	return &frameCache{
		store:    store,
		producer: producer,
		photos:   photos,
		fitted:   make(map[int]*image.NRGBA, 2),
	}
}

func (c *frameCache) get(ctx context.Context, i int) (*image.NRGBA, error) {
	if frame, ok := c.fitted[i]; ok {
		return frame, nil
	}
	rec := c.photos[i]

	start := time.Now()
	img, err := c.store.Load(ctx, rec, c.producer.Width(), c.producer.Height())
	if err != nil {
		metrics.SourceDecodesTotal.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("photo %s: %w", rec.ID, err)
	}
	metrics.SourceDecodesTotal.WithLabelValues("success").Inc()
	logging.Debug("decoded photo %s (%dx%d) in %s",
		rec.ID, img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start).Round(time.Millisecond))

	fitted := c.producer.Fit(img)
	c.fitted[i] = fitted
	return fitted, nil
}

// evictBefore drops cached photos no longer reachable from the current
// schedule position.
func (c *frameCache) evictBefore(current int) {
	for i := range c.fitted {
		if i < current {
			delete(c.fitted, i)
		}
	}
}
