package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Composition run metrics
var (
	RunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoreel_composition_runs_total",
			Help: "Total number of composition runs",
		},
		[]string{"status"},
	)

	RunDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoreel_composition_run_duration_seconds",
			Help:    "Wall-clock duration of composition runs in seconds",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
	)

	RunsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoreel_composition_runs_in_flight",
			Help: "Number of composition runs currently executing",
		},
	)

	PhotosPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoreel_composition_photos_per_run",
			Help:    "Number of photos in each composition run",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250},
		},
	)

	ClipSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoreel_composition_clip_seconds",
			Help:    "Planned clip length of each composition run in seconds",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600, 1800},
		},
	)

	FailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoreel_composition_failures_total",
			Help: "Total number of failed composition runs by error kind",
		},
		[]string{"kind"},
	)
)

// Frame pipeline metrics
var (
	FramesComposedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoreel_frames_composed_total",
			Help: "Total number of frames composed by frame kind",
		},
		[]string{"kind"}, // "main", "transition"
	)

	FrameBuildDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "photoreel_frame_build_duration_seconds",
			Help:    "Time to decode, composite and rasterize one frame",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		},
		[]string{"kind"},
	)

	SourceDecodesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "photoreel_source_decodes_total",
			Help: "Total number of source photo decodes",
		},
		[]string{"status"},
	)
)

// Encoder metrics
var (
	EncoderFramesWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "photoreel_encoder_frames_written_total",
			Help: "Total number of raw frames written to the encoder",
		},
	)

	EncoderQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "photoreel_encoder_queue_depth",
			Help: "Number of frames waiting in the encoder input queue",
		},
	)

	EncoderAppendBlocked = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "photoreel_encoder_append_blocked_seconds",
			Help:    "Time append calls spent blocked on encoder backpressure",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.05, 0.1, 0.5, 1, 5},
		},
	)
)
