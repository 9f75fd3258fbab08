package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photoreel/internal/compositor"
	"photoreel/internal/logging"
	"photoreel/internal/memory"
	"photoreel/internal/photostore"
	"photoreel/internal/startup"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	os.Exit(run())
}

func run() int {
	startTime := time.Now()

	// Load configuration
	config, err := startup.LoadConfig(os.Args[1:])
	if err != nil {
		logging.Error("Configuration error: %v", err)
		return 2
	}

	memory.ConfigureFromEnv()

	// Initialize the fast decode path; the pipeline falls back to
	// pure-Go decoding when libvips is unavailable.
	if err := photostore.InitVips(); err != nil {
		logging.Warn("libvips unavailable, using fallback decoder: %v", err)
	}
	defer photostore.ShutdownVips()

	startup.LogEncoderInit()

	// Optional metrics listener for long runs
	if config.MetricsEnabled {
		go serveMetrics(config.MetricsPort)
		startup.LogMetricsStarted(config.MetricsPort)
	}

	// Cancel the run at the next frame boundary on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigChan
		startup.LogShutdownInitiated(sig.String())
		cancel()
	}()

	// Scan the photo directory
	store := photostore.NewDirStore(config.PhotoDir)

	startup.LogScanStarted(config.PhotoDir)
	scanStart := time.Now()
	photos, err := store.List(ctx)
	if err != nil {
		logging.Error("Photo scan failed: %v", err)
		return 1
	}
	startup.LogScanComplete(len(photos), time.Since(scanStart))

	// Compose
	startup.LogRunStarted(config, len(photos))

	orch := compositor.New(store)
	out, err := orch.Composite(ctx, photos, config.CompositorOptions())
	if err != nil {
		return reportFailure(err)
	}

	startup.LogRunComplete(out, time.Since(startTime))
	return 0
}

// reportFailure maps the composition failure taxonomy to operator
// guidance and an exit code. Usage-class failures exit 2, runtime
// failures exit 1, cancellation exits 130 like an interrupted shell
// command.
func reportFailure(err error) int {
	kind, ok := compositor.KindOf(err)
	if !ok {
		logging.Error("Composition failed: %v", err)
		return 1
	}

	switch kind {
	case compositor.KindEmptyInput:
		logging.Error("No photos found: %v", err)
		logging.Error("Point -in at a directory containing images")
		return 2
	case compositor.KindInvalidPlan:
		logging.Error("Invalid composition plan: %v", err)
		return 2
	case compositor.KindCanceled:
		logging.Warn("Composition canceled: %v", err)
		logging.Warn("No output file was produced")
		return 130
	case compositor.KindEncoderInit:
		logging.Error("Encoder failed to start: %v", err)
		logging.Error("Check that ffmpeg is installed and on PATH")
		return 1
	default:
		logging.Error("Composition failed (%s): %v", kind, err)
		return 1
	}
}

func serveMetrics(port string) {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}).Methods("GET")

	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logging.Warn("Metrics server error: %v", err)
	}
}
