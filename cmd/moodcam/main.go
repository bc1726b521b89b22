package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/crimson-sun/moodcam/internal/capture"
	"github.com/crimson-sun/moodcam/internal/config"
	"github.com/crimson-sun/moodcam/internal/display"
	"github.com/crimson-sun/moodcam/internal/display/async"
	"github.com/crimson-sun/moodcam/internal/display/coalesce"
	"github.com/crimson-sun/moodcam/internal/display/file"
	"github.com/crimson-sun/moodcam/internal/display/multi"
	"github.com/crimson-sun/moodcam/internal/display/stdout"
	"github.com/crimson-sun/moodcam/internal/display/webhook"
	"github.com/crimson-sun/moodcam/internal/display/window"
	"github.com/crimson-sun/moodcam/internal/encoder"
	"github.com/crimson-sun/moodcam/internal/engine"
	"github.com/crimson-sun/moodcam/internal/engine/classifier"
	"github.com/crimson-sun/moodcam/internal/engine/labelbank"
	"github.com/crimson-sun/moodcam/internal/logging"
	"github.com/crimson-sun/moodcam/internal/pipeline"

	// Register capture drivers.
	_ "github.com/crimson-sun/moodcam/internal/capture/imagedir"
	_ "github.com/crimson-sun/moodcam/internal/capture/video"
	_ "github.com/crimson-sun/moodcam/internal/capture/webcam"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	logging.Init(cfg.Output.Format == "stdout", logging.ParseLevel(cfg.Output.LogLevel))

	// Startup is strict: any failure here is fatal. Per-frame failures
	// later are skipped by the pipeline instead.
	enc, err := encoder.New(
		cfg.Engine.TextModelPath,
		cfg.Engine.ImageModelPath,
		cfg.Engine.VocabPath,
		cfg.Engine.MergesPath,
	)
	if err != nil {
		log.Fatalf("failed to create encoder: %v", err)
	}
	defer enc.Close()

	bank, err := labelbank.Build(enc, cfg.Engine.Labels, cfg.Engine.Templates)
	if err != nil {
		log.Fatalf("failed to build label bank: %v", err)
	}
	slog.Info("label bank ready", "labels", len(cfg.Engine.Labels), "dim", bank.Dim())

	eng := engine.New(enc, bank, classifier.New(cfg.Engine.Temperature))

	out, err := buildOutput(cfg)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}

	src, err := capture.Open(capture.Config{
		Driver: cfg.Capture.Driver,
		Input:  cfg.Capture.Input,
	})
	if err != nil {
		log.Fatalf("failed to open %s source: %v", cfg.Capture.Driver, err)
	}

	p := pipeline.New(src, eng, out)
	defer p.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		slog.Info("shutting down", "signal", sig.String())
		cancel()
	}()

	slog.Info("starting", "driver", cfg.Capture.Driver, "labels", cfg.Engine.Labels)
	if err := p.Run(ctx); err != nil {
		log.Fatalf("pipeline error: %v", err)
	}

	stats := p.Stats()
	slog.Info("finished",
		"processed", stats.Processed,
		"skipped", stats.Skipped,
		"write_errors", stats.WriteErrors)
}

// buildOutput assembles the sink stack: a primary stdout or file sink,
// optionally joined by a preview window and a webhook. Coalescing applies
// to the primary sink only; the window still refreshes every frame. The
// webhook is wrapped in an async writer so a slow endpoint cannot stall
// capture.
func buildOutput(cfg config.Config) (display.Output, error) {
	var primary display.Output
	switch cfg.Output.Format {
	case "stdout":
		primary = stdout.New(os.Stdout, false)
	case "file":
		f, err := file.New(cfg.Output.Path)
		if err != nil {
			return nil, err
		}
		primary = f
	}
	if cfg.Output.Coalesce {
		primary = coalesce.New(primary)
	}

	outputs := []display.Output{primary}
	if cfg.Output.Display {
		outputs = append(outputs, window.New("moodcam"))
	}
	if cfg.Output.WebhookURL != "" {
		outputs = append(outputs, async.New(webhook.New(cfg.Output.WebhookURL), async.WithDropOnFull()))
	}

	if len(outputs) == 1 {
		return outputs[0], nil
	}
	return multi.New(outputs...), nil
}
