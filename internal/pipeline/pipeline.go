// Package pipeline connects a frame source, the classification engine, and
// a display output into a processing loop.
package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"

	"github.com/crimson-sun/moodcam/internal/capture"
	"github.com/crimson-sun/moodcam/internal/display"
	"github.com/crimson-sun/moodcam/internal/engine"
)

// Stats counts pipeline activity. Counters are cumulative across Run calls.
type Stats struct {
	Processed   int64 // frames classified and delivered
	Skipped     int64 // frames lost to capture or classification errors
	WriteErrors int64 // annotations the output rejected
}

// Pipeline pulls frames from a source, classifies them, and writes the
// annotations to an output.
type Pipeline struct {
	source capture.Source
	engine *engine.Engine
	output display.Output

	processed   atomic.Int64
	skipped     atomic.Int64
	writeErrors atomic.Int64
}

// New creates a Pipeline from the given components.
func New(src capture.Source, eng *engine.Engine, out display.Output) *Pipeline {
	return &Pipeline{
		source: src,
		engine: eng,
		output: out,
	}
}

// Run processes frames until the source is exhausted or ctx is done.
// A frame that fails to capture or classify is logged, counted, and
// skipped; the stream continues with the next frame. Returns nil on a
// clean end of stream or context cancellation.
func (p *Pipeline) Run(ctx context.Context) error {
	for {
		frame, err := p.source.Next(ctx)
		switch {
		case errors.Is(err, capture.ErrStreamEnded):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		case err != nil:
			p.skipped.Add(1)
			slog.Warn("frame capture failed, skipping", "error", err)
			continue
		}

		ann, err := p.engine.Process(frame)
		if err != nil {
			p.skipped.Add(1)
			slog.Warn("frame classification failed, skipping",
				"seq", frame.Seq, "source", frame.Source, "error", err)
			continue
		}

		if err := p.output.Write(ctx, frame, ann); err != nil {
			p.writeErrors.Add(1)
			slog.Warn("annotation write failed",
				"seq", ann.Seq, "label", ann.Label, "error", err)
			continue
		}
		p.processed.Add(1)
	}
}

// Stats returns a snapshot of the pipeline counters.
func (p *Pipeline) Stats() Stats {
	return Stats{
		Processed:   p.processed.Load(),
		Skipped:     p.skipped.Load(),
		WriteErrors: p.writeErrors.Load(),
	}
}

// Close shuts down the source and the output.
func (p *Pipeline) Close() error {
	var errs []error
	if err := p.source.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := p.output.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
