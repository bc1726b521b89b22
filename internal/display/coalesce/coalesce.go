// Package coalesce collapses runs of consecutive frames that share a top
// label into a single annotation, cutting sink traffic for mostly-static
// scenes. The emitted annotation is the first of its run with Count set to
// the run length.
package coalesce

import (
	"context"

	"github.com/crimson-sun/moodcam/internal/display"
	"github.com/crimson-sun/moodcam/internal/model"
)

// Coalesce wraps a display.Output and suppresses repeats. Not safe for
// concurrent Write calls; the pipeline writes from a single goroutine.
type Coalesce struct {
	inner display.Output

	held      model.Annotation
	heldFrame model.Frame
	count     int
}

// New creates a Coalesce around inner.
func New(inner display.Output) *Coalesce {
	return &Coalesce{inner: inner}
}

// Write either extends the current run or flushes it and starts a new one.
// A run is flushed when the top label changes; the final run is flushed on
// Close.
func (c *Coalesce) Write(ctx context.Context, frame model.Frame, ann model.Annotation) error {
	if c.count > 0 && ann.Label == c.held.Label {
		c.count++
		return nil
	}

	err := c.flush(ctx)
	c.held = ann
	c.heldFrame = frame
	c.count = 1
	return err
}

// Close flushes the pending run and closes the inner output.
func (c *Coalesce) Close() error {
	flushErr := c.flush(context.Background())
	closeErr := c.inner.Close()
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}

func (c *Coalesce) flush(ctx context.Context) error {
	if c.count == 0 {
		return nil
	}
	ann := c.held
	ann.Count = c.count
	frame := c.heldFrame
	c.count = 0
	c.held = model.Annotation{}
	c.heldFrame = model.Frame{}
	return c.inner.Write(ctx, frame, ann)
}
