// Package async decouples classification from slow sinks via a buffered
// channel.
package async

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/crimson-sun/moodcam/internal/display"
	"github.com/crimson-sun/moodcam/internal/model"
)

const (
	defaultBufferSize   = 256
	defaultDrainTimeout = 5 * time.Second
)

// Option configures an Async wrapper.
type Option func(*Async)

// WithBufferSize sets the channel buffer capacity. Default: 256.
func WithBufferSize(n int) Option {
	return func(a *Async) { a.bufSize = n }
}

// WithOnError sets the callback invoked when the inner output's Write fails.
// Default: logs a warning via slog.
func WithOnError(f func(error)) Option {
	return func(a *Async) { a.errFunc = f }
}

// WithDropOnFull makes Write return immediately (dropping the frame) when
// the buffer is full, instead of blocking. With a live camera source,
// dropping is usually preferable to stalling capture.
func WithDropOnFull() Option {
	return func(a *Async) { a.dropOnFull = true }
}

type item struct {
	frame model.Frame
	ann   model.Annotation
}

// Async decouples frame production from sink consumption via a buffered
// channel. The pipeline writes into the channel; a background goroutine
// drains it to the wrapped output. Errors from the inner output are passed
// to errFunc rather than propagated to the caller.
type Async struct {
	inner      display.Output
	ch         chan item
	done       chan struct{}
	errFunc    func(error)
	bufSize    int
	dropOnFull bool
	closeOnce  sync.Once
}

// New wraps a display.Output in an async channel-based writer.
// The background drain goroutine starts immediately.
func New(inner display.Output, opts ...Option) *Async {
	a := &Async{
		inner:   inner,
		bufSize: defaultBufferSize,
		errFunc: func(err error) { slog.Warn("async output write error", "error", err) },
	}
	for _, opt := range opts {
		opt(a)
	}
	a.ch = make(chan item, a.bufSize)
	a.done = make(chan struct{})
	go a.drain()
	return a
}

// Write sends the pair into the channel. By default, blocks if the channel
// is full (backpressure). With WithDropOnFull, returns nil immediately and
// the frame is lost.
func (a *Async) Write(_ context.Context, frame model.Frame, ann model.Annotation) error {
	if a.dropOnFull {
		select {
		case a.ch <- item{frame, ann}:
		default:
			slog.Warn("async output buffer full, dropping frame",
				"seq", ann.Seq, "label", ann.Label)
		}
		return nil
	}
	a.ch <- item{frame, ann}
	return nil
}

// Close closes the channel, waits for the drain goroutine to finish
// (with a timeout), then closes the inner output.
func (a *Async) Close() error {
	var err error
	a.closeOnce.Do(func() {
		close(a.ch)
		select {
		case <-a.done:
		case <-time.After(defaultDrainTimeout):
			slog.Warn("async output drain timed out")
		}
		err = a.inner.Close()
	})
	return err
}

// drain reads pairs from the channel and writes them to the inner output.
func (a *Async) drain() {
	defer close(a.done)
	for it := range a.ch {
		if err := a.inner.Write(context.Background(), it.frame, it.ann); err != nil {
			a.errFunc(err)
		}
	}
}
