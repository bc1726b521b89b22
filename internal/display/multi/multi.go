// Package multi fans out annotations to several display.Output sinks.
package multi

import (
	"context"
	"errors"

	"github.com/crimson-sun/moodcam/internal/display"
	"github.com/crimson-sun/moodcam/internal/model"
)

// Multi delivers each annotation to every wrapped output sequentially.
// If one output fails, the remaining outputs still receive the annotation.
type Multi struct {
	outputs []display.Output
}

// New creates a Multi that fans out to the given outputs.
func New(outputs ...display.Output) *Multi {
	return &Multi{outputs: outputs}
}

// Write delivers the annotation to every wrapped output. Errors are
// collected but do not prevent delivery to subsequent outputs.
func (m *Multi) Write(ctx context.Context, frame model.Frame, ann model.Annotation) error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Write(ctx, frame, ann); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Close calls Close on every wrapped output, collecting errors.
func (m *Multi) Close() error {
	var errs []error
	for _, o := range m.outputs {
		if err := o.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
