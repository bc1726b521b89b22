// Package display defines the interface for annotation destinations.
// Sinks receive the frame alongside its annotation so visual sinks can
// render the image; most sinks ignore the frame.
package display

import (
	"context"

	"github.com/crimson-sun/moodcam/internal/model"
)

// Output is a destination for classified frames.
type Output interface {
	Write(ctx context.Context, frame model.Frame, ann model.Annotation) error
	Close() error
}
