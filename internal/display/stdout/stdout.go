// Package stdout writes annotations as NDJSON to a writer, one object per
// frame. When this sink is active the process logs go to stderr so the
// stream stays machine-readable.
package stdout

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/crimson-sun/moodcam/internal/model"
)

// Output JSON-encodes annotations to w.
type Output struct {
	enc *json.Encoder
}

// New creates an Output writing to w, optionally pretty-printed.
func New(w io.Writer, pretty bool) *Output {
	enc := json.NewEncoder(w)
	if pretty {
		enc.SetIndent("", "  ")
	}
	return &Output{enc: enc}
}

func (o *Output) Write(_ context.Context, _ model.Frame, ann model.Annotation) error {
	if err := o.enc.Encode(ann); err != nil {
		return fmt.Errorf("stdout output: %w", err)
	}
	return nil
}

func (o *Output) Close() error {
	return nil
}
