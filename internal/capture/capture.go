// Package capture defines the frame source interface and the driver
// registry. Concrete drivers live in subpackages and register themselves
// in init, so a blank import is enough to make a driver available.
package capture

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/crimson-sun/moodcam/internal/model"
)

// ErrStreamEnded is returned by Source.Next when the underlying stream is
// exhausted. It signals a clean end of input, not a failure.
var ErrStreamEnded = errors.New("capture: stream ended")

// Source produces frames one at a time. Next blocks until a frame is
// available, the stream ends, or ctx is done.
type Source interface {
	Next(ctx context.Context) (model.Frame, error)
	Close() error
}

// Config holds driver-independent source settings.
type Config struct {
	// Driver selects the registered source driver.
	Driver string
	// Input is driver-specific: a device index for webcam, a file path for
	// video, a directory path for imagedir.
	Input string
}

// Constructor creates a Source from its configuration.
type Constructor func(cfg Config) (Source, error)

var registry = map[string]Constructor{}

// Register adds a source constructor under the given driver name.
func Register(name string, ctor Constructor) {
	registry[name] = ctor
}

// Open constructs the source for the configured driver.
func Open(cfg Config) (Source, error) {
	ctor, ok := registry[cfg.Driver]
	if !ok {
		return nil, fmt.Errorf("capture: unknown driver: %s", cfg.Driver)
	}
	return ctor(cfg)
}

// Drivers returns the names of all registered source drivers, sorted.
func Drivers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
