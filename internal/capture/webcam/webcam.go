// Package webcam captures frames from a local camera device via OpenCV.
package webcam

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/crimson-sun/moodcam/internal/capture"
	"github.com/crimson-sun/moodcam/internal/model"
)

func init() {
	capture.Register("webcam", func(cfg capture.Config) (capture.Source, error) {
		return Open(cfg.Input)
	})
}

// Source reads frames from a camera device. Not safe for concurrent Next
// calls; the pipeline reads from a single goroutine.
type Source struct {
	cam    *gocv.VideoCapture
	mat    gocv.Mat
	mirror gocv.Mat
	name   string
	seq    int64
}

// Open opens the camera at the given device index ("" means device 0).
func Open(input string) (*Source, error) {
	device := 0
	if input != "" {
		var err error
		device, err = strconv.Atoi(input)
		if err != nil {
			return nil, fmt.Errorf("webcam: invalid device index %q: %w", input, err)
		}
	}

	cam, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, fmt.Errorf("webcam: open device %d: %w", device, err)
	}

	return &Source{
		cam:    cam,
		mat:    gocv.NewMat(),
		mirror: gocv.NewMat(),
		name:   fmt.Sprintf("webcam:%d", device),
	}, nil
}

// Next grabs one frame, mirrored horizontally so the preview behaves like a
// mirror. A failed read is reported as an error for the caller to skip; the
// device may recover on the next call.
func (s *Source) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	if ok := s.cam.Read(&s.mat); !ok || s.mat.Empty() {
		return model.Frame{}, fmt.Errorf("webcam: read from %s failed", s.name)
	}
	gocv.Flip(s.mat, &s.mirror, 1)

	img, err := s.mirror.ToImage()
	if err != nil {
		return model.Frame{}, fmt.Errorf("webcam: convert frame: %w", err)
	}

	s.seq++
	return model.Frame{
		ID:        uuid.New(),
		Seq:       s.seq,
		Timestamp: time.Now(),
		Source:    s.name,
		Image:     img,
	}, nil
}

// Close releases the camera and frame buffers.
func (s *Source) Close() error {
	s.mat.Close()
	s.mirror.Close()
	return s.cam.Close()
}
