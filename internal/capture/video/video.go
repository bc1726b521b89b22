// Package video captures frames from a video file via OpenCV.
package video

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gocv.io/x/gocv"

	"github.com/crimson-sun/moodcam/internal/capture"
	"github.com/crimson-sun/moodcam/internal/model"
)

func init() {
	capture.Register("video", func(cfg capture.Config) (capture.Source, error) {
		return Open(cfg.Input)
	})
}

// Source reads frames from a video file in decode order.
type Source struct {
	cap  *gocv.VideoCapture
	mat  gocv.Mat
	name string
	seq  int64
}

// Open opens the video file at path.
func Open(path string) (*Source, error) {
	if path == "" {
		return nil, fmt.Errorf("video: missing file path")
	}

	cap, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("video: open %s: %w", path, err)
	}

	return &Source{
		cap:  cap,
		mat:  gocv.NewMat(),
		name: "video:" + path,
	}, nil
}

// Next decodes the next frame. A failed read means the file is exhausted.
func (s *Source) Next(ctx context.Context) (model.Frame, error) {
	if err := ctx.Err(); err != nil {
		return model.Frame{}, err
	}

	if ok := s.cap.Read(&s.mat); !ok || s.mat.Empty() {
		return model.Frame{}, capture.ErrStreamEnded
	}

	img, err := s.mat.ToImage()
	if err != nil {
		return model.Frame{}, fmt.Errorf("video: convert frame: %w", err)
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

// Close releases the decoder and frame buffer.
func (s *Source) Close() error {
	s.mat.Close()
	return s.cap.Close()
}
