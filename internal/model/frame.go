package model

import (
	"image"
	"time"

	"github.com/google/uuid"
)

// Frame is the intermediate type produced by capture sources and consumed
// by the engine.
type Frame struct {
	ID        uuid.UUID
	Seq       int64 // position in the stream, starting at 1
	Timestamp time.Time
	Source    string // driver name (e.g. "webcam", "video", "imagedir")
	Image     image.Image
}
