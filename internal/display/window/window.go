// Package window renders classified frames in an OpenCV preview window
// with the top label and the per-label probability bars drawn on top.
package window

import (
	"context"
	"fmt"
	"image"
	"image/color"

	"gocv.io/x/gocv"

	"github.com/crimson-sun/moodcam/internal/model"
)

const (
	barWidth   = 120
	barHeight  = 12
	barSpacing = 6
	margin     = 10
)

var (
	textColor = color.RGBA{255, 255, 255, 0}
	barColor  = color.RGBA{0, 200, 80, 0}
	backColor = color.RGBA{40, 40, 40, 0}
)

// Window displays annotated frames. Must be used from a single goroutine;
// OpenCV windows are not thread-safe.
type Window struct {
	win *gocv.Window
}

// New opens a named preview window.
func New(title string) *Window {
	return &Window{win: gocv.NewWindow(title)}
}

// Write draws the annotation over the frame and shows it. WaitKey pumps the
// window event loop; without it nothing renders.
func (w *Window) Write(_ context.Context, frame model.Frame, ann model.Annotation) error {
	mat, err := gocv.ImageToMatRGB(frame.Image)
	if err != nil {
		return fmt.Errorf("window output: convert frame: %w", err)
	}
	defer mat.Close()

	drawOverlay(&mat, ann)

	w.win.IMShow(mat)
	w.win.WaitKey(1)
	return nil
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.win.Close()
}

func drawOverlay(mat *gocv.Mat, ann model.Annotation) {
	headline := fmt.Sprintf("%s %.0f%%", ann.Label, ann.Confidence*100)
	gocv.PutText(mat, headline, image.Pt(margin, margin+18),
		gocv.FontHersheySimplex, 0.8, textColor, 2)

	// One bar per label, full distribution in bank order.
	top := margin + 36
	for i, score := range ann.Scores {
		y := top + i*(barHeight+barSpacing)

		back := image.Rect(margin, y, margin+barWidth, y+barHeight)
		gocv.Rectangle(mat, back, backColor, -1)

		fill := image.Rect(margin, y, margin+int(score.Probability*barWidth), y+barHeight)
		gocv.Rectangle(mat, fill, barColor, -1)

		gocv.PutText(mat, score.Label, image.Pt(margin+barWidth+barSpacing, y+barHeight-2),
			gocv.FontHersheySimplex, 0.4, textColor, 1)
	}
}
