package engine

import (
	"time"

	"github.com/crimson-sun/moodcam/internal/encoder"
	"github.com/crimson-sun/moodcam/internal/engine/classifier"
	"github.com/crimson-sun/moodcam/internal/engine/labelbank"
	"github.com/crimson-sun/moodcam/internal/model"
)

// Engine orchestrates the embed → classify step for each frame.
// The label bank is built once before the Engine exists and is read-only
// for its lifetime, so Process is safe for concurrent use.
type Engine struct {
	encoder    encoder.Encoder
	bank       *labelbank.Bank
	classifier *classifier.Classifier
}

// New creates an Engine with the provided components.
func New(enc encoder.Encoder, bank *labelbank.Bank, cls *classifier.Classifier) *Engine {
	return &Engine{
		encoder:    enc,
		bank:       bank,
		classifier: cls,
	}
}

// Process classifies a single frame into an annotation. Pure with respect to
// the frame: no state is retained across calls.
func (e *Engine) Process(frame model.Frame) (model.Annotation, error) {
	start := time.Now()

	vec, err := e.encoder.EncodeImage(frame.Image)
	if err != nil {
		return model.Annotation{}, err
	}

	result, err := e.classifier.Classify(vec, e.bank)
	if err != nil {
		return model.Annotation{}, err
	}

	return model.Annotation{
		FrameID:    frame.ID,
		Seq:        frame.Seq,
		Source:     frame.Source,
		Timestamp:  frame.Timestamp,
		Label:      result.Label,
		Index:      result.Index,
		Confidence: result.Confidence,
		Scores:     result.Scores,
		Elapsed:    time.Since(start),
	}, nil
}

// Labels returns the configured label names in bank order.
func (e *Engine) Labels() []string {
	return e.bank.Labels()
}
