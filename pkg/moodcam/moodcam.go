package moodcam

import (
	"fmt"
	"image"

	"github.com/crimson-sun/moodcam/internal/encoder"
	"github.com/crimson-sun/moodcam/internal/engine"
	"github.com/crimson-sun/moodcam/internal/engine/classifier"
	"github.com/crimson-sun/moodcam/internal/engine/labelbank"
	"github.com/crimson-sun/moodcam/internal/model"
)

// Moodcam is a zero-shot image emotion classifier. Safe for concurrent use.
type Moodcam struct {
	engine  *engine.Engine
	encoder encoder.Encoder
	bank    *labelbank.Bank
}

// New creates a Moodcam instance, loading model files and pre-embedding
// the label prompts. This is an expensive operation — create once, reuse
// across frames.
func New(opts ...Option) (*Moodcam, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	textModel, imageModel, vocab, merges := resolvePaths(o)

	enc, err := encoder.New(textModel, imageModel, vocab, merges)
	if err != nil {
		return nil, fmt.Errorf("moodcam: %w", err)
	}

	bank, err := labelbank.Build(enc, o.labels, o.templates)
	if err != nil {
		enc.Close()
		return nil, fmt.Errorf("moodcam: %w", err)
	}

	eng := engine.New(enc, bank, classifier.New(o.temperature))

	return &Moodcam{engine: eng, encoder: enc, bank: bank}, nil
}

// Classify classifies a single image and returns the top label with the
// full probability distribution.
func (m *Moodcam) Classify(img image.Image) (Result, error) {
	ann, err := m.engine.Process(model.Frame{Image: img})
	if err != nil {
		return Result{}, err
	}
	return resultFromAnnotation(ann), nil
}

// Labels returns the configured label names in index order.
func (m *Moodcam) Labels() []string {
	return m.engine.Labels()
}

// Close releases model resources (ONNX runtime sessions, memory).
// Must be called when the Moodcam instance is no longer needed.
func (m *Moodcam) Close() error {
	return m.encoder.Close()
}

// resultFromAnnotation converts the internal annotation to the public type.
func resultFromAnnotation(ann model.Annotation) Result {
	scores := make([]Score, len(ann.Scores))
	for i, s := range ann.Scores {
		scores[i] = Score{Label: s.Label, Probability: s.Probability}
	}
	return Result{
		Label:      ann.Label,
		Index:      ann.Index,
		Confidence: ann.Confidence,
		Scores:     scores,
	}
}
