package moodcam

import (
	"path/filepath"

	"github.com/crimson-sun/moodcam/internal/config"
)

type options struct {
	modelDir       string
	textModelPath  string
	imageModelPath string
	vocabPath      string
	mergesPath     string
	labels         []string
	templates      []string
	temperature    float64
}

// Option configures a Moodcam instance.
type Option func(*options)

// WithModelDir sets the directory containing model files.
// Expects: text_model.onnx, image_model.onnx, vocab.json, merges.txt.
func WithModelDir(dir string) Option {
	return func(o *options) {
		o.modelDir = dir
	}
}

// WithModelPaths sets explicit paths for each model file.
// Use this when model files aren't in the default directory layout.
func WithModelPaths(textModel, imageModel, vocab, merges string) Option {
	return func(o *options) {
		o.textModelPath = textModel
		o.imageModelPath = imageModel
		o.vocabPath = vocab
		o.mergesPath = merges
	}
}

// WithLabels replaces the default emotion vocabulary. Order matters: it
// defines the index reported in results.
func WithLabels(labels ...string) Option {
	return func(o *options) {
		o.labels = labels
	}
}

// WithTemplates replaces the default prompt ensemble. Each template must
// contain exactly one %s slot for the label name.
func WithTemplates(templates ...string) Option {
	return func(o *options) {
		o.templates = templates
	}
}

// WithTemperature sets the softmax temperature. Default: 100, matching the
// logit scale of the pretrained model.
func WithTemperature(t float64) Option {
	return func(o *options) {
		o.temperature = t
	}
}

func defaultOptions() options {
	return options{
		labels:      config.DefaultLabels,
		templates:   config.DefaultTemplates,
		temperature: config.DefaultTemperature,
	}
}

// resolvePaths determines the model file paths from the configured options.
// Explicit paths take precedence over modelDir.
func resolvePaths(o options) (textModel, imageModel, vocab, merges string) {
	if o.textModelPath != "" {
		return o.textModelPath, o.imageModelPath, o.vocabPath, o.mergesPath
	}
	dir := o.modelDir
	if dir == "" {
		dir = "models"
	}
	return filepath.Join(dir, "text_model.onnx"),
		filepath.Join(dir, "image_model.onnx"),
		filepath.Join(dir, "vocab.json"),
		filepath.Join(dir, "merges.txt")
}
