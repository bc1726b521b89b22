package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config holds all moodcam configuration.
type Config struct {
	Capture CaptureConfig
	Engine  EngineConfig
	Output  OutputConfig
}

// CaptureConfig holds video source settings.
type CaptureConfig struct {
	Driver string // "webcam", "video", "imagedir"
	Input  string // device index for webcam, path for video/imagedir
}

// EngineConfig holds classification engine settings.
type EngineConfig struct {
	TextModelPath  string
	ImageModelPath string
	VocabPath      string
	MergesPath     string
	Labels         []string
	Templates      []string
	Temperature    float64
}

// OutputConfig holds annotation sink settings.
type OutputConfig struct {
	Format     string // "stdout" or "file"
	Path       string // file path when Format is "file"
	Display    bool   // open an overlay window
	WebhookURL string // POST annotations when non-empty
	Coalesce   bool   // collapse consecutive identical labels on stdout/file
	LogLevel   string
}

// DefaultLabels is the emotion vocabulary used when MOODCAM_LABELS is unset.
// Order matters: it defines the index reported in annotations.
var DefaultLabels = []string{
	"happy", "sad", "angry", "surprised", "neutral", "fearful", "disgusted",
}

// DefaultTemplates is the prompt ensemble used when MOODCAM_TEMPLATES is
// unset. Each template has exactly one %s slot for the label name.
var DefaultTemplates = []string{
	"a photo of a %s face.",
	"a photo of a %s person.",
	"a cropped photo of a %s face.",
	"a close-up photo of a person looking %s.",
	"a photo of a person with a %s expression.",
}

// DefaultTemperature matches the logit scale of the pretrained model.
// Raw cosine similarities cluster in a narrow band; without scaling the
// softmax would be near-uniform.
const DefaultTemperature = 100.0

// Load reads configuration from environment variables with sensible defaults.
func Load() Config {
	modelDir := getenv("MOODCAM_MODEL_DIR", "models")
	return Config{
		Capture: CaptureConfig{
			Driver: getenv("MOODCAM_CAPTURE", "webcam"),
			Input:  getenv("MOODCAM_CAPTURE_INPUT", "0"),
		},
		Engine: EngineConfig{
			TextModelPath:  getenv("MOODCAM_TEXT_MODEL_PATH", modelDir+"/text_model.onnx"),
			ImageModelPath: getenv("MOODCAM_IMAGE_MODEL_PATH", modelDir+"/image_model.onnx"),
			VocabPath:      getenv("MOODCAM_VOCAB_PATH", modelDir+"/vocab.json"),
			MergesPath:     getenv("MOODCAM_MERGES_PATH", modelDir+"/merges.txt"),
			Labels:         getenvList("MOODCAM_LABELS", ",", DefaultLabels),
			Templates:      getenvList("MOODCAM_TEMPLATES", "|", DefaultTemplates),
			Temperature:    getenvFloat("MOODCAM_TEMPERATURE", DefaultTemperature),
		},
		Output: OutputConfig{
			Format:     getenv("MOODCAM_OUTPUT", "stdout"),
			Path:       os.Getenv("MOODCAM_OUTPUT_PATH"),
			Display:    getenvBool("MOODCAM_DISPLAY", false),
			WebhookURL: os.Getenv("MOODCAM_WEBHOOK_URL"),
			Coalesce:   getenvBool("MOODCAM_COALESCE", false),
			LogLevel:   getenv("MOODCAM_LOG_LEVEL", "info"),
		},
	}
}

// Validate checks the loaded configuration for values that would only fail
// later, deep inside startup. Collects all problems rather than stopping at
// the first.
func (c Config) Validate() error {
	var errs []error

	switch c.Capture.Driver {
	case "webcam", "video", "imagedir":
	default:
		errs = append(errs, fmt.Errorf("unknown capture driver %q", c.Capture.Driver))
	}

	if len(c.Engine.Labels) == 0 {
		errs = append(errs, errors.New("label list is empty"))
	}
	if len(c.Engine.Templates) == 0 {
		errs = append(errs, errors.New("template list is empty"))
	}
	if c.Engine.Temperature <= 0 {
		errs = append(errs, fmt.Errorf("temperature must be positive, got %g", c.Engine.Temperature))
	}

	for _, f := range []struct{ name, path string }{
		{"text model", c.Engine.TextModelPath},
		{"image model", c.Engine.ImageModelPath},
		{"vocab", c.Engine.VocabPath},
		{"merges", c.Engine.MergesPath},
	} {
		if _, err := os.Stat(f.path); err != nil {
			errs = append(errs, fmt.Errorf("%s file not found: %s", f.name, f.path))
		}
	}

	switch c.Output.Format {
	case "stdout":
	case "file":
		if c.Output.Path == "" {
			errs = append(errs, errors.New("output format 'file' requires MOODCAM_OUTPUT_PATH"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown output format %q", c.Output.Format))
	}

	return errors.Join(errs...)
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// getenvList splits an env var on sep, trimming whitespace around items.
// Empty items are dropped; an entirely empty value yields the fallback.
func getenvList(key, sep string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, item := range strings.Split(v, sep) {
		item = strings.TrimSpace(item)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return fallback
	}
	return out
}

func getenvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}
