package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"MOODCAM_MODEL_DIR", "MOODCAM_TEXT_MODEL_PATH", "MOODCAM_IMAGE_MODEL_PATH",
		"MOODCAM_VOCAB_PATH", "MOODCAM_MERGES_PATH",
		"MOODCAM_LABELS", "MOODCAM_TEMPLATES", "MOODCAM_TEMPERATURE",
		"MOODCAM_CAPTURE", "MOODCAM_CAPTURE_INPUT",
		"MOODCAM_OUTPUT", "MOODCAM_OUTPUT_PATH", "MOODCAM_DISPLAY",
		"MOODCAM_WEBHOOK_URL", "MOODCAM_COALESCE", "MOODCAM_LOG_LEVEL",
	} {
		os.Unsetenv(key)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg := Load()

	if cfg.Capture.Driver != "webcam" {
		t.Fatalf("expected default driver 'webcam', got %q", cfg.Capture.Driver)
	}
	if cfg.Capture.Input != "0" {
		t.Fatalf("expected default input '0', got %q", cfg.Capture.Input)
	}
	if len(cfg.Engine.Labels) != len(DefaultLabels) {
		t.Fatalf("expected %d default labels, got %d", len(DefaultLabels), len(cfg.Engine.Labels))
	}
	if cfg.Engine.Labels[0] != "happy" {
		t.Fatalf("expected first default label 'happy', got %q", cfg.Engine.Labels[0])
	}
	if len(cfg.Engine.Templates) != len(DefaultTemplates) {
		t.Fatalf("expected %d default templates, got %d", len(DefaultTemplates), len(cfg.Engine.Templates))
	}
	if cfg.Engine.Temperature != DefaultTemperature {
		t.Fatalf("expected default temperature %g, got %g", DefaultTemperature, cfg.Engine.Temperature)
	}
	if cfg.Output.Format != "stdout" {
		t.Fatalf("expected default output 'stdout', got %q", cfg.Output.Format)
	}
	if cfg.Output.Display {
		t.Fatal("expected default Display=false")
	}
	if cfg.Engine.TextModelPath != "models/text_model.onnx" {
		t.Fatalf("unexpected default text model path %q", cfg.Engine.TextModelPath)
	}
}

func TestLoad_LabelList(t *testing.T) {
	clearEnv(t)
	os.Setenv("MOODCAM_LABELS", "calm, excited ,bored")
	defer os.Unsetenv("MOODCAM_LABELS")

	cfg := Load()

	want := []string{"calm", "excited", "bored"}
	if len(cfg.Engine.Labels) != len(want) {
		t.Fatalf("expected %d labels, got %d: %v", len(want), len(cfg.Engine.Labels), cfg.Engine.Labels)
	}
	for i, w := range want {
		if cfg.Engine.Labels[i] != w {
			t.Errorf("label[%d] = %q, want %q", i, cfg.Engine.Labels[i], w)
		}
	}
}

func TestLoad_TemplateList(t *testing.T) {
	clearEnv(t)
	os.Setenv("MOODCAM_TEMPLATES", "a %s face.|an expression of %s.")
	defer os.Unsetenv("MOODCAM_TEMPLATES")

	cfg := Load()

	if len(cfg.Engine.Templates) != 2 {
		t.Fatalf("expected 2 templates, got %d: %v", len(cfg.Engine.Templates), cfg.Engine.Templates)
	}
	if cfg.Engine.Templates[1] != "an expression of %s." {
		t.Fatalf("unexpected template[1]: %q", cfg.Engine.Templates[1])
	}
}

func TestLoad_EmptyListFallsBack(t *testing.T) {
	clearEnv(t)
	os.Setenv("MOODCAM_LABELS", " , ,")
	defer os.Unsetenv("MOODCAM_LABELS")

	cfg := Load()
	if len(cfg.Engine.Labels) != len(DefaultLabels) {
		t.Fatalf("expected fallback to defaults, got %v", cfg.Engine.Labels)
	}
}

func TestLoad_ModelDir(t *testing.T) {
	clearEnv(t)
	os.Setenv("MOODCAM_MODEL_DIR", "/opt/clip")
	defer os.Unsetenv("MOODCAM_MODEL_DIR")

	cfg := Load()
	if cfg.Engine.VocabPath != "/opt/clip/vocab.json" {
		t.Fatalf("unexpected vocab path %q", cfg.Engine.VocabPath)
	}
}

func TestGetenvFloat(t *testing.T) {
	tests := []struct {
		name     string
		envVal   string
		set      bool
		fallback float64
		want     float64
	}{
		{"empty uses fallback", "", false, 100, 100},
		{"valid float", "25.5", true, 100, 25.5},
		{"invalid falls back", "hot", true, 100, 100},
	}

	const key = "MOODCAM_TEST_GETENVFLOAT"
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.set {
				os.Setenv(key, tt.envVal)
				defer os.Unsetenv(key)
			} else {
				os.Unsetenv(key)
			}
			got := getenvFloat(key, tt.fallback)
			if got != tt.want {
				t.Errorf("getenvFloat(%q, %g) = %g, want %g", tt.envVal, tt.fallback, got, tt.want)
			}
		})
	}
}

// --- Validation tests ---

// validConfig returns a Config with real temp files so file-existence checks pass.
func validConfig(t *testing.T) Config {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"text.onnx", "image.onnx", "vocab.json", "merges.txt"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return Config{
		Capture: CaptureConfig{Driver: "imagedir", Input: dir},
		Engine: EngineConfig{
			TextModelPath:  filepath.Join(dir, "text.onnx"),
			ImageModelPath: filepath.Join(dir, "image.onnx"),
			VocabPath:      filepath.Join(dir, "vocab.json"),
			MergesPath:     filepath.Join(dir, "merges.txt"),
			Labels:         []string{"happy", "sad"},
			Templates:      []string{"a %s face."},
			Temperature:    100,
		},
		Output: OutputConfig{Format: "stdout"},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	cfg := validConfig(t)
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected nil error for valid config, got: %v", err)
	}
}

func TestValidate_BadDriver(t *testing.T) {
	cfg := validConfig(t)
	cfg.Capture.Driver = "hologram"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown capture driver")
	}
	if !strings.Contains(err.Error(), "driver") {
		t.Fatalf("expected error to mention 'driver', got: %v", err)
	}
}

func TestValidate_BadTemperature(t *testing.T) {
	cfg := validConfig(t)
	cfg.Engine.Temperature = 0
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for zero temperature")
	}
	if !strings.Contains(err.Error(), "temperature") {
		t.Fatalf("expected error to mention 'temperature', got: %v", err)
	}
}

func TestValidate_MissingModelFile(t *testing.T) {
	cfg := validConfig(t)
	cfg.Engine.ImageModelPath = "/nonexistent/image.onnx"
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for missing model file")
	}
	if !strings.Contains(err.Error(), "image model") {
		t.Fatalf("expected error to mention 'image model', got: %v", err)
	}
}

func TestValidate_FileOutputNeedsPath(t *testing.T) {
	cfg := validConfig(t)
	cfg.Output.Format = "file"
	cfg.Output.Path = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for file output without path")
	}
	if !strings.Contains(err.Error(), "MOODCAM_OUTPUT_PATH") {
		t.Fatalf("expected error to mention 'MOODCAM_OUTPUT_PATH', got: %v", err)
	}
}

func TestValidate_MultipleErrors(t *testing.T) {
	cfg := validConfig(t)
	cfg.Capture.Driver = "hologram"
	cfg.Engine.Temperature = -3
	cfg.Engine.Labels = nil
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for multiple bad fields")
	}
	msg := err.Error()
	for _, want := range []string{"driver", "temperature", "label"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got: %v", want, msg)
		}
	}
}
