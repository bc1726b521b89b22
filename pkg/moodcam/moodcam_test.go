package moodcam

import (
	"image"
	"image/color"
	"os"
	"sync"
	"testing"
)

const testModelDir = "../../models"

func skipWithoutModel(t *testing.T) {
	t.Helper()
	if _, err := os.Stat(testModelDir + "/image_model.onnx"); os.IsNotExist(err) {
		t.Skip("ONNX models not available, skipping integration test")
	}
}

func testImage() image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.SetRGBA(x, y, color.RGBA{uint8(4 * x), uint8(4 * y), 128, 255})
		}
	}
	return img
}

func TestNewWithModelDir(t *testing.T) {
	skipWithoutModel(t)

	m, err := New(WithModelDir(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()
}

func TestNewBadPathReturnsError(t *testing.T) {
	_, err := New(WithModelDir("/nonexistent/path"))
	if err == nil {
		t.Fatal("expected error for bad model path, got nil")
	}
}

func TestNewRejectsBadTemplate(t *testing.T) {
	skipWithoutModel(t)

	_, err := New(WithModelDir(testModelDir), WithTemplates("no slot here"))
	if err == nil {
		t.Fatalf("expected error for template without %%s slot")
	}
}

func TestClassifyReturnsDistribution(t *testing.T) {
	skipWithoutModel(t)

	m, err := New(WithModelDir(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()

	result, err := m.Classify(testImage())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}

	labels := m.Labels()
	if len(result.Scores) != len(labels) {
		t.Fatalf("got %d scores, want %d", len(result.Scores), len(labels))
	}
	if result.Label != labels[result.Index] {
		t.Errorf("Label %q does not match Index %d (%q)", result.Label, result.Index, labels[result.Index])
	}
	var sum float64
	for _, s := range result.Scores {
		sum += s.Probability
	}
	if sum < 0.999 || sum > 1.001 {
		t.Errorf("distribution sums to %f, want 1", sum)
	}
	if result.Confidence < 1.0/float64(len(labels)) {
		t.Errorf("top Confidence %f below uniform baseline", result.Confidence)
	}
}

func TestClassifyDeterministic(t *testing.T) {
	skipWithoutModel(t)

	m, err := New(WithModelDir(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()

	img := testImage()
	a, err := m.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Classify(img)
	if err != nil {
		t.Fatal(err)
	}
	if a.Label != b.Label || a.Confidence != b.Confidence {
		t.Errorf("repeated classification differs: %+v vs %+v", a, b)
	}
}

func TestConcurrentClassify(t *testing.T) {
	skipWithoutModel(t)

	m, err := New(WithModelDir(testModelDir))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()

	const goroutines = 8
	var wg sync.WaitGroup
	errs := make(chan error, goroutines)

	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Classify(testImage()); err != nil {
				errs <- err
			}
		}()
	}

	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent Classify() error: %v", err)
	}
}

func TestCustomLabels(t *testing.T) {
	skipWithoutModel(t)

	m, err := New(WithModelDir(testModelDir), WithLabels("calm", "excited"))
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	defer m.Close()

	labels := m.Labels()
	if len(labels) != 2 || labels[0] != "calm" || labels[1] != "excited" {
		t.Fatalf("Labels() = %v, want [calm excited]", labels)
	}

	result, err := m.Classify(testImage())
	if err != nil {
		t.Fatalf("Classify() error: %v", err)
	}
	if result.Label != "calm" && result.Label != "excited" {
		t.Errorf("Label = %q, want one of the custom labels", result.Label)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := defaultOptions()
	if o.temperature != 100 {
		t.Errorf("default temperature = %f, want 100", o.temperature)
	}
	if len(o.labels) == 0 {
		t.Error("default label list is empty")
	}
	if len(o.templates) == 0 {
		t.Error("default template list is empty")
	}
}

func TestResolvePathsExplicit(t *testing.T) {
	o := options{
		textModelPath:  "/a/text.onnx",
		imageModelPath: "/a/image.onnx",
		vocabPath:      "/a/vocab.json",
		mergesPath:     "/a/merges.txt",
	}
	tm, im, v, mg := resolvePaths(o)
	if tm != "/a/text.onnx" || im != "/a/image.onnx" || v != "/a/vocab.json" || mg != "/a/merges.txt" {
		t.Errorf("explicit paths not preserved: got %s, %s, %s, %s", tm, im, v, mg)
	}
}

func TestResolvePathsFromDir(t *testing.T) {
	o := options{modelDir: "/data/models"}
	tm, im, v, mg := resolvePaths(o)
	if tm != "/data/models/text_model.onnx" {
		t.Errorf("text model path = %q", tm)
	}
	if im != "/data/models/image_model.onnx" {
		t.Errorf("image model path = %q", im)
	}
	if v != "/data/models/vocab.json" {
		t.Errorf("vocab path = %q", v)
	}
	if mg != "/data/models/merges.txt" {
		t.Errorf("merges path = %q", mg)
	}
}

func TestResolvePathsDefaultDir(t *testing.T) {
	o := options{}
	tm, _, _, _ := resolvePaths(o)
	if tm != "models/text_model.onnx" {
		t.Errorf("default text model path = %q, want models/text_model.onnx", tm)
	}
}
