package encoder

import (
	"fmt"
	"path/filepath"
	"sync"

	ort "github.com/yalue/onnxruntime_go"
)

// ortEnv manages global ONNX Runtime initialization (process-wide singleton).
var ortEnv struct {
	once sync.Once
	err  error
}

// initORT initializes the ONNX Runtime environment. Safe to call multiple
// times; only the first call has any effect.
func initORT(libPath string) error {
	ortEnv.once.Do(func() {
		ort.SetSharedLibraryPath(libPath)
		ortEnv.err = ort.InitializeEnvironment()
	})
	return ortEnv.err
}

// newSessionOptions builds shared session options for both towers.
func newSessionOptions() (*ort.SessionOptions, error) {
	opts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create session options: %w", err)
	}
	opts.SetIntraOpNumThreads(4)
	opts.SetInterOpNumThreads(1)
	return opts, nil
}

// embedOutput validates that a model emits a single 2D [batch, dim]
// embedding tensor and returns its name and dimensionality.
func embedOutput(outputs []ort.InputOutputInfo) (string, int64, error) {
	if len(outputs) == 0 {
		return "", 0, fmt.Errorf("onnx: model has no outputs")
	}
	dims := outputs[0].Dimensions
	if len(dims) != 2 {
		return "", 0, fmt.Errorf("onnx: expected 2D embedding output, got %v", dims)
	}
	return outputs[0].Name, dims[1], nil
}

// textSession wraps a DynamicAdvancedSession for the CLIP text tower.
type textSession struct {
	session    *ort.DynamicAdvancedSession
	inputNames []string
	outputName string
	embedDim   int64
}

// newTextSession loads the text model and creates an inference session.
// It validates the model's input/output tensor names and shapes.
func newTextSession(modelPath string) (*textSession, error) {
	// Resolve the ONNX Runtime shared library path. We ship it alongside the
	// model files in the models/ directory.
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}

	inputNames, err := requireInputs(inputs, "input_ids", "attention_mask")
	if err != nil {
		return nil, err
	}

	outputName, embedDim, err := embedOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := newSessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create text session: %w", err)
	}

	return &textSession{
		session:    session,
		inputNames: inputNames,
		outputName: outputName,
		embedDim:   embedDim,
	}, nil
}

// infer runs one batched text inference. inputIDs and attentionMask are flat
// [batchSize * contextLength] slices. Returns flat [batchSize * embedDim].
func (s *textSession) infer(inputIDs, attentionMask []int64, batchSize int64) ([]float32, error) {
	shape := ort.NewShape(batchSize, contextLength)

	tIDs, err := ort.NewTensor(shape, inputIDs)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create input_ids tensor: %w", err)
	}
	defer tIDs.Destroy()

	tMask, err := ort.NewTensor(shape, attentionMask)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create attention_mask tensor: %w", err)
	}
	defer tMask.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(batchSize, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	err = s.session.Run([]ort.Value{tIDs, tMask}, []ort.Value{tOut})
	if err != nil {
		return nil, fmt.Errorf("onnx: text inference failed: %w", err)
	}

	// Copy data out before the tensor is destroyed.
	src := tOut.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

func (s *textSession) close() error {
	return s.session.Destroy()
}

// imageSession wraps a DynamicAdvancedSession for the CLIP image tower.
type imageSession struct {
	session    *ort.DynamicAdvancedSession
	inputName  string
	outputName string
	embedDim   int64
}

// newImageSession loads the image model and creates an inference session.
func newImageSession(modelPath string) (*imageSession, error) {
	libPath := filepath.Join(filepath.Dir(modelPath), "libonnxruntime.so")
	if err := initORT(libPath); err != nil {
		return nil, fmt.Errorf("onnx: failed to initialize runtime: %w", err)
	}

	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to read model info: %w", err)
	}

	inputNames, err := requireInputs(inputs, "pixel_values")
	if err != nil {
		return nil, err
	}

	outputName, embedDim, err := embedOutput(outputs)
	if err != nil {
		return nil, err
	}

	opts, err := newSessionOptions()
	if err != nil {
		return nil, err
	}
	defer opts.Destroy()

	session, err := ort.NewDynamicAdvancedSession(modelPath, inputNames, []string{outputName}, opts)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create image session: %w", err)
	}

	return &imageSession{
		session:    session,
		inputName:  inputNames[0],
		outputName: outputName,
		embedDim:   embedDim,
	}, nil
}

// infer runs a single-image inference. pixels is a flat NCHW
// [1 * 3 * imageSize * imageSize] slice. Returns one [embedDim] vector.
func (s *imageSession) infer(pixels []float32) ([]float32, error) {
	tIn, err := ort.NewTensor(ort.NewShape(1, 3, imageSize, imageSize), pixels)
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create pixel_values tensor: %w", err)
	}
	defer tIn.Destroy()

	tOut, err := ort.NewEmptyTensor[float32](ort.NewShape(1, s.embedDim))
	if err != nil {
		return nil, fmt.Errorf("onnx: failed to create output tensor: %w", err)
	}
	defer tOut.Destroy()

	err = s.session.Run([]ort.Value{tIn}, []ort.Value{tOut})
	if err != nil {
		return nil, fmt.Errorf("onnx: image inference failed: %w", err)
	}

	src := tOut.GetData()
	result := make([]float32, len(src))
	copy(result, src)
	return result, nil
}

func (s *imageSession) close() error {
	return s.session.Destroy()
}

// requireInputs checks that the model has the expected input tensors and
// returns them in the required order.
func requireInputs(inputs []ort.InputOutputInfo, required ...string) ([]string, error) {
	nameSet := make(map[string]bool, len(inputs))
	for _, inp := range inputs {
		nameSet[inp.Name] = true
	}
	for _, name := range required {
		if !nameSet[name] {
			return nil, fmt.Errorf("onnx: model missing required input %q", name)
		}
	}
	return required, nil
}
