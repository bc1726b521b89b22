package encoder

import (
	"errors"
	"fmt"
	"image"
)

// ErrUnavailable indicates the embedding model could not produce a vector:
// the runtime failed, a session errored, or the output had an unexpected
// shape. Fatal at startup (text encoding); skip-and-continue per frame.
var ErrUnavailable = errors.New("embedding model unavailable")

// ErrInputTooLong indicates a text exceeds the model's fixed token budget.
var ErrInputTooLong = errors.New("input exceeds token budget")

// Encoder maps text and images into a shared embedding space.
type Encoder interface {
	// EncodeText returns one raw embedding per input text.
	EncodeText(texts []string) ([][]float32, error)
	// EncodeImage returns the raw embedding of one image. The encoder owns
	// all preprocessing (resize, crop, normalization).
	EncodeImage(img image.Image) ([]float32, error)
	// Dim returns the embedding dimensionality.
	Dim() int
	Close() error
}

// CLIPEncoder runs a CLIP-style dual-encoder exported to ONNX: one session
// for the text tower, one for the image tower, sharing an embedding space.
type CLIPEncoder struct {
	text *textSession
	img  *imageSession
	tok  *tokenizer
}

// New creates a CLIPEncoder by loading both ONNX models and the tokenizer
// files. The two towers must agree on embedding dimensionality.
func New(textModelPath, imageModelPath, vocabPath, mergesPath string) (*CLIPEncoder, error) {
	text, err := newTextSession(textModelPath)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	img, err := newImageSession(imageModelPath)
	if err != nil {
		text.close()
		return nil, fmt.Errorf("encoder: %w", err)
	}

	if text.embedDim != img.embedDim {
		text.close()
		img.close()
		return nil, fmt.Errorf("encoder: text dim %d != image dim %d",
			text.embedDim, img.embedDim)
	}

	tok, err := newTokenizer(vocabPath, mergesPath)
	if err != nil {
		text.close()
		img.close()
		return nil, fmt.Errorf("encoder: %w", err)
	}

	return &CLIPEncoder{text: text, img: img, tok: tok}, nil
}

// Dim returns the shared embedding dimensionality.
func (e *CLIPEncoder) Dim() int {
	return int(e.text.embedDim)
}

// EncodeText produces one raw embedding per text in a single batched
// inference call. Fails with ErrInputTooLong if any text exceeds the
// context length, ErrUnavailable on inference failure.
func (e *CLIPEncoder) EncodeText(texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	batch, err := e.tok.tokenizeBatch(texts)
	if err != nil {
		return nil, fmt.Errorf("encoder: %w", err)
	}

	flat, err := e.text.infer(batch.inputIDs, batch.attentionMask, batch.batchSize)
	if err != nil {
		return nil, fmt.Errorf("encoder: text inference: %v: %w", err, ErrUnavailable)
	}

	dim := e.text.embedDim
	out := make([][]float32, batch.batchSize)
	for i := int64(0); i < batch.batchSize; i++ {
		out[i] = flat[i*dim : (i+1)*dim : (i+1)*dim]
	}
	return out, nil
}

// EncodeImage preprocesses the image to the model's pixel contract and
// produces its raw embedding. Fails with ErrUnavailable on inference failure.
func (e *CLIPEncoder) EncodeImage(img image.Image) ([]float32, error) {
	if img == nil {
		return nil, fmt.Errorf("encoder: nil image: %w", ErrUnavailable)
	}

	pixels := preprocess(img)

	vec, err := e.img.infer(pixels)
	if err != nil {
		return nil, fmt.Errorf("encoder: image inference: %v: %w", err, ErrUnavailable)
	}
	return vec, nil
}

// Close releases ONNX Runtime resources for both towers.
func (e *CLIPEncoder) Close() error {
	var errs []error
	if e.text != nil {
		errs = append(errs, e.text.close())
	}
	if e.img != nil {
		errs = append(errs, e.img.close())
	}
	return errors.Join(errs...)
}
