// Package labelbank builds the per-label reference embeddings the classifier
// scores frames against. Each label's vector is the renormalized mean of the
// encoded prompt ensemble, so no single phrasing dominates the reference.
package labelbank

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"

	"github.com/crimson-sun/moodcam/internal/encoder"
)

// ErrInvalidTemplate indicates a prompt template does not carry exactly one
// %s substitution slot.
var ErrInvalidTemplate = errors.New("invalid prompt template")

// Bank holds one unit-norm reference vector per label, in label order.
// Immutable after Build; safe to share across concurrent classifications.
type Bank struct {
	labels []string
	dim    int
	vecs   [][]float32 // vecs[i] is the reference vector for labels[i]
}

// Build encodes the prompt ensemble for every label and assembles the bank.
// Labels are processed concurrently; results are merged by label index, so
// the bank's column order always matches the input label order.
//
// Fails with ErrInvalidTemplate on a malformed template and with the
// encoder's error (wrapping encoder.ErrUnavailable or encoder.ErrInputTooLong)
// when text encoding fails. Any failure is fatal: a partial bank is never
// returned.
func Build(enc encoder.Encoder, labels, templates []string) (*Bank, error) {
	if len(labels) == 0 {
		return nil, errors.New("labelbank: no labels")
	}
	if len(templates) == 0 {
		return nil, errors.New("labelbank: no templates")
	}
	for _, tpl := range templates {
		if err := validateTemplate(tpl); err != nil {
			return nil, err
		}
	}

	vecs := make([][]float32, len(labels))
	buildErrs := make([]error, len(labels))

	var wg sync.WaitGroup
	for i, label := range labels {
		wg.Add(1)
		go func() {
			defer wg.Done()
			vecs[i], buildErrs[i] = buildLabel(enc, label, templates)
		}()
	}
	wg.Wait()

	if err := errors.Join(buildErrs...); err != nil {
		return nil, err
	}

	return &Bank{
		labels: append([]string(nil), labels...),
		dim:    len(vecs[0]),
		vecs:   vecs,
	}, nil
}

// buildLabel produces the ensembled unit-norm reference vector for one label.
func buildLabel(enc encoder.Encoder, label string, templates []string) ([]float32, error) {
	prompts := make([]string, len(templates))
	for i, tpl := range templates {
		prompts[i] = fmt.Sprintf(tpl, label)
	}

	raw, err := enc.EncodeText(prompts)
	if err != nil {
		return nil, fmt.Errorf("labelbank: label %q: %w", label, err)
	}
	if len(raw) != len(prompts) {
		return nil, fmt.Errorf("labelbank: label %q: got %d embeddings for %d prompts: %w",
			label, len(raw), len(prompts), encoder.ErrUnavailable)
	}

	dim := len(raw[0])
	sum := make([]float64, dim)
	for _, vec := range raw {
		if len(vec) != dim {
			return nil, fmt.Errorf("labelbank: label %q: embedding dim %d != %d: %w",
				label, len(vec), dim, encoder.ErrUnavailable)
		}
		// Normalize each prompt's embedding before averaging so templates
		// with larger raw magnitudes don't dominate the ensemble.
		unit, err := normalized(vec)
		if err != nil {
			return nil, fmt.Errorf("labelbank: label %q: %w", label, err)
		}
		for d, v := range unit {
			sum[d] += float64(v)
		}
	}

	// The mean of unit vectors is not unit-norm; restore it so downstream
	// dot products are cosine similarities.
	mean := make([]float32, dim)
	inv := 1.0 / float64(len(raw))
	for d, v := range sum {
		mean[d] = float32(v * inv)
	}
	unit, err := normalized(mean)
	if err != nil {
		return nil, fmt.Errorf("labelbank: label %q: %w", label, err)
	}
	return unit, nil
}

// validateTemplate checks that a template has exactly one %s slot and no
// other format verbs.
func validateTemplate(tpl string) error {
	if strings.Count(tpl, "%s") != 1 || strings.Count(tpl, "%") != 1 {
		return fmt.Errorf("%w: %q needs exactly one %%s slot", ErrInvalidTemplate, tpl)
	}
	return nil
}

// normalized returns a unit-L2-norm copy of vec. Fails on a zero-norm input,
// which indicates a malformed embedding.
func normalized(vec []float32) ([]float32, error) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return nil, fmt.Errorf("zero-norm embedding: %w", encoder.ErrUnavailable)
	}
	inv := 1.0 / math.Sqrt(sumSq)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out, nil
}

// Labels returns the label names in bank order. Read-only.
func (b *Bank) Labels() []string {
	return b.labels
}

// Len returns the number of labels.
func (b *Bank) Len() int {
	return len(b.labels)
}

// Dim returns the embedding dimensionality.
func (b *Bank) Dim() int {
	return b.dim
}

// Vector returns label i's unit-norm reference vector. Read-only.
func (b *Bank) Vector(i int) []float32 {
	return b.vecs[i]
}
