package classifier

import (
	"fmt"
	"math"

	"github.com/crimson-sun/moodcam/internal/engine/labelbank"
	"github.com/crimson-sun/moodcam/internal/model"
)

// Result holds the outcome of classifying a single image embedding.
type Result struct {
	Index      int                // top label's position in bank order
	Label      string             // top label name
	Confidence float64            // softmax probability of the top label
	Scores     []model.LabelScore // full distribution, bank order
}

// Classifier scores an image embedding against a label bank.
// Stateless across calls: the same (vector, bank) pair always yields the
// same result, and concurrent calls may share one Classifier and one Bank.
type Classifier struct {
	Temperature float64
}

// New creates a Classifier with the given temperature. Cosine similarities
// are multiplied by it before the softmax; raw similarities cluster in a
// narrow band and would otherwise give a near-uniform distribution.
func New(temperature float64) *Classifier {
	return &Classifier{Temperature: temperature}
}

// Classify normalizes vec, scores it against every bank vector, and returns
// the top label with the full probability distribution. Ties on the maximum
// probability resolve to the lowest label index.
func (c *Classifier) Classify(vec []float32, bank *labelbank.Bank) (Result, error) {
	if bank == nil || bank.Len() == 0 {
		return Result{}, fmt.Errorf("classifier: empty label bank")
	}
	if len(vec) != bank.Dim() {
		return Result{}, fmt.Errorf("classifier: embedding dim %d != bank dim %d", len(vec), bank.Dim())
	}

	unit, err := normalized(vec)
	if err != nil {
		return Result{}, fmt.Errorf("classifier: %w", err)
	}

	// Both operands are unit-norm, so the dot product is cosine similarity.
	logits := make([]float64, bank.Len())
	for i := 0; i < bank.Len(); i++ {
		logits[i] = dot(unit, bank.Vector(i)) * c.Temperature
	}

	probs := softmax(logits)

	best := 0
	for i, p := range probs {
		if p > probs[best] {
			best = i
		}
	}

	labels := bank.Labels()
	scores := make([]model.LabelScore, len(probs))
	for i, p := range probs {
		scores[i] = model.LabelScore{Label: labels[i], Probability: p}
	}

	return Result{
		Index:      best,
		Label:      labels[best],
		Confidence: probs[best],
		Scores:     scores,
	}, nil
}

// softmax converts logits to a probability distribution summing to 1.
// Subtracts the max logit first for numerical stability.
func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}

	out := make([]float64, len(logits))
	var sum float64
	for i, l := range logits {
		out[i] = math.Exp(l - max)
		sum += out[i]
	}
	inv := 1.0 / sum
	for i := range out {
		out[i] *= inv
	}
	return out
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// normalized returns a unit-L2-norm copy of vec without mutating the input.
func normalized(vec []float32) ([]float32, error) {
	var sumSq float64
	for _, v := range vec {
		sumSq += float64(v) * float64(v)
	}
	if sumSq == 0 {
		return nil, fmt.Errorf("zero-norm embedding")
	}
	inv := 1.0 / math.Sqrt(sumSq)
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(float64(v) * inv)
	}
	return out, nil
}
