package moodcam

// Result is the outcome of classifying one image.
// This is the stable public type — internal representations may evolve
// independently without breaking consumers.
type Result struct {
	Label      string  `json:"label"`      // top label name
	Index      int     `json:"index"`      // top label's position in the label list
	Confidence float64 `json:"confidence"` // softmax probability of the top label
	Scores     []Score `json:"scores"`     // full distribution, label-list order
}

// Score is one label's probability in the distribution.
type Score struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}
