package model

import (
	"time"

	"github.com/google/uuid"
)

// LabelScore is one entry of the per-frame probability distribution.
type LabelScore struct {
	Label       string  `json:"label"`
	Probability float64 `json:"probability"`
}

// Annotation is moodcam's output type — the classification decision for one
// frame, ready for an overlay or a downstream consumer.
type Annotation struct {
	FrameID    uuid.UUID     `json:"frame_id,omitzero"`
	Seq        int64         `json:"seq"`
	Source     string        `json:"source,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	Label      string        `json:"label"`                // top label name
	Index      int           `json:"index"`                // top label's position in the configured order
	Confidence float64       `json:"confidence"`           // softmax probability of the top label
	Scores     []LabelScore  `json:"scores,omitempty"`     // full distribution, label order
	Elapsed    time.Duration `json:"elapsed_ns,omitempty"` // encode + classify latency
	Count      int           `json:"count,omitempty"`      // >0 when consecutive identical labels were coalesced
}
