package detector

import "github.com/voiceguard-ai/voiceguard/pkg/audio"

// Label is the binary classification outcome.
type Label string

const (
	LabelGenuine Label = "genuine"
	LabelSpoofed Label = "spoofed"
)

// Verdict is the classification result for one clip. Confidence is the
// model's spoof probability in [0, 1]; Label is derived from it by
// thresholding and carries no extra information, but is included so
// consumers never re-implement the decision rule.
type Verdict struct {
	Label      Label   `json:"label"`
	Confidence float32 `json:"confidence"`
}

// NewVerdict derives a verdict from a spoof probability. A score exactly
// at the threshold is classified as spoofed: ties resolve toward the
// cautious outcome.
func NewVerdict(score, threshold float32) Verdict {
	label := LabelGenuine
	if score >= threshold {
		label = LabelSpoofed
	}
	return Verdict{Label: label, Confidence: score}
}

// Result is the full response for one analyzed clip: the verdict plus
// acoustic metadata for display. SpeechRatio is present only when a
// speech gate is configured and succeeded.
type Result struct {
	Verdict     Verdict       `json:"verdict"`
	Profile     audio.Profile `json:"profile"`
	SpeechRatio *float64      `json:"speech_ratio,omitempty"`
}
