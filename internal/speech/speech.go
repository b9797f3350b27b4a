// Package speech turns document summaries into narrated audio.
package speech

import "context"

type SynthesisRequest struct {
	Input string  `json:"input"`
	Voice string  `json:"voice,omitempty"`
	Speed float64 `json:"speed,omitempty"`
}

type SynthesisResult struct {
	Audio       []byte
	ContentType string
	// Ext is the file extension for Audio, including the dot.
	Ext string
}

// Synthesizer is a text-to-speech backend.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
	Name() string
}
