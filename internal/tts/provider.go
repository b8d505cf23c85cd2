package tts

import "context"

const (
	DefaultModel = "gpt-4o-mini-tts"
	DefaultVoice = "coral"

	MIMETypeMPEG = "audio/mpeg"
)

// Request holds the parameters sent to a speech provider. Instructions is
// dropped from the outgoing payload when empty.
type Request struct {
	Model        string `json:"model"`
	Voice        string `json:"voice"`
	Input        string `json:"input"`
	Instructions string `json:"instructions,omitempty"`
}

// Result holds the generated audio.
type Result struct {
	Audio    []byte
	MIMEType string
}

// Provider is the interface for text-to-speech backends. Implementations
// return either a Result or a *Failure, never both.
type Provider interface {
	Synthesize(ctx context.Context, req Request, credential string) (*Result, error)
	Name() string
}
