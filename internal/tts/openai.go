package tts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAITTSConfig holds configuration for the OpenAI speech backend.
type OpenAITTSConfig struct {
	BaseURL    string       // default: go-openai's https://api.openai.com/v1
	HTTPClient *http.Client // default: http.DefaultClient
}

// OpenAITTS synthesizes speech with OpenAI's audio/speech endpoint. The
// credential is supplied per call so the provider itself holds no secret.
type OpenAITTS struct {
	cfg OpenAITTSConfig
}

// NewOpenAITTS creates an OpenAITTS with defaults applied.
func NewOpenAITTS(cfg OpenAITTSConfig) *OpenAITTS {
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = http.DefaultClient
	}
	return &OpenAITTS{cfg: cfg}
}

func (o *OpenAITTS) Name() string { return "openai-tts" }

func (o *OpenAITTS) client(credential string) *openai.Client {
	oc := openai.DefaultConfig(credential)
	if o.cfg.BaseURL != "" {
		oc.BaseURL = o.cfg.BaseURL
	}
	oc.HTTPClient = o.cfg.HTTPClient
	return openai.NewClientWithConfig(oc)
}

// Synthesize converts text to MP3 audio and reads it fully into memory.
func (o *OpenAITTS) Synthesize(ctx context.Context, req Request, credential string) (*Result, error) {
	oReq := openai.CreateSpeechRequest{
		Model:          openai.SpeechModel(req.Model),
		Voice:          openai.SpeechVoice(req.Voice),
		Input:          req.Input,
		Instructions:   req.Instructions,
		ResponseFormat: openai.SpeechResponseFormatMp3,
	}

	resp, err := o.client(credential).CreateSpeech(ctx, oReq)
	if err != nil {
		f := classify(err)
		slog.Error("speech provider call failed",
			"provider", o.Name(),
			"model", req.Model,
			"cause", f.Cause,
			"status", f.Status,
			"error", err,
		)
		return nil, f
	}
	defer resp.Close()

	audio, err := io.ReadAll(resp)
	if err != nil {
		slog.Error("speech provider body read failed", "provider", o.Name(), "error", err)
		return nil, NewFailure(CauseTransport, 0, fmt.Errorf("read audio: %w", err))
	}

	return &Result{
		Audio:    audio,
		MIMEType: MIMETypeMPEG,
	}, nil
}

func classify(err error) *Failure {
	status := 0

	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	default:
		return NewFailure(CauseTransport, 0, err)
	}

	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return NewFailure(CauseAuthentication, status, err)
	case status == http.StatusTooManyRequests:
		return NewFailure(CauseRateLimited, status, err)
	case status >= 400 && status < 500:
		return NewFailure(CauseInvalidRequest, status, err)
	default:
		return NewFailure(CauseUpstream, status, err)
	}
}
