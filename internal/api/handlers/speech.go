package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/nikhilbhutani/speechgateway/internal/speech"
	"github.com/nikhilbhutani/speechgateway/internal/tts"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
)

const (
	msgInvalidBody        = "invalid request body"
	msgTextRequired       = "Text is required"
	msgCredentialMissing  = "OpenAI API key not configured"
	msgSynthesisFailed    = "Failed to generate speech"
	maxSpeechRequestBytes = 1 << 20
)

// speechPayload mirrors the POST /api/tts body. Text stays raw so a value of
// the wrong JSON type is reported as missing text rather than a bad body.
type speechPayload struct {
	Text         json.RawMessage `json:"text"`
	Model        string          `json:"model"`
	Voice        string          `json:"voice"`
	Instructions string          `json:"instructions"`
}

func (p speechPayload) input() speech.Input {
	var text string
	if len(p.Text) > 0 {
		if err := json.Unmarshal(p.Text, &text); err != nil {
			text = ""
		}
	}
	return speech.Input{
		Text:         text,
		Model:        p.Model,
		Voice:        p.Voice,
		Instructions: p.Instructions,
	}
}

// AudioObserver is told the size of every audio payload served.
type AudioObserver interface {
	ObserveAudioBytes(n int)
}

type SpeechHandler struct {
	gateway   *speech.Gateway
	publisher usage.Publisher
	audio     AudioObserver
}

func NewSpeechHandler(gw *speech.Gateway, publisher usage.Publisher, audio AudioObserver) *SpeechHandler {
	if publisher == nil {
		publisher = usage.NopPublisher{}
	}
	return &SpeechHandler{gateway: gw, publisher: publisher, audio: audio}
}

// Create synthesizes the posted text and streams the MP3 back as an attachment.
func (h *SpeechHandler) Create(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := chimiddleware.GetReqID(r.Context())
	usageID := uuid.New()

	var p speechPayload
	body := http.MaxBytesReader(w, r.Body, maxSpeechRequestBytes)
	if err := json.NewDecoder(body).Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgInvalidBody})
		return
	}

	in := p.input()
	res, err := h.gateway.Synthesize(r.Context(), in)

	ev := usage.Event{
		RequestID:  usageID,
		Provider:   h.gateway.ProviderName(),
		Characters: len([]rune(in.Text)),
		CreatedAt:  start.UTC(),
	}
	built := h.gateway.BuildRequest(in)
	ev.Model, ev.Voice = built.Model, built.Voice

	switch {
	case errors.Is(err, speech.ErrTextRequired):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": msgTextRequired})
		ev.Outcome = string(speech.OutcomeInvalid)

	case errors.Is(err, speech.ErrCredentialMissing):
		slog.Warn("speech request rejected: provider credential missing", "request_id", reqID, "usage_id", usageID)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgCredentialMissing})
		ev.Outcome = string(speech.OutcomeUnconfigured)

	case err != nil:
		attrs := []any{"request_id", reqID, "usage_id", usageID, "error", err}
		if f, ok := tts.AsFailure(err); ok {
			attrs = append(attrs, "cause", f.Cause, "detail", f.Detail())
			ev.Cause = string(f.Cause)
		}
		slog.Error("speech synthesis failed", attrs...)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msgSynthesisFailed})
		ev.Outcome = string(speech.OutcomeProviderError)

	default:
		w.Header().Set("Content-Type", res.MIMEType)
		w.Header().Set("Content-Length", strconv.Itoa(len(res.Audio)))
		w.Header().Set("Content-Disposition", "attachment; filename=speech.mp3")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(res.Audio); err != nil {
			slog.Warn("speech response write failed", "request_id", reqID, "usage_id", usageID, "error", err)
		}
		if h.audio != nil {
			h.audio.ObserveAudioBytes(len(res.Audio))
		}
		ev.Outcome = string(speech.OutcomeOK)
		ev.Bytes = len(res.Audio)
		slog.Info("speech synthesized", "request_id", reqID, "usage_id", usageID, "bytes", len(res.Audio))
	}

	ev.LatencyMs = time.Since(start).Milliseconds()
	h.publish(r.Context(), ev)
}

func (h *SpeechHandler) publish(ctx context.Context, ev usage.Event) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	if err := h.publisher.Publish(ctx, ev); err != nil {
		slog.Warn("usage publish failed", "usage_id", ev.RequestID, "error", err)
	}
}
