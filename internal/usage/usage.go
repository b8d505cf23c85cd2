package usage

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event describes one gateway call. It never carries text or audio.
type Event struct {
	RequestID  uuid.UUID `json:"request_id"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	Voice      string    `json:"voice"`
	Characters int       `json:"characters"`
	Bytes      int       `json:"bytes"`
	LatencyMs  int64     `json:"latency_ms"`
	Outcome    string    `json:"outcome"`
	Cause      string    `json:"cause,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Publisher hands events to whatever records them.
type Publisher interface {
	Publish(ctx context.Context, ev Event) error
}

// NopPublisher drops events. Used when usage accounting is disabled.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) error { return nil }
