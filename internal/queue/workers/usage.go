package workers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/speechgateway/internal/queue"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
)

// UsageRecorder persists usage events.
type UsageRecorder interface {
	Insert(ctx context.Context, ev usage.Event) error
}

// UsageSummarizer aggregates persisted usage events.
type UsageSummarizer interface {
	Summarize(ctx context.Context, since time.Time) ([]usage.Summary, error)
}

type UsageWorker struct {
	recorder UsageRecorder
}

func NewUsageWorker(recorder UsageRecorder) *UsageWorker {
	return &UsageWorker{recorder: recorder}
}

func (w *UsageWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var ev usage.Event
	if err := json.Unmarshal(t.Payload(), &ev); err != nil {
		return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
	}

	if err := w.recorder.Insert(ctx, ev); err != nil {
		return err
	}

	slog.Debug("usage recorded", "request_id", ev.RequestID, "outcome", ev.Outcome)
	return nil
}

type UsageReportWorker struct {
	summarizer UsageSummarizer
	now        func() time.Time
}

func NewUsageReportWorker(summarizer UsageSummarizer) *UsageReportWorker {
	return &UsageReportWorker{summarizer: summarizer, now: time.Now}
}

func (w *UsageReportWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	payload := queue.UsageReportPayload{WindowSeconds: 3600}
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal payload: %w: %w", err, asynq.SkipRetry)
		}
	}

	window := time.Duration(payload.WindowSeconds) * time.Second
	rows, err := w.summarizer.Summarize(ctx, w.now().Add(-window))
	if err != nil {
		return err
	}

	for _, r := range rows {
		slog.Info("speech usage",
			"window", window.String(),
			"model", r.Model,
			"voice", r.Voice,
			"outcome", r.Outcome,
			"calls", r.Calls,
			"characters", r.Characters,
			"bytes", r.Bytes,
		)
	}
	return nil
}
