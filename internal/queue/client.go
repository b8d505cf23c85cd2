package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/speechgateway/internal/config"
	"github.com/nikhilbhutani/speechgateway/internal/usage"
)

// Client enqueues background tasks. It satisfies usage.Publisher.
type Client struct {
	client *asynq.Client
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// Publish enqueues a usage event. The event's RequestID doubles as the task
// ID, so publishing the same event twice enqueues it once.
func (c *Client) Publish(ctx context.Context, ev usage.Event) error {
	return c.enqueue(ctx, TypeSpeechUsage, ev,
		asynq.Queue(QueueLow),
		asynq.TaskID(ev.RequestID.String()),
		asynq.MaxRetry(3),
		asynq.Timeout(30*time.Second),
	)
}

func (c *Client) enqueue(ctx context.Context, taskType string, payload interface{}, opts ...asynq.Option) error {
	task, err := NewTask(taskType, payload)
	if err != nil {
		return err
	}
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}

// NewTask marshals payload into an asynq task.
func NewTask(taskType string, payload interface{}) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(taskType, data), nil
}

var _ usage.Publisher = (*Client)(nil)
