// Package tasks defines the background task types and the client used
// to dispatch them to the Redis-backed queue.
package tasks

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"
)

// Task type names shared by dispatcher and worker.
const (
	TypeEmailSend   = "email:send"
	TypeFileProcess = "file:process"
)

// EmailPayload carries an outbound email job.
type EmailPayload struct {
	Recipient string `json:"recipient"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
}

// FileProcessPayload carries a post-upload processing job.
type FileProcessPayload struct {
	Filename string `json:"filename"`
	UserID   int64  `json:"user_id"`
}

// Dispatcher enqueues background tasks. Implementations must not fail
// the calling request: dispatch errors are logged and swallowed.
type Dispatcher interface {
	DispatchEmail(ctx context.Context, payload EmailPayload)
	DispatchFileProcess(ctx context.Context, payload FileProcessPayload)
}

// AsynqDispatcher dispatches tasks through an asynq client.
type AsynqDispatcher struct {
	client *asynq.Client
}

// NewDispatcher connects an asynq client to the given Redis URL.
func NewDispatcher(redisURL string) (*AsynqDispatcher, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, err
	}
	return &AsynqDispatcher{client: asynq.NewClient(opt)}, nil
}

// Close releases the underlying connection.
func (d *AsynqDispatcher) Close() error {
	return d.client.Close()
}

// DispatchEmail enqueues an email:send task.
func (d *AsynqDispatcher) DispatchEmail(ctx context.Context, payload EmailPayload) {
	d.enqueue(ctx, TypeEmailSend, payload, asynq.MaxRetry(5))
}

// DispatchFileProcess enqueues a file:process task.
func (d *AsynqDispatcher) DispatchFileProcess(ctx context.Context, payload FileProcessPayload) {
	d.enqueue(ctx, TypeFileProcess, payload, asynq.MaxRetry(3))
}

func (d *AsynqDispatcher) enqueue(ctx context.Context, taskType string, payload any, opts ...asynq.Option) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Str("task", taskType).Msg("Failed to encode task payload")
		return
	}
	info, err := d.client.EnqueueContext(ctx, asynq.NewTask(taskType, data), opts...)
	if err != nil {
		// Task dispatch fails open, like the cache: the request proceeds.
		log.Error().Err(err).Str("task", taskType).Msg("Failed to enqueue task")
		return
	}
	log.Info().Str("task", taskType).Str("task_id", info.ID).Msg("Task enqueued")
}

// NopDispatcher drops all tasks. Used when no broker is configured
// and in tests.
type NopDispatcher struct{}

func (NopDispatcher) DispatchEmail(context.Context, EmailPayload)             {}
func (NopDispatcher) DispatchFileProcess(context.Context, FileProcessPayload) {}
