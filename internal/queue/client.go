package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/nikhilbhutani/studybrain/internal/config"
)

type Client struct {
	client *asynq.Client
}

func NewClient(cfg config.RedisConfig) *Client {
	return &Client{
		client: asynq.NewClient(RedisOpt(cfg)),
	}
}

func RedisOpt(cfg config.RedisConfig) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueIngest schedules chunking, embedding and summarizing of an uploaded
// document. The document id doubles as the task id so an upload is queued
// at most once.
func (c *Client) EnqueueIngest(ctx context.Context, docID uuid.UUID) error {
	return c.enqueue(ctx, TypeDocumentIngest, docID,
		asynq.MaxRetry(3), asynq.Timeout(10*time.Minute), asynq.TaskID("ingest:"+docID.String()))
}

func (c *Client) EnqueueReindex(ctx context.Context, docID uuid.UUID) error {
	return c.enqueue(ctx, TypeDocumentReindex, docID, asynq.MaxRetry(3), asynq.Timeout(10*time.Minute))
}

func (c *Client) enqueue(ctx context.Context, taskType string, docID uuid.UUID, opts ...asynq.Option) error {
	data, err := json.Marshal(DocumentPayload{DocumentID: docID.String()})
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	task := asynq.NewTask(taskType, data)
	_, err = c.client.EnqueueContext(ctx, task, opts...)
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", taskType, err)
	}
	return nil
}
