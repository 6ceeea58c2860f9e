package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

const cleanupJobName = "asset_cleanup"

type objectDeleter interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

type jobRecorder interface {
	ObserveDuration(job string, duration time.Duration)
	IncSuccess(job string)
	IncFailure(job string)
}

// CleanupConsumer drains the asset-cleanup queue and deletes the orphaned
// objects it names. Deletion is idempotent, so redelivery is harmless.
type CleanupConsumer struct {
	store        objectDeleter
	subscription *pubsub.Subscriber
	jobs         jobRecorder
	logg         *logger.Logger
}

// NewCleanupConsumer wires the cleanup worker. Jobs may be nil.
func NewCleanupConsumer(store objectDeleter, subscription *pubsub.Subscriber, jobs jobRecorder, logg *logger.Logger) (*CleanupConsumer, error) {
	if store == nil {
		return nil, errors.New("object store is required")
	}
	if subscription == nil {
		return nil, errors.New("cleanup subscription is required")
	}
	if logg == nil {
		return nil, errors.New("logger is required")
	}
	return &CleanupConsumer{
		store:        store,
		subscription: subscription,
		jobs:         jobs,
		logg:         logg,
	}, nil
}

// Run processes cleanup tasks until the context is canceled.
func (c *CleanupConsumer) Run(ctx context.Context) error {
	return c.subscription.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		if c.Process(ctx, msg.ID, msg.Data) {
			msg.Ack()
			return
		}
		msg.Nack()
	})
}

// Process handles one task payload and reports whether it should be acked.
func (c *CleanupConsumer) Process(ctx context.Context, messageID string, data []byte) bool {
	start := time.Now()

	var task CleanupTask
	if err := json.Unmarshal(data, &task); err != nil {
		logCtx := c.logg.WithFields(ctx, map[string]any{"message_id": messageID})
		c.logg.Error(logCtx, "failed to decode cleanup task", err)
		c.recordFailure(start)
		// Malformed payloads never become valid; drop them.
		return true
	}

	logCtx := c.logg.WithFields(ctx, map[string]any{
		"message_id": messageID,
		"bucket":     task.Bucket,
		"object":     task.Object,
	})

	if task.Bucket == "" || task.Object == "" {
		c.logg.Error(logCtx, "cleanup task missing bucket or object", errors.New("incomplete task"))
		c.recordFailure(start)
		return true
	}

	if err := c.store.DeleteObject(ctx, task.Bucket, task.Object); err != nil {
		c.logg.Error(logCtx, "failed to delete orphaned object", err)
		c.recordFailure(start)
		return false
	}

	if c.jobs != nil {
		c.jobs.IncSuccess(cleanupJobName)
		c.jobs.ObserveDuration(cleanupJobName, time.Since(start))
	}
	c.logg.Info(logCtx, "deleted orphaned object")
	return true
}

func (c *CleanupConsumer) recordFailure(start time.Time) {
	if c.jobs == nil {
		return
	}
	c.jobs.IncFailure(cleanupJobName)
	c.jobs.ObserveDuration(cleanupJobName, time.Since(start))
}
