package events

import (
	"context"
	"encoding/json"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"

	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

// CleanupTask asks the cleanup worker to delete one stored object whose
// database row is already gone.
type CleanupTask struct {
	Bucket      string    `json:"bucket"`
	Object      string    `json:"object"`
	RequestedAt time.Time `json:"requested_at"`
}

// CleanupPublisher hands orphaned objects to the cleanup worker. Like hint
// publishing it never fails the calling operation; a dropped task only means
// the object lingers until someone sweeps the bucket.
type CleanupPublisher struct {
	publisher messagePublisher
	logg      *logger.Logger
}

// NewCleanupPublisher wraps the cleanup topic publisher. Nil disables it.
func NewCleanupPublisher(p *pubsub.Publisher, logg *logger.Logger) *CleanupPublisher {
	return &CleanupPublisher{publisher: wrapPublisher(p), logg: logg}
}

// ObjectOrphaned enqueues one object for deletion.
func (c *CleanupPublisher) ObjectOrphaned(ctx context.Context, bucket, object string) {
	if c == nil || c.publisher == nil {
		return
	}

	payload, err := json.Marshal(CleanupTask{
		Bucket:      bucket,
		Object:      object,
		RequestedAt: time.Now().UTC(),
	})
	if err != nil {
		c.logg.Error(ctx, "marshal cleanup task", err)
		return
	}

	result := c.publisher.Publish(ctx, &pubsub.Message{Data: payload})
	go func() {
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := result.Get(waitCtx); err != nil {
			c.logg.Error(waitCtx, "publish cleanup task", err)
		}
	}()
}
