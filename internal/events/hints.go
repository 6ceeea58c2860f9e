package events

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

const publishTimeout = 10 * time.Second

// ChangeHint tells subscribed clients that a row changed and should be
// re-fetched. It carries identity only, never row data.
type ChangeHint struct {
	Table string `json:"table"`
	ID    string `json:"id"`
	Op    string `json:"op"`
}

type publishResult interface {
	Get(ctx context.Context) (string, error)
}

type messagePublisher interface {
	Publish(ctx context.Context, msg *pubsub.Message) publishResult
}

// HintPublisher emits advisory table-change hints. Publishing is
// fire-and-forget: a failed hint is logged and dropped, never retried, and
// never fails the operation that produced it.
type HintPublisher struct {
	publisher messagePublisher
	logg      *logger.Logger
}

// NewHintPublisher wraps a topic publisher. A nil publisher yields a
// publisher that silently drops every hint, which keeps local setups without
// Pub/Sub working.
func NewHintPublisher(p *pubsub.Publisher, logg *logger.Logger) *HintPublisher {
	return &HintPublisher{publisher: wrapPublisher(p), logg: logg}
}

// TableChanged publishes one hint without blocking the caller.
func (h *HintPublisher) TableChanged(ctx context.Context, table string, id uuid.UUID, op string) {
	if h == nil || h.publisher == nil {
		return
	}

	payload, err := json.Marshal(ChangeHint{Table: table, ID: id.String(), Op: op})
	if err != nil {
		h.logg.Error(ctx, "marshal change hint", err)
		return
	}

	msg := &pubsub.Message{
		Data: payload,
		Attributes: map[string]string{
			"table": table,
			"op":    op,
		},
	}

	result := h.publisher.Publish(ctx, msg)
	go func() {
		waitCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
		defer cancel()
		if _, err := result.Get(waitCtx); err != nil {
			h.logg.Error(waitCtx, "publish change hint", err)
		}
	}()
}

func wrapPublisher(p *pubsub.Publisher) messagePublisher {
	if p == nil {
		return nil
	}
	return &gcpPublisher{Publisher: p}
}

type gcpPublisher struct {
	*pubsub.Publisher
}

func (p *gcpPublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	return &gcpPublishResult{PublishResult: p.Publisher.Publish(ctx, msg)}
}

type gcpPublishResult struct {
	*pubsub.PublishResult
}

func (r *gcpPublishResult) Get(ctx context.Context) (string, error) {
	if r == nil || r.PublishResult == nil {
		return "", errors.New("publish result is nil")
	}
	return r.PublishResult.Get(ctx)
}
