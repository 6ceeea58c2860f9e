package events

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

type fakeResult struct {
	got chan struct{}
}

func (r *fakeResult) Get(ctx context.Context) (string, error) {
	close(r.got)
	return "msg-1", nil
}

type fakePublisher struct {
	messages []*pubsub.Message
	result   *fakeResult
}

func (p *fakePublisher) Publish(ctx context.Context, msg *pubsub.Message) publishResult {
	p.messages = append(p.messages, msg)
	return p.result
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Level: zerolog.Disabled, Output: io.Discard})
}

func TestTableChangedPublishesIdentityOnly(t *testing.T) {
	result := &fakeResult{got: make(chan struct{})}
	pub := &fakePublisher{result: result}
	hints := &HintPublisher{publisher: pub, logg: testLogger()}

	id := uuid.New()
	hints.TableChanged(context.Background(), "orders", id, "insert")

	require.Len(t, pub.messages, 1)
	msg := pub.messages[0]

	var hint ChangeHint
	require.NoError(t, json.Unmarshal(msg.Data, &hint))
	assert.Equal(t, "orders", hint.Table)
	assert.Equal(t, id.String(), hint.ID)
	assert.Equal(t, "insert", hint.Op)
	assert.Equal(t, "orders", msg.Attributes["table"])
	assert.Equal(t, "insert", msg.Attributes["op"])

	select {
	case <-result.got:
	case <-time.After(time.Second):
		t.Fatal("publish result was never awaited")
	}
}

func TestTableChangedWithoutPublisherIsNoOp(t *testing.T) {
	hints := NewHintPublisher(nil, testLogger())
	hints.TableChanged(context.Background(), "orders", uuid.New(), "update")

	var nilHints *HintPublisher
	nilHints.TableChanged(context.Background(), "orders", uuid.New(), "update")
}
