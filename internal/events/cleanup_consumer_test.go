package events

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/serenadecraft/serenade-backend/pkg/logger"
)

type stubDeleter struct {
	calls []string
	err   error
}

func (s *stubDeleter) DeleteObject(ctx context.Context, bucket, object string) error {
	s.calls = append(s.calls, bucket+"/"+object)
	return s.err
}

type stubJobs struct {
	successes int
	failures  int
	durations int
}

func (s *stubJobs) ObserveDuration(job string, d time.Duration) { s.durations++ }
func (s *stubJobs) IncSuccess(job string)                       { s.successes++ }
func (s *stubJobs) IncFailure(job string)                       { s.failures++ }

func newTestCleanupConsumer(store *stubDeleter, jobs jobRecorder) *CleanupConsumer {
	return &CleanupConsumer{
		store: store,
		jobs:  jobs,
		logg: logger.New(logger.Options{
			ServiceName: "test",
			Level:       zerolog.Disabled,
			Output:      io.Discard,
		}),
	}
}

func TestProcessDeletesNamedObject(t *testing.T) {
	store := &stubDeleter{}
	jobs := &stubJobs{}
	consumer := newTestCleanupConsumer(store, jobs)

	payload, err := json.Marshal(CleanupTask{
		Bucket:      "serenade-audio",
		Object:      "orders/abc/primary/audio/song.mp3",
		RequestedAt: time.Now().UTC(),
	})
	require.NoError(t, err)

	ack := consumer.Process(context.Background(), "m1", payload)

	assert.True(t, ack)
	require.Len(t, store.calls, 1)
	assert.Equal(t, "serenade-audio/orders/abc/primary/audio/song.mp3", store.calls[0])
	assert.Equal(t, 1, jobs.successes)
	assert.Zero(t, jobs.failures)
}

func TestProcessNacksOnStoreFailure(t *testing.T) {
	store := &stubDeleter{err: errors.New("backend unavailable")}
	jobs := &stubJobs{}
	consumer := newTestCleanupConsumer(store, jobs)

	payload, err := json.Marshal(CleanupTask{Bucket: "b", Object: "o"})
	require.NoError(t, err)

	ack := consumer.Process(context.Background(), "m2", payload)

	assert.False(t, ack)
	assert.Equal(t, 1, jobs.failures)
	assert.Zero(t, jobs.successes)
}

func TestProcessDropsMalformedPayloads(t *testing.T) {
	store := &stubDeleter{}
	jobs := &stubJobs{}
	consumer := newTestCleanupConsumer(store, jobs)

	ack := consumer.Process(context.Background(), "m3", []byte("{not json"))

	assert.True(t, ack)
	assert.Empty(t, store.calls)
	assert.Equal(t, 1, jobs.failures)
}

func TestProcessDropsIncompleteTasks(t *testing.T) {
	store := &stubDeleter{}
	consumer := newTestCleanupConsumer(store, nil)

	payload, err := json.Marshal(CleanupTask{Bucket: "only-bucket"})
	require.NoError(t, err)

	ack := consumer.Process(context.Background(), "m4", payload)

	assert.True(t, ack)
	assert.Empty(t, store.calls)
}
