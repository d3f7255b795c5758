package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDeleter struct {
	mu     sync.Mutex
	owners []string
	err    error
	done   chan string
}

func newRecordingDeleter() *recordingDeleter {
	return &recordingDeleter{done: make(chan string, 16)}
}

func (d *recordingDeleter) DeleteByOwner(_ context.Context, owner string) (int64, error) {
	d.mu.Lock()
	d.owners = append(d.owners, owner)
	d.mu.Unlock()
	d.done <- owner
	if d.err != nil {
		return 0, d.err
	}
	return 2, nil
}

func waitFor(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case owner := <-ch:
		return owner
	case <-time.After(2 * time.Second):
		t.Fatal("sweep did not run")
		return ""
	}
}

func TestSweeper_SweepsEnqueuedOwner(t *testing.T) {
	deleter := newRecordingDeleter()
	s := NewSweeper(2, deleter, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Enqueue("owner-1")

	assert.Equal(t, "owner-1", waitFor(t, deleter.done))
}

func TestSweeper_ErrorDoesNotStopWorker(t *testing.T) {
	deleter := newRecordingDeleter()
	deleter.err = errors.New("boom")
	s := NewSweeper(1, deleter, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	s.Start(ctx)

	s.Enqueue("owner-1")
	s.Enqueue("owner-2")

	assert.Equal(t, "owner-1", waitFor(t, deleter.done))
	assert.Equal(t, "owner-2", waitFor(t, deleter.done))
}

func TestSweeper_DefaultWorkers(t *testing.T) {
	s := NewSweeper(0, newRecordingDeleter(), zerolog.Nop())
	assert.Len(t, s.workers, defaultWorkers)
}

func TestSweeper_ShardIndexIsStable(t *testing.T) {
	s := NewSweeper(8, newRecordingDeleter(), zerolog.Nop())
	first := s.shardIndex("64b7f0c2a1b2c3d4e5f60001")
	for i := 0; i < 10; i++ {
		require.Equal(t, first, s.shardIndex("64b7f0c2a1b2c3d4e5f60001"))
	}
	assert.GreaterOrEqual(t, first, 0)
	assert.Less(t, first, 8)
}

func TestSweeper_EnqueueNeverBlocks(t *testing.T) {
	// Workers are not started, so the buffer fills up.
	s := NewSweeper(1, newRecordingDeleter(), zerolog.Nop())

	done := make(chan struct{})
	go func() {
		for i := 0; i < channelBuffer+10; i++ {
			s.Enqueue("owner-1")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Enqueue blocked on a full queue")
	}
	assert.Len(t, s.workers[0], channelBuffer)
}
