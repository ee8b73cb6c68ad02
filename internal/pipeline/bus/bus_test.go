package bus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"server/internal/domain"
)

func view(id string, status domain.PipelineStatus) domain.PipelineView {
	return domain.PipelineView{PipelineID: id, Status: status}
}

func TestPublishReachesSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe("p-1")
	defer sub.Close()

	err := b.Publish(context.Background(), "p-1", view("p-1", domain.PipelineStatusProcessing))
	require.NoError(t, err)

	select {
	case got := <-sub.C():
		assert.Equal(t, "p-1", got.PipelineID)
		assert.Equal(t, domain.PipelineStatusProcessing, got.Status)
	case <-time.After(time.Second):
		t.Fatal("no delivery")
	}
}

func TestPublishIsScopedByPipelineID(t *testing.T) {
	b := New()
	sub := b.Subscribe("p-1")
	defer sub.Close()

	require.NoError(t, b.Publish(context.Background(), "p-2", view("p-2", domain.PipelineStatusCompleted)))

	select {
	case got := <-sub.C():
		t.Fatalf("unexpected delivery: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishFanOut(t *testing.T) {
	b := New()
	a := b.Subscribe("p-1")
	defer a.Close()
	c := b.Subscribe("p-1")
	defer c.Close()

	require.NoError(t, b.Publish(context.Background(), "p-1", view("p-1", domain.PipelineStatusFailed)))

	for _, sub := range []*Subscription{a, c} {
		select {
		case got := <-sub.C():
			assert.Equal(t, domain.PipelineStatusFailed, got.Status)
		case <-time.After(time.Second):
			t.Fatal("subscriber missed the snapshot")
		}
	}
}

func TestPublishHonorsContextWhenSubscriberStalls(t *testing.T) {
	b := New()
	sub := b.Subscribe("p-1")
	defer sub.Close()

	// Fill the buffered channel without draining it.
	for i := 0; i < 16; i++ {
		require.NoError(t, b.Publish(context.Background(), "p-1", view("p-1", domain.PipelineStatusProcessing)))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := b.Publish(ctx, "p-1", view("p-1", domain.PipelineStatusProcessing))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCloseUnregistersAndClosesChannel(t *testing.T) {
	b := New()
	sub := b.Subscribe("p-1")
	sub.Close()
	sub.Close() // idempotent

	_, open := <-sub.C()
	assert.False(t, open)

	// Publishing after close must not block or panic.
	require.NoError(t, b.Publish(context.Background(), "p-1", view("p-1", domain.PipelineStatusCompleted)))
}
