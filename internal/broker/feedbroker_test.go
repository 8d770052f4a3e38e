package broker_test

import (
	"testing"
	"time"

	"github.com/kishanss4/corrupt-watch/internal/broker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receiveWithTimeout(t *testing.T, channel chan int) int {
	t.Helper()
	select {
	case payload, ok := <-channel:
		require.True(t, ok, "channel closed unexpectedly")
		return payload
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for payload")
		return 0
	}
}

func TestFeedBroker_FanOut(t *testing.T) {
	t.Parallel()
	b := broker.NewFeedBroker[int]()
	go b.Start()
	defer b.Stop()

	first := b.Subscribe()
	second := b.Subscribe()

	b.Publish(42)

	assert.Equal(t, 42, receiveWithTimeout(t, first))
	assert.Equal(t, 42, receiveWithTimeout(t, second))
}

func TestFeedBroker_UnsubscribeClosesChannel(t *testing.T) {
	t.Parallel()
	b := broker.NewFeedBroker[int]()
	go b.Start()
	defer b.Stop()

	channel := b.Subscribe()
	b.Unsubscribe(channel)

	select {
	case _, ok := <-channel:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}

func TestFeedBroker_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	t.Parallel()
	b := broker.NewFeedBroker[int]()
	go b.Start()
	defer b.Stop()

	channel := b.Subscribe()

	// Overfill the subscriber buffer. Publish must never block even though
	// nobody is receiving.
	done := make(chan struct{})
	go func() {
		for i := range 100 {
			b.Publish(i)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The earliest payloads are still there in order.
	assert.Equal(t, 0, receiveWithTimeout(t, channel))
	assert.Equal(t, 1, receiveWithTimeout(t, channel))
}

func TestFeedBroker_StopClosesSubscribers(t *testing.T) {
	t.Parallel()
	b := broker.NewFeedBroker[int]()
	go b.Start()

	channel := b.Subscribe()
	b.Stop()

	select {
	case _, ok := <-channel:
		assert.False(t, ok, "expected closed channel")
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for channel close")
	}
}
