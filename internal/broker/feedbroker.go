package broker

type feedSubscription[TPayload any] struct {
	channel chan TPayload
	added   chan struct{}
}

// FeedBroker fans every published payload out to all current subscribers.
// Subscribers receive on a buffered channel; a subscriber that falls behind
// its buffer misses the payload instead of blocking the publisher. Clients
// are expected to reconcile against persisted data after a gap.
//
// This kind of broker is useful for pushing change notifications through SSE.
// The producers are the HTTP handlers that mutate records, the subscribers
// are the handlers holding an open event stream.
type FeedBroker[TPayload any] struct {
	stopChannel        chan struct{}
	publishChannel     chan TPayload
	subscribeChannel   chan feedSubscription[TPayload]
	unsubscribeChannel chan chan TPayload
}

const subscriberBufferSize = 16

// NewFeedBroker creates a new FeedBroker. Call Start in a goroutine and
// Stop() to stop it.
func NewFeedBroker[TPayload any]() *FeedBroker[TPayload] {
	return &FeedBroker[TPayload]{
		stopChannel:        make(chan struct{}),
		publishChannel:     make(chan TPayload),
		subscribeChannel:   make(chan feedSubscription[TPayload]),
		unsubscribeChannel: make(chan chan TPayload),
	}
}

// Start listening for publish, subscribe, and unsubscribe events. This
// function blocks until Stop() is called, so it should be called in a
// goroutine. It does not handle panics, so it should be wrapped in a recover.
func (b *FeedBroker[TPayload]) Start() {
	subscribers := map[chan TPayload]struct{}{}
	for {
		select {
		case <-b.stopChannel:
			for channel := range subscribers {
				close(channel)
			}
			return

		case subscription := <-b.subscribeChannel:
			subscribers[subscription.channel] = struct{}{}
			close(subscription.added)

		case channel := <-b.unsubscribeChannel:
			if _, ok := subscribers[channel]; ok {
				delete(subscribers, channel)
				close(channel)
			}

		case payload := <-b.publishChannel:
			for channel := range subscribers {
				select {
				case channel <- payload:
				default:
					// Subscriber buffer full, it has to catch up from storage.
				}
			}
		}
	}
}

// Stop the goroutine that handles the broker and close all subscriber channels.
func (b *FeedBroker[TPayload]) Stop() {
	close(b.stopChannel)
}

// Subscribe registers a new subscriber. The returned channel is closed on
// Unsubscribe or Stop.
func (b *FeedBroker[TPayload]) Subscribe() chan TPayload {
	subscription := feedSubscription[TPayload]{
		channel: make(chan TPayload, subscriberBufferSize),
		added:   make(chan struct{}),
	}
	select {
	case b.subscribeChannel <- subscription:
		<-subscription.added
	case <-b.stopChannel:
		close(subscription.channel)
	}
	return subscription.channel
}

// Unsubscribe removes the subscriber and closes its channel.
func (b *FeedBroker[TPayload]) Unsubscribe(channel chan TPayload) {
	select {
	case b.unsubscribeChannel <- channel:
	case <-b.stopChannel:
	}
}

// Publish fans the payload out to every subscriber without blocking on any
// of them.
func (b *FeedBroker[TPayload]) Publish(payload TPayload) {
	select {
	case b.publishChannel <- payload:
	case <-b.stopChannel:
	}
}
