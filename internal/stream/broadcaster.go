// Package stream fans out newly created disasters to whatever
// transport subscribes to the orchestrator — a plain in-process
// channel broadcast today, generalized from the teacher's gRPC
// streaming broadcaster to carry domain structs instead of protobuf
// messages.
package stream

import (
	"sync"

	"github.com/reliefgrid/triage-platform/internal/models"
)

const subscriberBuffer = 16

// Broadcaster fans a single published disaster out to every
// subscriber's channel. A slow or absent subscriber never blocks a
// publish: channels are buffered and a full channel just drops the
// update for that subscriber.
type Broadcaster struct {
	mu          sync.Mutex
	subscribers map[int]chan *models.Disaster
	nextID      int
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{subscribers: make(map[int]chan *models.Disaster)}
}

// Subscribe registers a new listener and returns its channel plus an
// unsubscribe function the caller must invoke when done.
func (b *Broadcaster) Subscribe() (<-chan *models.Disaster, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan *models.Disaster, subscriberBuffer)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

// Broadcast delivers d to every current subscriber, dropping it for
// any subscriber whose channel is full rather than blocking.
func (b *Broadcaster) Broadcast(d *models.Disaster) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subscribers {
		select {
		case ch <- d:
		default:
		}
	}
}

// SubscriberCount reports how many listeners are currently attached.
func (b *Broadcaster) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subscribers)
}
