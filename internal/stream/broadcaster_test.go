package stream

import (
	"testing"

	"github.com/reliefgrid/triage-platform/internal/models"
)

func TestBroadcaster_DeliversToSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	d := &models.Disaster{ID: "d1"}
	b.Broadcast(d)

	select {
	case got := <-ch:
		if got.ID != "d1" {
			t.Errorf("expected d1, got %s", got.ID)
		}
	default:
		t.Fatal("expected a broadcast to be delivered")
	}
}

func TestBroadcaster_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBroadcaster()
	_, unsubscribe := b.Subscribe()
	unsubscribe()

	if b.SubscriberCount() != 0 {
		t.Errorf("expected 0 subscribers after unsubscribe, got %d", b.SubscriberCount())
	}
	// Broadcasting with no subscribers must not panic.
	b.Broadcast(&models.Disaster{ID: "d2"})
}

func TestBroadcaster_FullChannelDropsWithoutBlocking(t *testing.T) {
	b := NewBroadcaster()
	ch, unsubscribe := b.Subscribe()
	defer unsubscribe()

	for i := 0; i < subscriberBuffer+5; i++ {
		b.Broadcast(&models.Disaster{ID: "d"})
	}

	count := 0
	for {
		select {
		case <-ch:
			count++
			continue
		default:
		}
		break
	}
	if count != subscriberBuffer {
		t.Errorf("expected exactly %d buffered messages, got %d", subscriberBuffer, count)
	}
}

func TestBroadcaster_MultipleSubscribers(t *testing.T) {
	b := NewBroadcaster()
	ch1, unsub1 := b.Subscribe()
	ch2, unsub2 := b.Subscribe()
	defer unsub1()
	defer unsub2()

	b.Broadcast(&models.Disaster{ID: "d3"})

	for _, ch := range []<-chan *models.Disaster{ch1, ch2} {
		select {
		case got := <-ch:
			if got.ID != "d3" {
				t.Errorf("expected d3, got %s", got.ID)
			}
		default:
			t.Fatal("expected both subscribers to receive the broadcast")
		}
	}
}
