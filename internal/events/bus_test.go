package events

import (
	"testing"
	"time"
)

func TestSubscribePublish(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventRiskAlert, 1)
	defer unsub()

	bus.Publish(EventRiskAlert, AlertEvent{Symbol: "BTC/USDT:USDT", Kind: "hard_stop"})
	select {
	case v := <-ch:
		if v.(AlertEvent).Kind != "hard_stop" {
			t.Fatalf("unexpected payload %+v", v)
		}
	case <-time.After(time.Second):
		t.Fatal("no event received")
	}
}

func TestPublishDropsForSlowSubscriber(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.Subscribe(EventSignal, 1)
	defer unsub()

	bus.Publish(EventSignal, 1)
	bus.Publish(EventSignal, 2) // dropped, buffer full
	if got := <-ch; got != 1 {
		t.Fatalf("got %v", got)
	}
	select {
	case v := <-ch:
		t.Fatalf("expected drop, got %v", v)
	default:
	}
}

func TestSubscribeManyTagsTopic(t *testing.T) {
	bus := NewBus()
	ch, unsub := bus.SubscribeMany([]Event{EventOrderSubmitted, EventPositionClosed}, 4)

	bus.Publish(EventOrderSubmitted, OrderEvent{Symbol: "a"})
	bus.Publish(EventTickFailed, TickErrorEvent{Symbol: "ignored"})
	bus.Publish(EventPositionClosed, ExitEvent{Symbol: "b"})

	first, second := <-ch, <-ch
	if first.Event != EventOrderSubmitted || second.Event != EventPositionClosed {
		t.Fatalf("unexpected order: %v %v", first.Event, second.Event)
	}

	unsub()
	unsub()
	if _, ok := <-ch; ok {
		t.Fatal("channel should be closed after unsubscribe")
	}
	bus.Publish(EventOrderSubmitted, OrderEvent{}) // must not panic on closed channel
}

func TestNilBusPublish(t *testing.T) {
	var bus *Bus
	bus.Publish(EventRiskAlert, nil)
}
