package events_test

import (
	"sync"
	"testing"

	"github.com/Lighty-Launcher/LightyUpdater/events"
)

func TestPublishFansOutToAllSubscribers(t *testing.T) {
	bus := events.New()

	var mu sync.Mutex
	var gotA, gotB []events.Event

	bus.Subscribe(func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		gotA = append(gotA, ev)
	})
	bus.Subscribe(func(ev events.Event) {
		mu.Lock()
		defer mu.Unlock()
		gotB = append(gotB, ev)
	})

	bus.Publish(events.Event{Kind: events.KindCacheUpdated, Namespace: "vanilla"})

	mu.Lock()
	defer mu.Unlock()
	if len(gotA) != 1 || len(gotB) != 1 {
		t.Fatalf("got gotA=%d gotB=%d events, want 1 each", len(gotA), len(gotB))
	}
	if gotA[0].Kind != events.KindCacheUpdated || gotA[0].Namespace != "vanilla" {
		t.Fatalf("got event %+v, want kind=%q namespace=vanilla", gotA[0], events.KindCacheUpdated)
	}
}

func TestPublishWithNoSubscribersDoesNotPanic(t *testing.T) {
	bus := events.New()
	bus.Publish(events.Event{Kind: events.KindScanStarted})
}

func TestSubscribeAfterPublishOnlySeesFutureEvents(t *testing.T) {
	bus := events.New()
	bus.Publish(events.Event{Kind: events.KindScanStarted})

	var got []events.Event
	bus.Subscribe(func(ev events.Event) { got = append(got, ev) })
	bus.Publish(events.Event{Kind: events.KindCacheNew})

	if len(got) != 1 || got[0].Kind != events.KindCacheNew {
		t.Fatalf("got %+v, want exactly the post-subscribe event", got)
	}
}
