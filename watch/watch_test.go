package watch

import (
	"context"
	"testing"
	"time"
)

func TestPublishFailsWithoutReceivers(t *testing.T) {
	ch := New("test", 0)

	if ch.Publish(1) {
		t.Fatal("publish succeeded with no receivers")
	}

	stats := ch.Stats()
	if stats.Failed != 1 || stats.Published != 0 {
		t.Errorf("stats = %+v, want 1 failed, 0 published", stats)
	}
}

func TestReceiverObservesLatestValue(t *testing.T) {
	ch := New("test", 0)
	rx := ch.Subscribe()
	defer rx.Close()

	if v, seq := rx.Latest(); v != 0 || seq != 0 {
		t.Fatalf("initial state = %d seq %d, want 0 seq 0", v, seq)
	}

	for i := 1; i <= 3; i++ {
		if !ch.Publish(i) {
			t.Fatalf("publish %d failed with a live receiver", i)
		}
	}

	v, seq := rx.Latest()
	if v != 3 || seq != 3 {
		t.Errorf("latest = %d seq %d, want 3 seq 3", v, seq)
	}
}

func TestChangedWakesOnPublish(t *testing.T) {
	ch := New("test", "")
	rx := ch.Subscribe()
	defer rx.Close()

	go ch.Publish("hello")

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rx.Changed(ctx); err != nil {
		t.Fatalf("Changed failed: %v", err)
	}

	if v, _ := rx.Latest(); v != "hello" {
		t.Errorf("latest = %q, want hello", v)
	}
}

func TestChangedHonorsContext(t *testing.T) {
	ch := New("test", 0)
	rx := ch.Subscribe()
	defer rx.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := rx.Changed(ctx); err == nil {
		t.Fatal("Changed returned nil on cancelled context")
	}
}

func TestCloseUnregistersReceiver(t *testing.T) {
	ch := New("test", 0)
	rx := ch.Subscribe()

	if !ch.Publish(1) {
		t.Fatal("publish failed with a live receiver")
	}

	rx.Close()
	rx.Close() // idempotent

	if ch.Publish(2) {
		t.Fatal("publish succeeded after last receiver closed")
	}
	if stats := ch.Stats(); stats.Receivers != 0 {
		t.Errorf("receivers = %d, want 0", stats.Receivers)
	}
}

func TestPublishesCoalesce(t *testing.T) {
	ch := New("test", 0)
	rx := ch.Subscribe()
	defer rx.Close()

	ch.Publish(1)
	ch.Publish(2)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := rx.Changed(ctx); err != nil {
		t.Fatalf("Changed failed: %v", err)
	}
	if v, _ := rx.Latest(); v != 2 {
		t.Errorf("latest after coalesced publishes = %d, want 2", v)
	}
}
