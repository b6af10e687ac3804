// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0

package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"dreamtrip/platform/shared/types"
)

func newTestPublisher(t *testing.T, queueSize, workers int) (*RedisPublisher, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisPublisherFromClient(client, "trip_events", queueSize, workers), mr
}

func TestPublishWritesToStream(t *testing.T) {
	p, mr := newTestPublisher(t, 16, 1)

	p.Publish(PlanCreated(42, types.TripRequest{
		Origin:      "Berlin",
		Destination: "Lisbon",
		Preferences: []string{"museum"},
		Duration:    5,
	}))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	entries, err := mr.Stream("trip_events")
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 stream entry, got %d", len(entries))
	}

	fields := map[string]string{}
	for i := 0; i+1 < len(entries[0].Values); i += 2 {
		fields[entries[0].Values[i]] = entries[0].Values[i+1]
	}
	if fields["kind"] != KindPlanCreated {
		t.Errorf("kind = %q, want %q", fields["kind"], KindPlanCreated)
	}
	if fields["plan_id"] != "42" {
		t.Errorf("plan_id = %q, want 42", fields["plan_id"])
	}

	var event Event
	if err := json.Unmarshal([]byte(fields["payload"]), &event); err != nil {
		t.Fatalf("payload is not valid JSON: %v", err)
	}
	if event.PlanID != 42 || event.Kind != KindPlanCreated {
		t.Errorf("decoded event = %+v", event)
	}
	if event.Data["destination"] != "Lisbon" {
		t.Errorf("expected destination in event data, got %v", event.Data)
	}
}

func TestPublishNeverBlocksWhenQueueFull(t *testing.T) {
	p, _ := newTestPublisher(t, 1, 1)

	// Far more events than the queue can hold; the overflow must be
	// dropped, never block the publishing caller.
	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			p.Publish(SubResultProcessed(KindRouteProcessed, int64(i), true))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	published, dropped, _ := p.Stats()
	if published+dropped != 1000 {
		t.Errorf("published=%d dropped=%d, want them to account for all 1000 events", published, dropped)
	}
}

func TestBrokenStreamIsSwallowed(t *testing.T) {
	p, mr := newTestPublisher(t, 16, 1)
	mr.Close()

	// Must not panic or surface an error to the caller.
	p.Publish(PlanFailed(42, "all capability calls failed"))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	published, dropped, _ := p.Stats()
	if published != 0 || dropped != 1 {
		t.Errorf("published=%d dropped=%d, want 0 and 1", published, dropped)
	}
}

func TestShutdownDrainsQueue(t *testing.T) {
	p, mr := newTestPublisher(t, 16, 2)

	for i := int64(1); i <= 5; i++ {
		p.Publish(PlanCompleted(i, types.StatusCompleted))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := p.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown returned error: %v", err)
	}

	entries, err := mr.Stream("trip_events")
	if err != nil {
		t.Fatalf("failed to read stream: %v", err)
	}
	if len(entries) != 5 {
		t.Errorf("expected 5 entries after drain, got %d", len(entries))
	}
}

func TestNopPublisherIsSafe(t *testing.T) {
	p := NewNopPublisher()
	for i := 0; i < 3; i++ {
		p.Publish(PlanCreated(int64(i), types.TripRequest{}))
	}
	if err := p.Shutdown(context.Background()); err != nil {
		t.Errorf("NopPublisher Shutdown returned error: %v", err)
	}
}
