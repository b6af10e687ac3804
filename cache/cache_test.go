// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0

package cache

import (
	"context"
	"encoding/json"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"

	"dreamtrip/platform/shared/types"
)

func newTestCache(t *testing.T) (*RedisCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisCacheFromClient(client), mr
}

func sampleAggregate() *types.TripAggregate {
	return &types.TripAggregate{
		TripID:      42,
		UserID:      1,
		Origin:      "Berlin",
		Destination: "Lisbon",
		Preferences: []string{"museum", "food"},
		Duration:    5,
		Status:      types.StatusCompleted,
		CreatedAt:   time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		Route: &types.Route{
			Origin:      "Berlin",
			Destination: "Lisbon",
			Distance:    "2300 km",
			Duration:    "23 hours",
			Steps:       []string{"A9 south", "A2 west"},
		},
		Weather: []types.WeatherForecast{
			{Date: "2026-09-01", TemperatureMin: 18.5, TemperatureMax: 27.0, Condition: "sunny", Humidity: 40, WindSpeed: 12.0},
		},
		POIs: []types.POI{
			{Name: "Belem Tower", Category: "landmark", Rating: 4.7, Address: "Av. Brasilia"},
		},
		AISummary: &types.AISummary{
			Summary:         "A week by the Tagus",
			Recommendations: "Go in September",
			Tips:            "Book trams early",
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()
	want := sampleAggregate()

	if err := c.Put(ctx, want.TripID, want, time.Hour); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := c.Get(ctx, want.TripID)
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("cached aggregate differs from original:\ngot  %+v\nwant %+v", got, want)
	}
}

func TestCacheKeyShape(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, 42, sampleAggregate(), time.Hour); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if !mr.Exists("trip_detail:42") {
		t.Errorf("expected key trip_detail:42, have %v", mr.Keys())
	}
}

func TestGetMiss(t *testing.T) {
	c, _ := newTestCache(t)

	_, err := c.Get(context.Background(), 999)
	if !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss, got %v", err)
	}
}

func TestEntryExpiresAfterTTL(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	if err := c.Put(ctx, 42, sampleAggregate(), time.Minute); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	mr.FastForward(2 * time.Minute)

	_, err := c.Get(ctx, 42)
	if !errors.Is(err, ErrMiss) {
		t.Errorf("expected ErrMiss after TTL, got %v", err)
	}
}

func TestCorruptEntryIsAMiss(t *testing.T) {
	c, mr := newTestCache(t)

	if err := mr.Set("trip_detail:42", "{not json"); err != nil {
		t.Fatalf("failed to seed corrupt entry: %v", err)
	}

	_, err := c.Get(context.Background(), 42)
	if !errors.Is(err, ErrMiss) {
		t.Errorf("corrupt entry should read as miss, got %v", err)
	}
}

func TestStoredPayloadIsCanonicalJSON(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	agg := sampleAggregate()

	if err := c.Put(ctx, 42, agg, time.Hour); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	raw, err := mr.Get("trip_detail:42")
	if err != nil {
		t.Fatalf("failed to read raw entry: %v", err)
	}
	want, _ := json.Marshal(agg)
	if raw != string(want) {
		t.Errorf("stored payload is not the canonical JSON encoding:\ngot  %s\nwant %s", raw, want)
	}
}
