// Copyright 2025 DreamTrip
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package store provides the durable record of trip plans and their
// sub-results. Plans are keyed by a 63-bit sortable id assigned at creation;
// each sub-result lives in a child table foreign-keyed to the plan.
package store

import (
	"context"
	"errors"
	"fmt"
	mathRand "math/rand"
	"time"

	"dreamtrip/platform/shared/types"
)

// ErrNotFound is returned when a plan id has no row in the store
var ErrNotFound = errors.New("trip plan not found")

// StoreError wraps a persistence failure with the operation that produced it
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// PlanStore is the durable plan record.
//
// Every operation is atomic with respect to a single plan id. Rows are only
// ever mutated by the single processor task that owns the plan, so the store
// provides no per-row locking beyond single-statement atomicity.
type PlanStore interface {
	// Create inserts a new plan with status pending and returns its id
	Create(ctx context.Context, req types.TripRequest) (int64, error)

	// UpdateStatus sets the plan status. Setting the current status again is
	// a no-op. Monotonicity is the caller's responsibility.
	UpdateStatus(ctx context.Context, planID int64, status types.Status) error

	// SaveRoute upserts the route sub-result. A second save for the same
	// plan overwrites, which does not happen in the normal flow.
	SaveRoute(ctx context.Context, planID int64, route types.Route) error

	// SaveWeather replaces the plan's ordered forecast set
	SaveWeather(ctx context.Context, planID int64, location string, forecasts []types.WeatherForecast) error

	// SavePOIs replaces the plan's POI set
	SavePOIs(ctx context.Context, planID int64, pois []types.POI) error

	// SaveSummary upserts the AI summary sub-result
	SaveSummary(ctx context.Context, planID int64, summary types.AISummary) error

	// Get returns the plan aggregate with whichever sub-results exist,
	// or ErrNotFound
	Get(ctx context.Context, planID int64) (*types.TripAggregate, error)

	// ListByUser returns the user's plans, most recent first, bounded by limit
	ListByUser(ctx context.Context, userID int64, limit int) ([]types.TripPlan, error)

	// Ping reports whether the backing store is reachable
	Ping(ctx context.Context) error

	// Close releases the store's connections
	Close() error
}

// NewPlanID generates a 63-bit, time-sortable plan id without a central
// sequencer: unix milliseconds in the high bits, 22 random bits below.
// Ids created later always sort higher at millisecond granularity.
func NewPlanID() int64 {
	ms := time.Now().UnixMilli()
	return ms<<22 | mathRand.Int63n(1<<22)
}
