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

// Package events publishes plan lifecycle events to a Redis stream.
//
// Publishing is fire-and-forget: events are queued onto a bounded channel
// and written by background workers. A full queue or a failed write is
// logged and dropped; it never blocks or fails the caller's critical path.
package events

import (
	"context"
	"time"

	"dreamtrip/platform/shared/types"
)

// Event kinds emitted over the plan lifecycle
const (
	KindPlanCreated      = "plan.created"
	KindRouteProcessed   = "plan.route.processed"
	KindWeatherProcessed = "plan.weather.processed"
	KindPOIProcessed     = "plan.poi.processed"
	KindAIProcessed      = "plan.ai.processed"
	KindPlanCompleted    = "plan.completed"
	KindPlanFailed       = "plan.failed"
)

// Event is one lifecycle event
type Event struct {
	Kind      string                 `json:"kind"`
	PlanID    int64                  `json:"plan_id"`
	Timestamp time.Time              `json:"timestamp"`
	// Success is set on *.processed events only
	Success *bool                  `json:"success,omitempty"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// Publisher emits lifecycle events best-effort
type Publisher interface {
	// Publish queues the event for delivery. It never blocks and never
	// surfaces an error; delivery failures are observability losses, not
	// correctness failures.
	Publish(event Event)

	// Shutdown drains queued events, bounded by ctx
	Shutdown(ctx context.Context) error
}

// PlanCreated builds the creation event carrying the request context
func PlanCreated(planID int64, req types.TripRequest) Event {
	return Event{
		Kind:      KindPlanCreated,
		PlanID:    planID,
		Timestamp: time.Now().UTC(),
		Data: map[string]interface{}{
			"origin":      req.Origin,
			"destination": req.Destination,
			"duration":    req.Duration,
			"preferences": req.Preferences,
		},
	}
}

// SubResultProcessed builds a *.processed event with the settle outcome
func SubResultProcessed(kind string, planID int64, success bool) Event {
	return Event{
		Kind:      kind,
		PlanID:    planID,
		Timestamp: time.Now().UTC(),
		Success:   &success,
	}
}

// PlanCompleted builds the terminal success event
func PlanCompleted(planID int64, status types.Status) Event {
	return Event{
		Kind:      KindPlanCompleted,
		PlanID:    planID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"status": status.String()},
	}
}

// PlanFailed builds the terminal failure event
func PlanFailed(planID int64, reason string) Event {
	return Event{
		Kind:      KindPlanFailed,
		PlanID:    planID,
		Timestamp: time.Now().UTC(),
		Data:      map[string]interface{}{"error": reason},
	}
}
