// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package types provides shared type definitions used across DreamTrip
// components. This file defines the trip plan, its sub-results, and the
// plan lifecycle states.
package types

import "time"

// Status represents the lifecycle state of a trip plan
type Status string

const (
	// StatusPending means the plan row is persisted but no capability calls
	// have been issued yet
	StatusPending Status = "pending"
	// StatusProcessing means the four capability calls are in flight
	StatusProcessing Status = "processing"
	// StatusCompleted means all four capability calls succeeded (terminal)
	StatusCompleted Status = "completed"
	// StatusDegraded means at least one capability call succeeded and at
	// least one failed (terminal)
	StatusDegraded Status = "degraded"
	// StatusFailed means all four capability calls failed (terminal)
	StatusFailed Status = "failed"
)

// String returns the string representation of the Status
func (s Status) String() string {
	return string(s)
}

// IsValid returns true if the Status is a known lifecycle state
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusDegraded, StatusFailed:
		return true
	default:
		return false
	}
}

// IsTerminal returns true for states the plan can never leave
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusDegraded, StatusFailed:
		return true
	default:
		return false
	}
}

// rank orders lifecycle states for the monotonicity check
func (s Status) rank() int {
	switch s {
	case StatusPending:
		return 0
	case StatusProcessing:
		return 1
	case StatusCompleted, StatusDegraded, StatusFailed:
		return 2
	default:
		return -1
	}
}

// CanTransitionTo reports whether moving from s to next preserves the
// monotonic lifecycle. Transitions between distinct terminal states are
// forbidden; a same-state transition is a no-op and allowed.
func (s Status) CanTransitionTo(next Status) bool {
	if s == next {
		return true
	}
	if s.IsTerminal() {
		return false
	}
	return next.rank() > s.rank()
}

// TripRequest is an inbound trip plan request
type TripRequest struct {
	UserID      int64    `json:"user_id,omitempty"`
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Preferences []string `json:"preferences"`
	Duration    int      `json:"duration"`
}

// TripPlan is the persisted plan record
type TripPlan struct {
	ID          int64     `json:"trip_id"`
	UserID      int64     `json:"user_id"`
	Origin      string    `json:"origin"`
	Destination string    `json:"destination"`
	Preferences []string  `json:"preferences"`
	Duration    int       `json:"duration"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Route is the route sub-result (1:1 with a plan)
type Route struct {
	Origin      string   `json:"origin"`
	Destination string   `json:"destination"`
	Distance    string   `json:"distance"`
	Duration    string   `json:"duration"`
	Steps       []string `json:"steps"`
}

// WeatherForecast is one daily forecast; a plan holds an ordered sequence
type WeatherForecast struct {
	Date           string  `json:"date"`
	TemperatureMin float64 `json:"temp_min"`
	TemperatureMax float64 `json:"temp_max"`
	Condition      string  `json:"condition"`
	Humidity       int     `json:"humidity"`
	WindSpeed      float64 `json:"wind_speed"`
}

// POI is one point-of-interest recommendation
type POI struct {
	Name        string  `json:"name"`
	Category    string  `json:"category"`
	Rating      float64 `json:"rating"`
	Address     string  `json:"address"`
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Description string  `json:"description"`
	PriceLevel  int     `json:"price_level,omitempty"`
}

// AISummary is the summarization sub-result (1:1 with a plan)
type AISummary struct {
	Summary         string `json:"summary"`
	Recommendations string `json:"recommendations"`
	Tips            string `json:"tips"`
}

// TripAggregate is the combined view of a plan and its sub-results returned
// to readers. Sub-result pointers are nil until the corresponding capability
// call has succeeded.
type TripAggregate struct {
	TripID      int64             `json:"trip_id"`
	UserID      int64             `json:"user_id"`
	Origin      string            `json:"origin"`
	Destination string            `json:"destination"`
	Preferences []string          `json:"preferences"`
	Duration    int               `json:"duration"`
	Status      Status            `json:"status"`
	CreatedAt   time.Time         `json:"created_at"`
	Route       *Route            `json:"route,omitempty"`
	Weather     []WeatherForecast `json:"weather,omitempty"`
	POIs        []POI             `json:"pois,omitempty"`
	AISummary   *AISummary        `json:"ai_summary,omitempty"`
}
