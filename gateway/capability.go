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

package gateway

import (
	"context"
	"encoding/json"
	"fmt"

	"dreamtrip/platform/events"
	"dreamtrip/platform/shared/types"
	"dreamtrip/platform/store"
)

// Capability is one downstream provider category. The orchestrator
// iterates the four capabilities generically; each one knows how to
// build its request body and how to validate and persist its response.
type Capability interface {
	// Name is the provider key in the configuration ("route",
	// "weather", "poi", "ai").
	Name() string
	// Path is the POST path on the provider.
	Path() string
	// EventKind is the lifecycle event emitted when this capability
	// settles.
	EventKind() string
	// BuildRequest produces the provider-specific request body.
	BuildRequest(req types.TripRequest, snapshot *types.TripAggregate) interface{}
	// Persist validates the raw response body and writes the
	// sub-result. A malformed body is an error, never a panic.
	Persist(ctx context.Context, st store.PlanStore, planID int64, req types.TripRequest, body []byte) error
}

// Capabilities returns the fan-out set in a fixed order. Order only
// matters for readability of logs; the calls run concurrently.
func Capabilities() []Capability {
	return []Capability{
		&routeCapability{},
		&weatherCapability{},
		&poiCapability{},
		&aiCapability{},
	}
}

// routeCapability

type routeCapability struct{}

func (c *routeCapability) Name() string      { return "route" }
func (c *routeCapability) Path() string      { return "/route" }
func (c *routeCapability) EventKind() string { return events.KindRouteProcessed }

func (c *routeCapability) BuildRequest(req types.TripRequest, _ *types.TripAggregate) interface{} {
	return map[string]interface{}{
		"origin":      req.Origin,
		"destination": req.Destination,
	}
}

func (c *routeCapability) Persist(ctx context.Context, st store.PlanStore, planID int64, req types.TripRequest, body []byte) error {
	var resp struct {
		Origin      string   `json:"origin"`
		Destination string   `json:"destination"`
		Distance    string   `json:"distance"`
		Duration    string   `json:"duration"`
		Steps       []string `json:"steps"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("route response malformed: %w", err)
	}
	if resp.Distance == "" && len(resp.Steps) == 0 {
		return fmt.Errorf("route response missing distance and steps")
	}
	route := types.Route{
		Origin:      resp.Origin,
		Destination: resp.Destination,
		Distance:    resp.Distance,
		Duration:    resp.Duration,
		Steps:       resp.Steps,
	}
	if route.Origin == "" {
		route.Origin = req.Origin
	}
	if route.Destination == "" {
		route.Destination = req.Destination
	}
	return st.SaveRoute(ctx, planID, route)
}

// weatherCapability

type weatherCapability struct{}

func (c *weatherCapability) Name() string      { return "weather" }
func (c *weatherCapability) Path() string      { return "/weather/forecast" }
func (c *weatherCapability) EventKind() string { return events.KindWeatherProcessed }

func (c *weatherCapability) BuildRequest(req types.TripRequest, _ *types.TripAggregate) interface{} {
	return map[string]interface{}{
		"location": req.Destination,
		"duration": req.Duration,
	}
}

// wireForecast tolerates both field spellings seen in the wild
// (temp_min vs temperature_min).
type wireForecast struct {
	Date           string   `json:"date"`
	TempMin        *float64 `json:"temp_min"`
	TempMax        *float64 `json:"temp_max"`
	TemperatureMin *float64 `json:"temperature_min"`
	TemperatureMax *float64 `json:"temperature_max"`
	Condition      string   `json:"condition"`
	Humidity       int      `json:"humidity"`
	WindSpeed      float64  `json:"wind_speed"`
}

func (c *weatherCapability) Persist(ctx context.Context, st store.PlanStore, planID int64, req types.TripRequest, body []byte) error {
	var resp struct {
		Location string         `json:"location"`
		Forecast []wireForecast `json:"forecast"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("weather response malformed: %w", err)
	}
	if len(resp.Forecast) == 0 {
		return fmt.Errorf("weather response has no forecast entries")
	}

	forecasts := make([]types.WeatherForecast, 0, len(resp.Forecast))
	for _, day := range resp.Forecast {
		if day.Date == "" {
			return fmt.Errorf("weather forecast entry missing date")
		}
		f := types.WeatherForecast{
			Date:      day.Date,
			Condition: day.Condition,
			Humidity:  day.Humidity,
			WindSpeed: day.WindSpeed,
		}
		switch {
		case day.TempMin != nil:
			f.TemperatureMin = *day.TempMin
		case day.TemperatureMin != nil:
			f.TemperatureMin = *day.TemperatureMin
		}
		switch {
		case day.TempMax != nil:
			f.TemperatureMax = *day.TempMax
		case day.TemperatureMax != nil:
			f.TemperatureMax = *day.TemperatureMax
		}
		forecasts = append(forecasts, f)
	}

	location := resp.Location
	if location == "" {
		location = req.Destination
	}
	return st.SaveWeather(ctx, planID, location, forecasts)
}

// poiCapability

type poiCapability struct{}

func (c *poiCapability) Name() string      { return "poi" }
func (c *poiCapability) Path() string      { return "/poi/recommendations" }
func (c *poiCapability) EventKind() string { return events.KindPOIProcessed }

func (c *poiCapability) BuildRequest(req types.TripRequest, _ *types.TripAggregate) interface{} {
	return map[string]interface{}{
		"location":    req.Destination,
		"preferences": req.Preferences,
		"duration":    req.Duration,
	}
}

func (c *poiCapability) Persist(ctx context.Context, st store.PlanStore, planID int64, req types.TripRequest, body []byte) error {
	var resp struct {
		Location string `json:"location"`
		POIs     []struct {
			Name        string  `json:"name"`
			Category    string  `json:"category"`
			Rating      float64 `json:"rating"`
			Address     string  `json:"address"`
			Description string  `json:"description"`
			Latitude    float64 `json:"latitude"`
			Longitude   float64 `json:"longitude"`
		} `json:"pois"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("poi response malformed: %w", err)
	}
	if len(resp.POIs) == 0 {
		return fmt.Errorf("poi response has no recommendations")
	}

	pois := make([]types.POI, 0, len(resp.POIs))
	for _, p := range resp.POIs {
		if p.Name == "" {
			return fmt.Errorf("poi entry missing name")
		}
		pois = append(pois, types.POI{
			Name:        p.Name,
			Category:    p.Category,
			Rating:      p.Rating,
			Address:     p.Address,
			Description: p.Description,
			Latitude:    p.Latitude,
			Longitude:   p.Longitude,
		})
	}
	return st.SavePOIs(ctx, planID, pois)
}

// aiCapability

type aiCapability struct{}

func (c *aiCapability) Name() string      { return "ai" }
func (c *aiCapability) Path() string      { return "/ai/summarize" }
func (c *aiCapability) EventKind() string { return events.KindAIProcessed }

func (c *aiCapability) BuildRequest(req types.TripRequest, snapshot *types.TripAggregate) interface{} {
	payload := map[string]interface{}{
		"origin":      req.Origin,
		"destination": req.Destination,
		"preferences": req.Preferences,
		"duration":    req.Duration,
		"route":       map[string]interface{}{},
		"weather":     []interface{}{},
		"pois":        []interface{}{},
	}
	// The summarizer runs concurrently with the other capabilities,
	// so sub-results are usually not available yet. Whatever the
	// snapshot already holds is forwarded as a hint.
	if snapshot != nil {
		if snapshot.Route != nil {
			payload["route"] = snapshot.Route
		}
		if len(snapshot.Weather) > 0 {
			payload["weather"] = snapshot.Weather
		}
		if len(snapshot.POIs) > 0 {
			payload["pois"] = snapshot.POIs
		}
	}
	return payload
}

func (c *aiCapability) Persist(ctx context.Context, st store.PlanStore, planID int64, _ types.TripRequest, body []byte) error {
	var resp struct {
		Summary         string `json:"summary"`
		Recommendations string `json:"recommendations"`
		Tips            string `json:"tips"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("ai response malformed: %w", err)
	}
	if resp.Summary == "" {
		return fmt.Errorf("ai response missing summary")
	}
	return st.SaveSummary(ctx, planID, types.AISummary{
		Summary:         resp.Summary,
		Recommendations: resp.Recommendations,
		Tips:            resp.Tips,
	})
}
