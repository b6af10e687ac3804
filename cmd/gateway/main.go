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

// Package main is the entry point for the DreamTrip trip gateway service.
//
// The gateway is the orchestration front door for travel planning:
// - Accepts trip plan requests and answers immediately with a plan id
// - Fans out concurrently to the route, weather, POI and AI providers
// - Persists sub-results as they settle and finalizes the plan
// - Caches finished aggregates and publishes lifecycle events
// - Serves plan reads, cache first with store fallback
//
// Usage:
//
//	./gateway
//
// Environment Variables:
//
//	PORT - HTTP server port (default: 8080)
//	DATABASE_URL - PostgreSQL connection string
//	REDIS_URL - Redis connection string (cache and event stream)
//	ROUTE_SERVICE_URL - route provider endpoint
//	WEATHER_SERVICE_URL - weather provider endpoint
//	POI_SERVICE_URL - POI provider endpoint
//	AI_SERVICE_URL - AI summary provider endpoint
//	GATEWAY_CONFIG - optional YAML config file path
package main

import (
	"dreamtrip/platform/gateway"
)

func main() {
	gateway.Run()
}
