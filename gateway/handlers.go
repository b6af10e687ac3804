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
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"dreamtrip/platform/cache"
	"dreamtrip/platform/events"
	"dreamtrip/platform/shared/logger"
	"dreamtrip/platform/shared/types"
	"dreamtrip/platform/store"
)

// Gateway holds the gateway's injected dependencies and serves the
// public HTTP API.
type Gateway struct {
	store     store.PlanStore
	cache     cache.ResultCache
	publisher events.Publisher
	client    *ServiceClient
	processor *TripProcessor
	log       *logger.Logger
}

// NewGateway wires the handlers to their dependencies.
func NewGateway(st store.PlanStore, rc cache.ResultCache, pub events.Publisher, client *ServiceClient, processor *TripProcessor) *Gateway {
	return &Gateway{
		store:     st,
		cache:     rc,
		publisher: pub,
		client:    client,
		processor: processor,
		log:       logger.New("api-gateway"),
	}
}

// Router builds the gorilla/mux router for the gateway API.
func (g *Gateway) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(g.requestIDMiddleware)

	// Health and metrics
	r.HandleFunc("/health", g.handleHealth).Methods("GET")
	r.Handle("/prometheus", promhttp.Handler()).Methods("GET")

	// Trip planning API
	r.HandleFunc("/api/trip/plan", g.handleCreateTripPlan).Methods("POST")
	r.HandleFunc("/api/trip/{trip_id}", g.handleGetTripPlan).Methods("GET")
	r.HandleFunc("/api/trips", g.handleListTrips).Methods("GET")

	return r
}

func (g *Gateway) requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set("X-Request-ID", requestID)
		r.Header.Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

// handleCreateTripPlan accepts a plan request, persists it and hands it
// off to the background processor. It answers before any capability
// call is issued.
func (g *Gateway) handleCreateTripPlan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get("X-Request-ID")

	var req types.TripRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		promRequestsTotal.WithLabelValues("create_plan", "invalid").Inc()
		sendError(w, "Invalid JSON body", http.StatusBadRequest)
		return
	}
	if err := ValidateTripRequest(&req); err != nil {
		promRequestsTotal.WithLabelValues("create_plan", "invalid").Inc()
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	planID, err := g.store.Create(r.Context(), req)
	if err != nil {
		g.log.ErrorWithErr(0, requestID, "Failed to create trip plan", err, nil)
		promRequestsTotal.WithLabelValues("create_plan", "error").Inc()
		sendError(w, "Trip plan storage unavailable", http.StatusServiceUnavailable)
		return
	}

	g.publisher.Publish(events.PlanCreated(planID, req))
	g.processor.Submit(planID, req)

	g.log.InfoWithDuration(planID, requestID, "Trip plan accepted", float64(time.Since(start).Milliseconds()), map[string]interface{}{
		"origin":      req.Origin,
		"destination": req.Destination,
	})
	promRequestsTotal.WithLabelValues("create_plan", "accepted").Inc()
	promRequestDuration.WithLabelValues("create_plan").Observe(float64(time.Since(start).Milliseconds()))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"trip_id": planID,
		"status":  "processing",
		"message": "Trip plan is being generated",
	})
}

// handleGetTripPlan serves a plan aggregate, preferring the result
// cache and falling back to the store. A plan still in flight is
// returned with its current status, never a 404.
func (g *Gateway) handleGetTripPlan(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	requestID := r.Header.Get("X-Request-ID")

	planID, err := strconv.ParseInt(mux.Vars(r)["trip_id"], 10, 64)
	if err != nil || planID <= 0 {
		promRequestsTotal.WithLabelValues("get_plan", "invalid").Inc()
		sendError(w, "Invalid trip id", http.StatusBadRequest)
		return
	}

	if aggregate, cacheErr := g.cache.Get(r.Context(), planID); cacheErr == nil {
		promCacheHits.Inc()
		promRequestsTotal.WithLabelValues("get_plan", "ok").Inc()
		promRequestDuration.WithLabelValues("get_plan").Observe(float64(time.Since(start).Milliseconds()))
		writeJSON(w, http.StatusOK, aggregate)
		return
	} else if !errors.Is(cacheErr, cache.ErrMiss) {
		g.log.ErrorWithErr(planID, requestID, "Result cache read failed", cacheErr, nil)
	}
	promCacheMisses.Inc()

	aggregate, err := g.store.Get(r.Context(), planID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			promRequestsTotal.WithLabelValues("get_plan", "not_found").Inc()
			sendError(w, "Trip plan not found", http.StatusNotFound)
			return
		}
		g.log.ErrorWithErr(planID, requestID, "Failed to load trip plan", err, nil)
		promRequestsTotal.WithLabelValues("get_plan", "error").Inc()
		sendError(w, "Trip plan storage unavailable", http.StatusServiceUnavailable)
		return
	}

	promRequestsTotal.WithLabelValues("get_plan", "ok").Inc()
	promRequestDuration.WithLabelValues("get_plan").Observe(float64(time.Since(start).Milliseconds()))
	writeJSON(w, http.StatusOK, aggregate)
}

// handleListTrips lists a user's plans, most recent first. Always
// served from the store.
func (g *Gateway) handleListTrips(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	userID := int64(1)
	if raw := r.URL.Query().Get("user_id"); raw != "" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || parsed <= 0 {
			promRequestsTotal.WithLabelValues("list_trips", "invalid").Inc()
			sendError(w, "Invalid user_id", http.StatusBadRequest)
			return
		}
		userID = parsed
	}

	limit := 10
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 || parsed > 100 {
			promRequestsTotal.WithLabelValues("list_trips", "invalid").Inc()
			sendError(w, "Invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	trips, err := g.store.ListByUser(r.Context(), userID, limit)
	if err != nil {
		g.log.ErrorWithErr(0, r.Header.Get("X-Request-ID"), "Failed to list trips", err, map[string]interface{}{
			"user_id": userID,
		})
		promRequestsTotal.WithLabelValues("list_trips", "error").Inc()
		sendError(w, "Trip plan storage unavailable", http.StatusServiceUnavailable)
		return
	}
	if trips == nil {
		trips = []types.TripPlan{}
	}

	promRequestsTotal.WithLabelValues("list_trips", "ok").Inc()
	promRequestDuration.WithLabelValues("list_trips").Observe(float64(time.Since(start).Milliseconds()))
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"trips": trips,
	})
}

// handleHealth reports the gateway's own state plus the reachability of
// its store, cache and the four providers. Probes run concurrently with
// short deadlines.
func (g *Gateway) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	components := map[string]string{}
	var mu sync.Mutex
	var wg sync.WaitGroup

	set := func(name, status string) {
		mu.Lock()
		components[name] = status
		mu.Unlock()
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := g.store.Ping(ctx); err != nil {
			set("database", "unhealthy")
		} else {
			set("database", "healthy")
		}
	}()
	go func() {
		defer wg.Done()
		if err := g.cache.Ping(ctx); err != nil {
			set("cache", "unhealthy")
		} else {
			set("cache", "healthy")
		}
	}()
	for _, capability := range Capabilities() {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			set("provider_"+name, g.client.Health(ctx, name))
		}(capability.Name())
	}
	wg.Wait()

	status := "healthy"
	if components["database"] != "healthy" {
		status = "unhealthy"
	}

	code := http.StatusOK
	if status != "healthy" {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status":     status,
		"service":    "dreamtrip-gateway",
		"timestamp":  time.Now().UTC().Format(time.RFC3339),
		"components": components,
	})
}

// sendError sends a JSON error response
func sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"success": false,
		"error":   message,
	})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}
