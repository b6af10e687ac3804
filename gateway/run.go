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
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"

	"dreamtrip/platform/cache"
	"dreamtrip/platform/config"
	"dreamtrip/platform/events"
	"dreamtrip/platform/store"
)

const shutdownGraceTimeout = 15 * time.Second

// Run is the exported entry point for the trip gateway service.
//
// It loads configuration, connects the plan store, result cache and
// event publisher, starts the background trip processor and serves the
// HTTP API. The function blocks until the server shuts down.
//
// Environment variables used:
//   - PORT: HTTP server port (default: 8080)
//   - DATABASE_URL: PostgreSQL connection string
//   - REDIS_URL: Redis connection string (cache and event stream)
//   - ROUTE_SERVICE_URL, WEATHER_SERVICE_URL, POI_SERVICE_URL,
//     AI_SERVICE_URL: provider endpoints
//   - GATEWAY_CONFIG: optional YAML config file path
func Run() {
	log.Println("Starting DreamTrip Trip Gateway...")

	cfg, err := config.Load(os.Getenv("GATEWAY_CONFIG"))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	planStore, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect plan store: %v", err)
	}
	defer planStore.Close()
	if err := planStore.InitSchema(ctx); err != nil {
		log.Fatalf("Failed to initialize plan store schema: %v", err)
	}
	log.Println("✅ Plan store connected")

	resultCache, err := cache.NewRedisCache(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect result cache: %v", err)
	}
	defer resultCache.Close()
	log.Println("✅ Result cache connected")

	// Events are observability, not correctness: a broken stream must
	// not keep the gateway from serving plans.
	var publisher events.Publisher
	redisPublisher, err := events.NewRedisPublisher(ctx, cfg.RedisURL, cfg.EventStream, cfg.QueueSize, 2)
	if err != nil {
		log.Printf("⚠️ Event stream unavailable, lifecycle events disabled: %v", err)
		publisher = events.NewNopPublisher()
	} else {
		publisher = redisPublisher
		log.Printf("✅ Event publisher connected (stream: %s)", cfg.EventStream)
	}

	client := NewServiceClient(cfg.Providers)
	processor := NewTripProcessor(planStore, resultCache, publisher, client, cfg.CacheTTL(), cfg.Workers, cfg.QueueSize)
	gateway := NewGateway(planStore, resultCache, publisher, client, processor)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"}, // Configure for production
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: c.Handler(gateway.Router()),
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("DreamTrip Trip Gateway listening on port %s", cfg.Port)
		errCh <- srv.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("Shutdown signal received: %s", sig)
	case err := <-errCh:
		log.Fatalf("Server failed: %v", err)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownGraceTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown failed: %v", err)
	}
	// Let in-flight plans reach a terminal state and drain the event
	// queue before the process exits.
	if err := processor.Shutdown(shutdownCtx); err != nil {
		log.Printf("Processor shutdown incomplete: %v", err)
	}
	if err := publisher.Shutdown(shutdownCtx); err != nil {
		log.Printf("Event publisher shutdown incomplete: %v", err)
	}
	log.Println("Trip gateway stopped")
}
