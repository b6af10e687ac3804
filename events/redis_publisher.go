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

package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisPublisher writes events to a Redis stream via background workers
type RedisPublisher struct {
	client  *redis.Client
	stream  string
	queue   chan Event
	wg      sync.WaitGroup
	logger  *log.Logger
	once    sync.Once

	// counters, written only under the worker goroutines
	mu        sync.Mutex
	published uint64
	dropped   uint64
}

// NewRedisPublisher connects to Redis and starts the worker pool
func NewRedisPublisher(ctx context.Context, redisURL, stream string, queueSize, workers int) (*RedisPublisher, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.DialTimeout = 5 * time.Second
	opts.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return NewRedisPublisherFromClient(client, stream, queueSize, workers), nil
}

// NewRedisPublisherFromClient wraps an existing client (used by tests)
func NewRedisPublisherFromClient(client *redis.Client, stream string, queueSize, workers int) *RedisPublisher {
	if queueSize <= 0 {
		queueSize = 256
	}
	if workers <= 0 {
		workers = 2
	}

	p := &RedisPublisher{
		client: client,
		stream: stream,
		queue:  make(chan Event, queueSize),
		logger: log.New(os.Stdout, "[EVENTS] ", log.LstdFlags),
	}

	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}

	p.logger.Printf("Publisher started (stream=%s, workers=%d, queue=%d)", stream, workers, queueSize)
	return p
}

// Publish queues the event; a full queue drops it with a log line
func (p *RedisPublisher) Publish(event Event) {
	select {
	case p.queue <- event:
	default:
		p.mu.Lock()
		p.dropped++
		p.mu.Unlock()
		p.logger.Printf("Event queue full, dropping %s for plan %d", event.Kind, event.PlanID)
	}
}

// worker drains the queue into the stream
func (p *RedisPublisher) worker() {
	defer p.wg.Done()

	for event := range p.queue {
		if err := p.write(event); err != nil {
			p.mu.Lock()
			p.dropped++
			p.mu.Unlock()
			p.logger.Printf("Failed to publish %s for plan %d: %v", event.Kind, event.PlanID, err)
			continue
		}
		p.mu.Lock()
		p.published++
		p.mu.Unlock()
	}
}

// write appends one entry to the stream. The full event is carried as JSON
// in the payload field; kind and plan_id are duplicated as flat fields so
// consumers can filter without decoding.
func (p *RedisPublisher) write(event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	return p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: p.stream,
		Values: map[string]interface{}{
			"kind":    event.Kind,
			"plan_id": strconv.FormatInt(event.PlanID, 10),
			"payload": string(payload),
		},
	}).Err()
}

// Shutdown stops accepting events and drains the queue, bounded by ctx
func (p *RedisPublisher) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.queue) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.mu.Lock()
		published, dropped := p.published, p.dropped
		p.mu.Unlock()
		p.logger.Printf("Publisher shutdown complete. Published: %d, Dropped: %d", published, dropped)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns publish counters (used by the health endpoint)
func (p *RedisPublisher) Stats() (published, dropped uint64, pending int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.published, p.dropped, len(p.queue)
}

// NopPublisher drops every event; used when the event backend is not
// configured or unreachable at startup (the system runs without events).
type NopPublisher struct {
	logger *log.Logger
	warned sync.Once
}

// NewNopPublisher returns a publisher that logs once and drops everything
func NewNopPublisher() *NopPublisher {
	return &NopPublisher{
		logger: log.New(os.Stdout, "[EVENTS] ", log.LstdFlags),
	}
}

// Publish drops the event
func (n *NopPublisher) Publish(event Event) {
	n.warned.Do(func() {
		n.logger.Printf("Event publishing disabled, dropping events")
	})
}

// Shutdown is a no-op
func (n *NopPublisher) Shutdown(ctx context.Context) error {
	return nil
}
