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
	"sync"
	"time"

	"dreamtrip/platform/cache"
	"dreamtrip/platform/events"
	"dreamtrip/platform/shared/logger"
	"dreamtrip/platform/shared/types"
	"dreamtrip/platform/store"
)

const (
	// DefaultWorkers is the default number of plan processing workers
	DefaultWorkers = 4
	// DefaultQueueSize is the default plan job queue capacity
	DefaultQueueSize = 64
)

type planJob struct {
	planID  int64
	request types.TripRequest
}

// TripProcessor drives accepted plans to a terminal state off the
// request path. Jobs go through a bounded queue into a fixed worker
// pool; each worker fans out the four capability calls concurrently,
// joins on all of them, then finalizes the plan exactly once.
type TripProcessor struct {
	store     store.PlanStore
	cache     cache.ResultCache
	publisher events.Publisher
	client    *ServiceClient
	caps      []Capability
	cacheTTL  time.Duration

	jobs chan planJob
	wg   sync.WaitGroup
	once sync.Once
	log  *logger.Logger
}

// NewTripProcessor creates a processor and starts its workers.
func NewTripProcessor(st store.PlanStore, rc cache.ResultCache, pub events.Publisher, client *ServiceClient, cacheTTL time.Duration, workers, queueSize int) *TripProcessor {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	if queueSize <= 0 {
		queueSize = DefaultQueueSize
	}
	p := &TripProcessor{
		store:     st,
		cache:     rc,
		publisher: pub,
		client:    client,
		caps:      Capabilities(),
		cacheTTL:  cacheTTL,
		jobs:      make(chan planJob, queueSize),
		log:       logger.New("trip-processor"),
	}

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.worker()
	}
	return p
}

// Submit enqueues a plan for background processing without blocking.
// It returns false when the queue is full; the plan then stays pending
// until the client resubmits, which is preferable to stalling the
// accepting handler.
func (p *TripProcessor) Submit(planID int64, req types.TripRequest) bool {
	select {
	case p.jobs <- planJob{planID: planID, request: req}:
		return true
	default:
		p.log.Warn(planID, "", "Processing queue full, plan left pending", nil)
		return false
	}
}

// Shutdown stops accepting jobs and waits for in-flight plans to reach
// a terminal state, bounded by ctx.
func (p *TripProcessor) Shutdown(ctx context.Context) error {
	p.once.Do(func() { close(p.jobs) })

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *TripProcessor) worker() {
	defer p.wg.Done()
	for job := range p.jobs {
		p.process(job)
	}
}

type capOutcome struct {
	success bool
	err     error
}

func (p *TripProcessor) process(job planJob) {
	ctx := context.Background()
	start := time.Now()
	p.log.Info(job.planID, "", "Starting plan processing", nil)

	if err := p.store.UpdateStatus(ctx, job.planID, types.StatusProcessing); err != nil {
		// The plan may stay visibly stuck in pending; the capability
		// calls still run so a transient store hiccup does not cost
		// the whole plan.
		p.log.ErrorWithErr(job.planID, "", "Failed to mark plan processing", err, nil)
	}

	outcomes := p.fanOut(ctx, job)

	succeeded := 0
	for _, o := range outcomes {
		if o.success {
			succeeded++
		}
	}
	var status types.Status
	switch succeeded {
	case len(outcomes):
		status = types.StatusCompleted
	case 0:
		status = types.StatusFailed
	default:
		status = types.StatusDegraded
	}

	p.finalize(ctx, job.planID, status, outcomes)
	p.log.InfoWithDuration(job.planID, "", "Plan processing finished", float64(time.Since(start).Milliseconds()), map[string]interface{}{
		"status":    status.String(),
		"succeeded": succeeded,
	})
}

// fanOut issues all capability calls concurrently and joins on every
// one of them. A timeout or failure on one call never cancels the
// siblings.
func (p *TripProcessor) fanOut(ctx context.Context, job planJob) []capOutcome {
	outcomes := make([]capOutcome, len(p.caps))

	var wg sync.WaitGroup
	wg.Add(len(p.caps))
	for i, capability := range p.caps {
		go func(idx int, c Capability) {
			defer wg.Done()
			outcomes[idx] = p.callCapability(ctx, c, job)
		}(i, capability)
	}
	wg.Wait()

	return outcomes
}

func (p *TripProcessor) callCapability(ctx context.Context, c Capability, job planJob) capOutcome {
	var outcome capOutcome
	start := time.Now()

	payload := c.BuildRequest(job.request, nil)
	body, callErr := p.client.Call(ctx, c.Name(), c.Path(), payload)
	if callErr != nil {
		outcome.err = callErr
		p.log.ErrorWithErr(job.planID, "", "Capability call failed", callErr, map[string]interface{}{
			"provider": c.Name(),
			"kind":     string(callErr.Kind),
		})
	} else if err := c.Persist(ctx, p.store, job.planID, job.request, body); err != nil {
		// A response we cannot validate or store counts as a failed
		// sub-result, same as a bad response on the wire.
		outcome.err = err
		p.log.ErrorWithErr(job.planID, "", "Capability result rejected", err, map[string]interface{}{
			"provider": c.Name(),
		})
	} else {
		outcome.success = true
	}

	promCapabilityDuration.WithLabelValues(c.Name()).Observe(float64(time.Since(start).Milliseconds()))
	if outcome.success {
		promCapabilityCalls.WithLabelValues(c.Name(), "success").Inc()
	} else {
		promCapabilityCalls.WithLabelValues(c.Name(), "failure").Inc()
	}

	p.publisher.Publish(events.SubResultProcessed(c.EventKind(), job.planID, outcome.success))
	return outcome
}

// finalize moves the plan to its terminal state, caches the aggregate
// and emits the terminal event. It is idempotent: a plan already in a
// terminal state is left untouched.
func (p *TripProcessor) finalize(ctx context.Context, planID int64, status types.Status, outcomes []capOutcome) {
	current, err := p.store.Get(ctx, planID)
	if err != nil {
		p.log.ErrorWithErr(planID, "", "Failed to load plan for finalization", err, nil)
		return
	}
	if current.Status.IsTerminal() {
		p.log.Warn(planID, "", "Plan already finalized, skipping", map[string]interface{}{
			"status": current.Status.String(),
		})
		return
	}

	if err := p.store.UpdateStatus(ctx, planID, status); err != nil {
		p.log.ErrorWithErr(planID, "", "Failed to persist terminal status", err, nil)
		return
	}
	current.Status = status
	promPlansFinalized.WithLabelValues(status.String()).Inc()

	// A failed plan has nothing worth caching; readers fall through to
	// the store and see the terminal record there.
	if status != types.StatusFailed {
		if err := p.cache.Put(ctx, planID, current, p.cacheTTL); err != nil {
			p.log.ErrorWithErr(planID, "", "Failed to cache aggregate", err, nil)
		}
	}

	if status == types.StatusFailed {
		p.publisher.Publish(events.PlanFailed(planID, failureReason(outcomes)))
	} else {
		p.publisher.Publish(events.PlanCompleted(planID, status))
	}
}

func failureReason(outcomes []capOutcome) string {
	for _, o := range outcomes {
		if o.err != nil {
			return o.err.Error()
		}
	}
	return "all capability calls failed"
}
