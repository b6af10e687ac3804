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

/*
Package gateway provides the DreamTrip trip gateway service - the
orchestration front door for travel plan generation.

# Overview

The gateway accepts a trip plan request, persists it, answers
immediately with a plan id, then drives the plan to completion in the
background:

	Request → Plan Store (pending) → 202 Accepted
	        → Processor: fan-out to route/weather/poi/ai providers
	        → sub-results persisted as they settle
	        → join → terminal status (completed/degraded/failed)
	        → aggregate cached, lifecycle event published

# State machine

A plan moves through pending → processing → one of the terminal states:

  - completed: all four capability calls succeeded
  - degraded: at least one succeeded and at least one failed
  - failed: all four failed

Terminal states are final; a plan is never retried. Clients that want
another attempt submit a new plan.

# Capability fan-out

The four providers are abstracted behind a single Capability interface
(name, request builder, response persister) and iterated generically by
the processor, so the join logic exists exactly once. Each call carries
its own timeout; one provider failing or timing out never cancels the
others.

# Read path

Plan reads prefer the result cache and fall back to the plan store. A
plan still in flight is returned with its current status rather than a
404; the cache only ever holds finalized aggregates.
*/
package gateway
