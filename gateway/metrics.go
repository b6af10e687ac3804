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
	"github.com/prometheus/client_golang/prometheus"
)

// Prometheus metrics
var (
	promRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dreamtrip_gateway_requests_total",
			Help: "Total number of HTTP requests handled by the gateway",
		},
		[]string{"handler", "status"},
	)
	promRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dreamtrip_gateway_request_duration_milliseconds",
			Help:    "Request duration in milliseconds",
			Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
		},
		[]string{"handler"},
	)
	promCapabilityCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dreamtrip_gateway_capability_calls_total",
			Help: "Total number of downstream capability calls",
		},
		[]string{"provider", "status"},
	)
	promCapabilityDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dreamtrip_gateway_capability_duration_milliseconds",
			Help:    "Capability call duration in milliseconds",
			Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000, 30000},
		},
		[]string{"provider"},
	)
	promPlansFinalized = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dreamtrip_gateway_plans_total",
			Help: "Total number of plans reaching a terminal state",
		},
		[]string{"status"},
	)
	promCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dreamtrip_gateway_cache_hits_total",
			Help: "Total number of result cache hits on the read path",
		},
	)
	promCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "dreamtrip_gateway_cache_misses_total",
			Help: "Total number of result cache misses on the read path",
		},
	)
)

func init() {
	// Register Prometheus metrics
	prometheus.MustRegister(promRequestsTotal)
	prometheus.MustRegister(promRequestDuration)
	prometheus.MustRegister(promCapabilityCalls)
	prometheus.MustRegister(promCapabilityDuration)
	prometheus.MustRegister(promPlansFinalized)
	prometheus.MustRegister(promCacheHits)
	prometheus.MustRegister(promCacheMisses)
}
