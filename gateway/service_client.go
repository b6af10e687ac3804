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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"dreamtrip/platform/config"
)

const (
	// DefaultMaxResponseSize is the maximum provider response body size (10MB)
	DefaultMaxResponseSize = 10 * 1024 * 1024
	// healthProbeTimeout bounds a single /health probe
	healthProbeTimeout = 5 * time.Second
)

// ServiceClient issues JSON requests to the downstream trip providers
// (route, weather, poi, ai) over a shared pooled transport. Failed
// calls are classified, never retried; the orchestrator decides what a
// failure means for the plan.
type ServiceClient struct {
	httpClient      *http.Client
	providers       map[string]config.ProviderConfig
	logger          *log.Logger
	maxResponseSize int64
}

// NewServiceClient creates a client for the configured providers.
func NewServiceClient(providers map[string]config.ProviderConfig) *ServiceClient {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     10,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &ServiceClient{
		// Per-call deadlines come from the request context, not a
		// client-wide timeout, so each provider keeps its own budget.
		httpClient:      &http.Client{Transport: transport},
		providers:       providers,
		logger:          log.New(os.Stdout, "[SERVICE_CLIENT] ", log.LstdFlags),
		maxResponseSize: DefaultMaxResponseSize,
	}
}

// Timeout returns the configured call budget for a provider, falling
// back to 30s for unknown names.
func (c *ServiceClient) Timeout(provider string) time.Duration {
	if pc, ok := c.providers[provider]; ok {
		return pc.Timeout()
	}
	return 30 * time.Second
}

// Call POSTs the payload as JSON to the provider's path and returns the
// raw response body. The returned *CallError is nil on success.
func (c *ServiceClient) Call(ctx context.Context, provider, path string, payload interface{}) ([]byte, *CallError) {
	pc, ok := c.providers[provider]
	if !ok {
		return nil, &CallError{
			Provider: provider,
			Kind:     CallUnreachable,
			Err:      fmt.Errorf("no endpoint configured for provider %q", provider),
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, &CallError{Provider: provider, Kind: CallBadResponse, Err: fmt.Errorf("failed to encode request: %w", err)}
	}

	callCtx, cancel := context.WithTimeout(ctx, pc.Timeout())
	defer cancel()

	url := strings.TrimRight(pc.URL, "/") + path
	req, err := http.NewRequestWithContext(callCtx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &CallError{Provider: provider, Kind: CallUnreachable, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, c.classifyTransportError(provider, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// Drain a little so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return nil, &CallError{
			Provider: provider,
			Kind:     CallBadResponse,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxResponseSize))
	if err != nil {
		return nil, c.classifyTransportError(provider, err)
	}
	return data, nil
}

// Health probes the provider's /health endpoint with a short deadline
// and returns "healthy" or "unhealthy".
func (c *ServiceClient) Health(ctx context.Context, provider string) string {
	pc, ok := c.providers[provider]
	if !ok {
		return "unhealthy"
	}

	probeCtx, cancel := context.WithTimeout(ctx, healthProbeTimeout)
	defer cancel()

	url := strings.TrimRight(pc.URL, "/") + "/health"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return "unhealthy"
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "unhealthy"
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return "healthy"
	}
	return "unhealthy"
}

func (c *ServiceClient) classifyTransportError(provider string, err error) *CallError {
	kind := CallUnreachable
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) {
		kind = CallTimeout
	} else if errors.As(err, &netErr) && netErr.Timeout() {
		kind = CallTimeout
	}
	c.logger.Printf("Provider %s call failed (%s): %v", provider, kind, err)
	return &CallError{Provider: provider, Kind: kind, Err: err}
}
