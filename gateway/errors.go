// Copyright 2025 DreamTrip
// SPDX-License-Identifier: Apache-2.0

package gateway

import (
	"fmt"
	"strings"

	"dreamtrip/platform/shared/types"
)

// ValidationError reports a malformed trip plan request. It maps to
// HTTP 400 on the API surface.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Message)
}

// CallErrorKind classifies a failed downstream provider call.
type CallErrorKind string

const (
	// CallTimeout means the provider did not answer within its deadline.
	CallTimeout CallErrorKind = "timeout"
	// CallUnreachable means the connection could not be established or
	// broke mid-flight.
	CallUnreachable CallErrorKind = "unreachable"
	// CallBadResponse means the provider answered with a non-2xx status
	// or an unusable body.
	CallBadResponse CallErrorKind = "bad_response"
)

// CallError is the typed failure returned for a single provider call.
// The orchestrator records the kind per capability; one failing
// provider never fails the whole plan on its own.
type CallError struct {
	Provider string
	Kind     CallErrorKind
	Status   int
	Err      error
}

func (e *CallError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s call failed (%s, status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s call failed (%s): %v", e.Provider, e.Kind, e.Err)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// ValidateTripRequest checks the inbound plan request and applies
// defaults. UserID 0 becomes 1, matching the public demo surface where
// requests are not authenticated.
func ValidateTripRequest(req *types.TripRequest) error {
	req.Origin = strings.TrimSpace(req.Origin)
	req.Destination = strings.TrimSpace(req.Destination)
	if req.Origin == "" {
		return &ValidationError{Field: "origin", Message: "must not be empty"}
	}
	if req.Destination == "" {
		return &ValidationError{Field: "destination", Message: "must not be empty"}
	}
	if req.Duration <= 0 {
		return &ValidationError{Field: "duration_days", Message: "must be a positive number of days"}
	}
	if req.Duration > 30 {
		return &ValidationError{Field: "duration_days", Message: "must not exceed 30 days"}
	}
	if req.UserID <= 0 {
		req.UserID = 1
	}
	if req.Preferences == nil {
		req.Preferences = []string{}
	}
	return nil
}
