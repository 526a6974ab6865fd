package domain

import "errors"

// Sentinel errors shared across adapters. Outbound clients translate raw
// upstream failures into these so services can apply the retry / fail-open
// policy without inspecting transport details.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrRateLimited     = errors.New("upstream rate limit reached")
	ErrUpstreamAuth    = errors.New("upstream rejected credentials")
	ErrUnavailable     = errors.New("upstream temporarily unavailable")
)
