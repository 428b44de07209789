package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Cache stores and platform layers
// return these (optionally wrapped) so services can translate them into domain
// outcomes.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entry does not exist in the store
// - ErrExpired: entry exists but its TTL has elapsed
// - ErrUnavailable: backing service temporarily unreachable
var (
	ErrNotFound    = errors.New("not found")
	ErrExpired     = errors.New("expired")
	ErrUnavailable = errors.New("unavailable")
)
