// Package feed abstracts the source of operator position samples.
//
// A live feed is driven by the driver app posting GPS fixes; a simulated
// feed generates synthetic movement toward a target for demo tracking.
// Both satisfy the same interface so the trip lifecycle engine is
// agnostic to the source.
package feed

import (
	"errors"

	"drainflow/internal/domain"
)

var (
	// ErrAlreadySubscribed is returned when a second subscription is
	// attempted on a feed instance. Exactly one subscriber per feed.
	ErrAlreadySubscribed = errors.New("feed already has a subscriber")

	// ErrFeedClosed is returned when pushing into a feed after a
	// terminal error or unsubscribe.
	ErrFeedClosed = errors.New("feed is closed")

	// ErrPermissionDenied signals the device location permission was
	// revoked. Delivered through the error callback, terminal.
	ErrPermissionDenied = errors.New("location permission denied")
)

// Feed delivers a time-ordered stream of position samples.
//
// Subscribe registers the sample and error callbacks and returns an
// unsubscribe function. Unsubscribing is idempotent: it is safe to call
// it multiple times, e.g. once from a cancel path and once from the
// normal arrival path. The error callback is invoked at most once and
// is terminal; no samples follow it.
type Feed interface {
	Subscribe(onSample func(domain.PositionSample), onError func(error)) (unsubscribe func(), err error)
}
