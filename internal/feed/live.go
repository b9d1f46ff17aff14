package feed

import (
	"sync"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/geo"
)

// LiveFeedConfig bounds how often a live feed emits.
type LiveFeedConfig struct {
	// MinInterval suppresses samples arriving sooner than this after the
	// last emitted one. Zero disables the time filter.
	MinInterval time.Duration

	// MinDistanceM suppresses samples that moved less than this many
	// meters since the last emitted one. Zero disables the distance filter.
	MinDistanceM float64
}

// LiveFeed is a Feed fed by operator location posts from the driver app.
//
// Push validates and filters each fix; Fail delivers a terminal error
// (permission denied, provider failure) to the subscriber instead of
// silently stopping.
type LiveFeed struct {
	cfg LiveFeedConfig

	mu         sync.Mutex
	onSample   func(domain.PositionSample)
	onError    func(error)
	subscribed bool
	closed     bool
	hasLast    bool
	last       domain.PositionSample
}

// NewLiveFeed creates a live feed with the given emission bounds.
func NewLiveFeed(cfg LiveFeedConfig) *LiveFeed {
	return &LiveFeed{cfg: cfg}
}

// Subscribe implements Feed.
func (f *LiveFeed) Subscribe(onSample func(domain.PositionSample), onError func(error)) (func(), error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.subscribed {
		return nil, ErrAlreadySubscribed
	}
	if f.closed {
		return nil, ErrFeedClosed
	}

	f.subscribed = true
	f.onSample = onSample
	f.onError = onError

	return func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.onSample = nil
		f.onError = nil
		f.closed = true
	}, nil
}

// Push delivers a GPS fix into the feed. Invalid coordinates are rejected;
// fixes inside the configured time or distance bounds are dropped.
func (f *LiveFeed) Push(sample domain.PositionSample) error {
	if err := sample.Coordinate.Validate(); err != nil {
		return err
	}

	f.mu.Lock()
	if f.closed || f.onSample == nil {
		f.mu.Unlock()
		return ErrFeedClosed
	}

	if f.hasLast {
		if f.cfg.MinInterval > 0 && sample.CapturedAt.Sub(f.last.CapturedAt) < f.cfg.MinInterval {
			f.mu.Unlock()
			return nil
		}
		if f.cfg.MinDistanceM > 0 && geo.DistanceM(f.last.Coordinate, sample.Coordinate) < f.cfg.MinDistanceM {
			f.mu.Unlock()
			return nil
		}
	}

	f.last = sample
	f.hasLast = true
	deliver := f.onSample
	f.mu.Unlock()

	deliver(sample)
	return nil
}

// Fail delivers a terminal error to the subscriber and closes the feed.
// Safe to call when nobody is subscribed; safe to call twice.
func (f *LiveFeed) Fail(err error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	deliver := f.onError
	f.onSample = nil
	f.onError = nil
	f.mu.Unlock()

	if deliver != nil {
		deliver(err)
	}
}
