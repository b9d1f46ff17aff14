package feed

import (
	"math/rand"
	"sync"
	"time"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
)

// SimulatedFeedConfig controls synthetic movement.
type SimulatedFeedConfig struct {
	// Tick is the emission interval.
	Tick time.Duration

	// StepFraction is the share of the remaining distance covered per
	// tick, in (0, 1]. 0.25 converges on the target in a handful of
	// ticks, which reads well on a demo map.
	StepFraction float64

	// JitterDeg adds uniform noise in degrees to each step. Zero makes
	// the movement fully deterministic for a given seed.
	JitterDeg float64

	// Seed feeds the jitter RNG.
	Seed int64
}

// SimulatedFeed emits synthetic samples moving from a start point toward a
// fixed target. It is used where no live operator exists, e.g. pre-match
// demo tracking, and is swappable with LiveFeed behind the Feed interface.
type SimulatedFeed struct {
	cfg    SimulatedFeedConfig
	clk    clock.Clock
	target domain.Coordinate

	mu         sync.Mutex
	current    domain.Coordinate
	subscribed bool

	stopOnce sync.Once
	stop     chan struct{}
}

// NewSimulatedFeed creates a simulated feed moving from start toward target.
func NewSimulatedFeed(start, target domain.Coordinate, cfg SimulatedFeedConfig, clk clock.Clock) *SimulatedFeed {
	if cfg.StepFraction <= 0 || cfg.StepFraction > 1 {
		cfg.StepFraction = 0.25
	}
	if cfg.Tick <= 0 {
		cfg.Tick = 2 * time.Second
	}
	return &SimulatedFeed{
		cfg:     cfg,
		clk:     clk,
		target:  target,
		current: start,
		stop:    make(chan struct{}),
	}
}

// Subscribe implements Feed. Emission starts on subscription and stops when
// the returned unsubscribe is called; unsubscribing twice is safe. The
// timer goroutine is torn down on unsubscribe so no orphaned emission
// outlives the owning trip.
func (f *SimulatedFeed) Subscribe(onSample func(domain.PositionSample), onError func(error)) (func(), error) {
	f.mu.Lock()
	if f.subscribed {
		f.mu.Unlock()
		return nil, ErrAlreadySubscribed
	}
	f.subscribed = true
	f.mu.Unlock()

	go f.run(onSample)

	return func() {
		f.stopOnce.Do(func() { close(f.stop) })
	}, nil
}

func (f *SimulatedFeed) run(onSample func(domain.PositionSample)) {
	rng := rand.New(rand.NewSource(f.cfg.Seed))
	ticker := time.NewTicker(f.cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-f.stop:
			return
		case <-ticker.C:
			sample := f.advance(rng)
			select {
			case <-f.stop:
				return
			default:
				onSample(sample)
			}
		}
	}
}

// advance moves the current position toward the target by StepFraction of
// the remaining delta, with optional jitter, and returns the new sample.
func (f *SimulatedFeed) advance(rng *rand.Rand) domain.PositionSample {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.current.Lat += (f.target.Lat - f.current.Lat) * f.cfg.StepFraction
	f.current.Lng += (f.target.Lng - f.current.Lng) * f.cfg.StepFraction

	if f.cfg.JitterDeg > 0 {
		f.current.Lat += (rng.Float64()*2 - 1) * f.cfg.JitterDeg
		f.current.Lng += (rng.Float64()*2 - 1) * f.cfg.JitterDeg
	}

	return domain.PositionSample{Coordinate: f.current, CapturedAt: f.clk.Now()}
}
