// Package lifecycle owns the trip state machine: legal status
// transitions, transition timestamps, track accumulation, arrival
// detection and the completion hand-off to billing and the record store.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"drainflow/internal/clock"
	"drainflow/internal/domain"
	"drainflow/internal/eta"
	"drainflow/internal/feed"
	"drainflow/internal/geo"
)

var (
	// ErrInvalidTransition is returned when an event is not legal for the
	// trip's current status. The trip is left unchanged.
	ErrInvalidTransition = errors.New("invalid trip transition")

	// ErrRecordAppend wraps a trip record store failure. The trip keeps
	// its terminal status in memory; the append should be retried, the
	// trip is never re-run.
	ErrRecordAppend = errors.New("trip record append failed")
)

// ChargeFunc computes the billing record for a completed service window.
type ChargeFunc func(startedAt, finishedAt time.Time) (*domain.Billing, error)

// RecordSink receives terminal trips for durable history.
type RecordSink interface {
	Append(ctx context.Context, trip *domain.Trip) error
}

// Config carries the machine's collaborators and policies.
type Config struct {
	Clock             clock.Clock
	ETA               *eta.Estimator
	ArrivalThresholdM float64
	Charge            ChargeFunc
	Records           RecordSink

	// OnChange, if set, receives a snapshot after every mutation. Invoked
	// outside the machine's lock; used for live-tracking push.
	OnChange func(Snapshot)
}

// StateMachine drives a single trip. Exactly one machine owns a given
// trip; all transitions and sample callbacks are serialized by an
// internal mutex, so samples delivered from feed goroutines can never
// interleave a transition.
type StateMachine struct {
	cfg Config

	mu          sync.Mutex
	trip        *domain.Trip
	unsubscribe func()
	bearingDeg  float64
	degraded    bool
	lastSample  time.Time

	// pendingRecord is set when the trip reached a terminal status but the
	// record store append failed. Repeating the terminal event retries the
	// append alone; the trip is never re-run.
	pendingRecord bool
}

// New wraps a freshly created trip in a state machine and stamps its
// REQUESTED timestamp if the booking layer has not already done so.
func New(trip *domain.Trip, cfg Config) *StateMachine {
	if cfg.Clock == nil {
		cfg.Clock = clock.System()
	}
	m := &StateMachine{cfg: cfg, trip: trip}
	m.mu.Lock()
	m.recordTimestamp(trip.Status)
	m.mu.Unlock()
	return m
}

// Snapshot is a read-only view of the trip handed to the UI layer.
// Track is a copy; consumers never see the machine's own slice.
type Snapshot struct {
	TripID     string
	CustomerID string
	OperatorID string
	Status     domain.TripStatus
	Site       domain.Coordinate

	Track      []domain.PositionSample
	Position   *domain.PositionSample
	BearingDeg float64
	ETAMinutes float64

	Timestamps      map[domain.TripStatus]time.Time
	DurationSeconds int64
	Charge          *domain.Billing

	// TrackingDegraded is set when the feed reported a terminal error.
	// The trip itself remains actionable through manual events.
	TrackingDegraded bool
	LastSampleAt     time.Time

	// NextEvents are the transitions legal from the current status.
	NextEvents []Event
}

// Snapshot returns the current view of the trip.
func (m *StateMachine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

func (m *StateMachine) snapshotLocked() Snapshot {
	t := m.trip

	track := make([]domain.PositionSample, len(t.Track))
	copy(track, t.Track)

	var pos *domain.PositionSample
	if len(track) > 0 {
		last := track[len(track)-1]
		pos = &last
	}

	ts := make(map[domain.TripStatus]time.Time, len(t.Timestamps))
	for k, v := range t.Timestamps {
		ts[k] = v
	}

	var charge *domain.Billing
	if t.Charge != nil {
		c := *t.Charge
		charge = &c
	}

	var etaMin float64
	if m.cfg.ETA != nil {
		etaMin = m.cfg.ETA.Last()
	}

	return Snapshot{
		TripID:           t.ID,
		CustomerID:       t.CustomerID,
		OperatorID:       t.OperatorID,
		Status:           t.Status,
		Site:             t.Site,
		Track:            track,
		Position:         pos,
		BearingDeg:       m.bearingDeg,
		ETAMinutes:       etaMin,
		Timestamps:       ts,
		DurationSeconds:  t.DurationSeconds,
		Charge:           charge,
		TrackingDegraded: m.degraded,
		LastSampleAt:     m.lastSample,
		NextEvents:       ValidEvents(t.Status),
	}
}

// MatchFound moves REQUESTED → MATCHED and pins the operator to the trip.
func (m *StateMachine) MatchFound(operatorID string) error {
	m.mu.Lock()
	if err := m.transitionLocked(EventMatchFound); err != nil {
		m.mu.Unlock()
		return err
	}
	m.trip.OperatorID = operatorID
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// StartTravel moves MATCHED → EN_ROUTE and starts consuming the feed.
// A non-nil from sample seeds the track with the operator's position at
// departure, so the track is never empty while en route.
func (m *StateMachine) StartTravel(f feed.Feed, from *domain.PositionSample) error {
	m.mu.Lock()
	if !CanTransition(m.trip.Status, EventStartTravel) {
		m.mu.Unlock()
		return ErrInvalidTransition
	}

	unsub, err := f.Subscribe(m.handleSample, m.handleFeedError)
	if err != nil {
		m.mu.Unlock()
		return err
	}

	m.applyTransitionLocked(EventStartTravel)
	m.unsubscribe = unsub
	if from != nil {
		m.appendSampleLocked(*from)
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// MarkArrived moves EN_ROUTE → ARRIVED manually. This is the fallback
// when GPS drops: the operator can still declare arrival from the app.
// The feed stays attached: on-site samples keep extending the track
// through the service phase.
func (m *StateMachine) MarkArrived() error {
	m.mu.Lock()
	if err := m.transitionLocked(EventMarkArrived); err != nil {
		m.mu.Unlock()
		return err
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// BeginService moves ARRIVED → IN_SERVICE.
func (m *StateMachine) BeginService() error {
	m.mu.Lock()
	if err := m.transitionLocked(EventBeginService); err != nil {
		m.mu.Unlock()
		return err
	}
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
	return nil
}

// FinishService moves IN_SERVICE → COMPLETED: records the timestamp,
// derives the service duration, computes the charge and hands the trip
// to the record store.
//
// The charge is computed before the transition commits, so a billing
// failure leaves the trip IN_SERVICE and the charge-iff-completed
// invariant intact. A record store failure is reported as ErrRecordAppend
// but does not roll the completed trip back; calling FinishService again
// on the completed trip retries only the append.
func (m *StateMachine) FinishService(ctx context.Context) (*domain.Trip, error) {
	m.mu.Lock()
	if m.trip.Status == domain.TripStatusCompleted && m.pendingRecord {
		trip := m.trip
		m.mu.Unlock()
		return trip, m.appendRecord(ctx, trip)
	}
	if !CanTransition(m.trip.Status, EventFinishService) {
		m.mu.Unlock()
		return nil, ErrInvalidTransition
	}

	startedAt := m.trip.EnteredAt(domain.TripStatusInService)
	finishedAt := m.cfg.Clock.Now()

	charge, err := m.cfg.Charge(startedAt, finishedAt)
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}

	m.applyTransitionAtLocked(EventFinishService, finishedAt)
	m.trip.DurationSeconds = int64(finishedAt.Sub(startedAt) / time.Second)
	m.trip.Charge = charge
	m.stopFeedLocked()

	trip := m.trip
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)

	return trip, m.appendRecord(ctx, trip)
}

// Cancel moves any non-terminal status to CANCELLED, freezes the track
// and stops the feed. Cancelling an already-cancelled trip never records
// a second timestamp: it is a no-op unless the record append is still
// owed, in which case only the append is retried.
func (m *StateMachine) Cancel(ctx context.Context, reason string) error {
	m.mu.Lock()
	if m.trip.Status == domain.TripStatusCancelled {
		trip := m.trip
		pending := m.pendingRecord
		m.mu.Unlock()
		if pending {
			return m.appendRecord(ctx, trip)
		}
		return nil
	}
	if err := m.transitionLocked(EventCancel); err != nil {
		m.mu.Unlock()
		return err
	}
	m.trip.CancelReason = reason
	m.stopFeedLocked()

	trip := m.trip
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)

	return m.appendRecord(ctx, trip)
}

// appendRecord hands a terminal trip to the record store and tracks
// whether the append is still owed, so a failed hand-off can be retried
// through the terminal event without repeating the transition.
func (m *StateMachine) appendRecord(ctx context.Context, trip *domain.Trip) error {
	if m.cfg.Records == nil {
		return nil
	}
	err := m.cfg.Records.Append(ctx, trip)

	m.mu.Lock()
	m.pendingRecord = err != nil
	m.mu.Unlock()

	if err != nil {
		return fmt.Errorf("%w: %v", ErrRecordAppend, err)
	}
	return nil
}

// handleSample is the feed callback. EN_ROUTE samples extend the track
// and either refresh the ETA or fire the arrival transition; IN_SERVICE
// samples extend the track only, so on-site movement stays on record
// until the trip ends. The feed survives arrival, so ARRIVED samples
// arrive here too and are dropped, as is any late delivery after a
// terminal transition stopped the feed.
func (m *StateMachine) handleSample(s domain.PositionSample) {
	m.mu.Lock()

	switch m.trip.Status {
	case domain.TripStatusEnRoute:
		m.appendSampleLocked(s)
		if geo.HasArrived(s.Coordinate, m.trip.Site, m.cfg.ArrivalThresholdM) {
			m.applyTransitionLocked(EventMarkArrived)
		} else if m.cfg.ETA != nil {
			m.cfg.ETA.Estimate(s.Coordinate, m.trip.Site)
		}
	case domain.TripStatusInService:
		m.appendSampleLocked(s)
	default:
		m.mu.Unlock()
		return
	}

	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

// handleFeedError marks tracking as degraded. Loss of location is not
// loss of the trip: no status transition happens here.
func (m *StateMachine) handleFeedError(error) {
	m.mu.Lock()
	m.degraded = true
	snap := m.snapshotLocked()
	m.mu.Unlock()

	m.notify(snap)
}

func (m *StateMachine) appendSampleLocked(s domain.PositionSample) {
	if n := len(m.trip.Track); n > 0 {
		prev := m.trip.Track[n-1].Coordinate
		// Bearing is undefined for a zero-length step; keep the previous one.
		if prev != s.Coordinate {
			m.bearingDeg = geo.BearingDegrees(prev, s.Coordinate)
		}
	}
	m.trip.Track = append(m.trip.Track, s)
	m.lastSample = s.CapturedAt
}

func (m *StateMachine) transitionLocked(e Event) error {
	if !CanTransition(m.trip.Status, e) {
		return ErrInvalidTransition
	}
	m.applyTransitionLocked(e)
	return nil
}

func (m *StateMachine) applyTransitionLocked(e Event) {
	m.applyTransitionAtLocked(e, m.cfg.Clock.Now())
}

func (m *StateMachine) applyTransitionAtLocked(e Event, at time.Time) {
	m.trip.Status = transitions[m.trip.Status][e]
	m.recordTimestampAt(m.trip.Status, at)
}

// recordTimestamp stamps the first entry into a status. Re-entering a
// status never overwrites the original instant.
func (m *StateMachine) recordTimestamp(s domain.TripStatus) {
	m.recordTimestampAt(s, m.cfg.Clock.Now())
}

func (m *StateMachine) recordTimestampAt(s domain.TripStatus, at time.Time) {
	if m.trip.Timestamps == nil {
		m.trip.Timestamps = make(map[domain.TripStatus]time.Time)
	}
	if _, ok := m.trip.Timestamps[s]; !ok {
		m.trip.Timestamps[s] = at
	}
}

// stopFeedLocked tears the subscription down. Idempotent: the completion
// and cancel paths may both call it.
func (m *StateMachine) stopFeedLocked() {
	if m.unsubscribe != nil {
		m.unsubscribe()
		m.unsubscribe = nil
	}
}

func (m *StateMachine) notify(snap Snapshot) {
	if m.cfg.OnChange != nil {
		m.cfg.OnChange(snap)
	}
}
