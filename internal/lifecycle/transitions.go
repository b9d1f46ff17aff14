package lifecycle

import "drainflow/internal/domain"

// Event is a caller-visible trigger for a trip status transition.
// Position samples are not events: they arrive through the feed and
// either extend the track or fire the arrival transition internally.
type Event string

const (
	EventMatchFound    Event = "MATCH_FOUND"
	EventStartTravel   Event = "START_TRAVEL"
	EventMarkArrived   Event = "MARK_ARRIVED"
	EventBeginService  Event = "BEGIN_SERVICE"
	EventFinishService Event = "FINISH_SERVICE"
	EventCancel        Event = "CANCEL"
)

// transitions encodes the trip state flow as code. CANCEL is legal from
// every non-terminal status; nothing leaves COMPLETED or CANCELLED.
var transitions = map[domain.TripStatus]map[Event]domain.TripStatus{
	domain.TripStatusRequested: {
		EventMatchFound: domain.TripStatusMatched,
		EventCancel:     domain.TripStatusCancelled,
	},
	domain.TripStatusMatched: {
		EventStartTravel: domain.TripStatusEnRoute,
		EventCancel:      domain.TripStatusCancelled,
	},
	domain.TripStatusEnRoute: {
		EventMarkArrived: domain.TripStatusArrived,
		EventCancel:      domain.TripStatusCancelled,
	},
	domain.TripStatusArrived: {
		EventBeginService: domain.TripStatusInService,
		EventCancel:       domain.TripStatusCancelled,
	},
	domain.TripStatusInService: {
		EventFinishService: domain.TripStatusCompleted,
		EventCancel:        domain.TripStatusCancelled,
	},
}

// eventOrder fixes the order ValidEvents reports, so UI button wiring is
// stable across calls.
var eventOrder = []Event{
	EventMatchFound,
	EventStartTravel,
	EventMarkArrived,
	EventBeginService,
	EventFinishService,
	EventCancel,
}

// CanTransition reports whether the event is legal for the status.
func CanTransition(from domain.TripStatus, e Event) bool {
	next, ok := transitions[from]
	if !ok {
		return false
	}
	_, ok = next[e]
	return ok
}

// ValidEvents returns the events legal for the given status, in a stable
// order. Terminal statuses return nil. The UI uses this to decide which
// action buttons are enabled.
func ValidEvents(s domain.TripStatus) []Event {
	next, ok := transitions[s]
	if !ok {
		return nil
	}
	events := make([]Event, 0, len(next))
	for _, e := range eventOrder {
		if _, ok := next[e]; ok {
			events = append(events, e)
		}
	}
	return events
}
