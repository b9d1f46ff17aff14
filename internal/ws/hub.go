package ws

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"drainflow/internal/lifecycle"
)

// Hub fans trip snapshots out to the WebSocket clients watching each
// trip. Slow clients are dropped rather than allowed to stall the feed.
type Hub struct {
	mu    sync.RWMutex
	trips map[string]map[*Client]bool
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{trips: make(map[string]map[*Client]bool)}
}

// Add registers a client as a watcher of its trip.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.trips[c.TripID]
	if !ok {
		clients = make(map[*Client]bool)
		h.trips[c.TripID] = clients
	}
	clients[c] = true
}

// Remove unregisters a client and closes its send channel.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	clients, ok := h.trips[c.TripID]
	if !ok {
		return
	}
	if _, ok := clients[c]; !ok {
		return
	}
	delete(clients, c)
	close(c.send)
	if len(clients) == 0 {
		delete(h.trips, c.TripID)
	}
}

// snapshotMessage is the wire shape of a trip update.
type snapshotMessage struct {
	Type   string      `json:"type"`
	TripID string      `json:"trip_id"`
	Status string      `json:"status"`

	Position   *positionMessage `json:"position,omitempty"`
	BearingDeg float64          `json:"bearing_deg"`
	ETAMinutes float64          `json:"eta_minutes"`

	TrackingDegraded bool     `json:"tracking_degraded"`
	NextEvents       []string `json:"next_events"`

	Charge *chargeMessage `json:"charge,omitempty"`
}

type positionMessage struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

type chargeMessage struct {
	Minutes     int64   `json:"minutes"`
	BaseAmount  float64 `json:"base_amount"`
	TaxAmount   float64 `json:"tax_amount"`
	TotalAmount float64 `json:"total_amount"`
}

// PublishSnapshot implements service.SnapshotPublisher. It serializes
// the snapshot once and hands it to every watcher of the trip.
func (h *Hub) PublishSnapshot(tripID string, snap lifecycle.Snapshot) {
	msg := snapshotMessage{
		Type:             "trip_update",
		TripID:           snap.TripID,
		Status:           string(snap.Status),
		BearingDeg:       snap.BearingDeg,
		ETAMinutes:       snap.ETAMinutes,
		TrackingDegraded: snap.TrackingDegraded,
	}
	if snap.Position != nil {
		msg.Position = &positionMessage{
			Lat:        snap.Position.Coordinate.Lat,
			Lng:        snap.Position.Coordinate.Lng,
			CapturedAt: snap.Position.CapturedAt,
		}
	}
	for _, e := range snap.NextEvents {
		msg.NextEvents = append(msg.NextEvents, string(e))
	}
	if snap.Charge != nil {
		msg.Charge = &chargeMessage{
			Minutes:     snap.Charge.Minutes,
			BaseAmount:  snap.Charge.BaseAmount,
			TaxAmount:   snap.Charge.TaxAmount,
			TotalAmount: snap.Charge.TotalAmount,
		}
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		log.Printf("ws: marshal snapshot for trip %s: %v", tripID, err)
		return
	}

	h.mu.RLock()
	clients := make([]*Client, 0, len(h.trips[tripID]))
	for c := range h.trips[tripID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		select {
		case c.send <- payload:
		default:
			// Client cannot keep up; cut it loose.
			go h.Remove(c)
		}
	}
}
