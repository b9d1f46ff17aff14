package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"drainflow/internal/domain"
	"drainflow/internal/lifecycle"
	"drainflow/internal/service"
)

// TripHandler handles HTTP requests driving the trip lifecycle.
type TripHandler struct {
	tracking *service.TrackingService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tracking *service.TrackingService) *TripHandler {
	return &TripHandler{tracking: tracking}
}

// PositionResponse is a single track point.
type PositionResponse struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

// ChargeResponse is the line-itemized charge of a completed trip.
type ChargeResponse struct {
	RatePerMinute float64 `json:"rate_per_minute"`
	TaxPercent    float64 `json:"tax_percent"`
	Minutes       int64   `json:"minutes"`
	BaseAmount    float64 `json:"base_amount"`
	TaxAmount     float64 `json:"tax_amount"`
	TotalAmount   float64 `json:"total_amount"`
}

// TripResponse is the HTTP view of an active trip.
type TripResponse struct {
	TripID     string  `json:"trip_id"`
	CustomerID string  `json:"customer_id"`
	OperatorID string  `json:"operator_id,omitempty"`
	Status     string  `json:"status"`
	SiteLat    float64 `json:"site_lat"`
	SiteLng    float64 `json:"site_lng"`

	Position   *PositionResponse `json:"position,omitempty"`
	BearingDeg float64           `json:"bearing_deg"`
	ETAMinutes float64           `json:"eta_minutes"`

	Timestamps       map[string]time.Time `json:"timestamps"`
	DurationSeconds  int64                `json:"duration_seconds"`
	Charge           *ChargeResponse      `json:"charge,omitempty"`
	TrackingDegraded bool                 `json:"tracking_degraded"`
	NextEvents       []string             `json:"next_events"`
}

func toTripResponse(snap lifecycle.Snapshot) TripResponse {
	resp := TripResponse{
		TripID:           snap.TripID,
		CustomerID:       snap.CustomerID,
		OperatorID:       snap.OperatorID,
		Status:           string(snap.Status),
		SiteLat:          snap.Site.Lat,
		SiteLng:          snap.Site.Lng,
		BearingDeg:       snap.BearingDeg,
		ETAMinutes:       snap.ETAMinutes,
		DurationSeconds:  snap.DurationSeconds,
		TrackingDegraded: snap.TrackingDegraded,
	}
	if snap.Position != nil {
		resp.Position = &PositionResponse{
			Lat:        snap.Position.Coordinate.Lat,
			Lng:        snap.Position.Coordinate.Lng,
			CapturedAt: snap.Position.CapturedAt,
		}
	}
	resp.Timestamps = make(map[string]time.Time, len(snap.Timestamps))
	for status, at := range snap.Timestamps {
		resp.Timestamps[string(status)] = at
	}
	if snap.Charge != nil {
		resp.Charge = &ChargeResponse{
			RatePerMinute: snap.Charge.RatePerMinute,
			TaxPercent:    snap.Charge.TaxPercent,
			Minutes:       snap.Charge.Minutes,
			BaseAmount:    snap.Charge.BaseAmount,
			TaxAmount:     snap.Charge.TaxAmount,
			TotalAmount:   snap.Charge.TotalAmount,
		}
	}
	for _, e := range snap.NextEvents {
		resp.NextEvents = append(resp.NextEvents, string(e))
	}
	return resp
}

// ListTrips handles GET /v1/trips
func (h *TripHandler) ListTrips(c *gin.Context) {
	snaps := h.tracking.Active()
	trips := make([]TripResponse, 0, len(snaps))
	for _, snap := range snaps {
		trips = append(trips, toTripResponse(snap))
	}
	respondJSON(c, http.StatusOK, gin.H{"trips": trips, "count": len(trips)})
}

// GetTrip handles GET /v1/trips/:id
func (h *TripHandler) GetTrip(c *gin.Context) {
	snap, err := h.tracking.Snapshot(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(snap))
}

// StartTravelRequest is the HTTP request body for starting travel.
type StartTravelRequest struct {
	OperatorID string `json:"operator_id"`
	Simulate   bool   `json:"simulate,omitempty"`
}

// StartTravel handles POST /v1/trips/:id/start-travel
func (h *TripHandler) StartTravel(c *gin.Context) {
	var req StartTravelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.tracking.StartTravel(c.Request.Context(), service.StartTravelRequest{
		TripID:     c.Param("id"),
		OperatorID: req.OperatorID,
		Simulate:   req.Simulate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSnapshot(c)
}

// PushPositionRequest is the HTTP request body for a live GPS report.
type PushPositionRequest struct {
	OperatorID string  `json:"operator_id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
}

// PushPosition handles POST /v1/trips/:id/position
func (h *TripHandler) PushPosition(c *gin.Context) {
	var req PushPositionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	err := h.tracking.PushPosition(c.Request.Context(), c.Param("id"), req.OperatorID,
		domain.Coordinate{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondSnapshot(c)
}

// MarkArrived handles POST /v1/trips/:id/arrived
func (h *TripHandler) MarkArrived(c *gin.Context) {
	if err := h.tracking.MarkArrived(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.respondSnapshot(c)
}

// BeginService handles POST /v1/trips/:id/begin-service
func (h *TripHandler) BeginService(c *gin.Context) {
	if err := h.tracking.BeginService(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.respondSnapshot(c)
}

// FinishService handles POST /v1/trips/:id/finish-service
func (h *TripHandler) FinishService(c *gin.Context) {
	trip, err := h.tracking.FinishService(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toFinishedTripResponse(trip))
}

// CancelTripRequest is the HTTP request body for cancelling a trip.
type CancelTripRequest struct {
	Reason string `json:"reason,omitempty"`
}

// CancelTrip handles POST /v1/trips/:id/cancel
func (h *TripHandler) CancelTrip(c *gin.Context) {
	var req CancelTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	if err := h.tracking.Cancel(c.Request.Context(), c.Param("id"), req.Reason); err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, gin.H{"status": string(domain.TripStatusCancelled)})
}

// respondSnapshot replies with the post-action view of the trip.
func (h *TripHandler) respondSnapshot(c *gin.Context) {
	snap, err := h.tracking.Snapshot(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, toTripResponse(snap))
}

// FinishedTripResponse is the HTTP view of a completed trip.
type FinishedTripResponse struct {
	TripID          string               `json:"trip_id"`
	CustomerID      string               `json:"customer_id"`
	OperatorID      string               `json:"operator_id"`
	Status          string               `json:"status"`
	DurationSeconds int64                `json:"duration_seconds"`
	Timestamps      map[string]time.Time `json:"timestamps"`
	Charge          *ChargeResponse      `json:"charge,omitempty"`
}

func toFinishedTripResponse(trip *domain.Trip) FinishedTripResponse {
	resp := FinishedTripResponse{
		TripID:          trip.ID,
		CustomerID:      trip.CustomerID,
		OperatorID:      trip.OperatorID,
		Status:          string(trip.Status),
		DurationSeconds: trip.DurationSeconds,
	}
	resp.Timestamps = make(map[string]time.Time, len(trip.Timestamps))
	for status, at := range trip.Timestamps {
		resp.Timestamps[string(status)] = at
	}
	if trip.Charge != nil {
		resp.Charge = &ChargeResponse{
			RatePerMinute: trip.Charge.RatePerMinute,
			TaxPercent:    trip.Charge.TaxPercent,
			Minutes:       trip.Charge.Minutes,
			BaseAmount:    trip.Charge.BaseAmount,
			TaxAmount:     trip.Charge.TaxAmount,
			TotalAmount:   trip.Charge.TotalAmount,
		}
	}
	return resp
}
