package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"drainflow/internal/domain"
	"drainflow/internal/repository"
	"drainflow/internal/service"
)

// HistoryHandler handles HTTP requests against the trip record store.
type HistoryHandler struct {
	historyService *service.HistoryService
}

// NewHistoryHandler creates a new HistoryHandler.
func NewHistoryHandler(historyService *service.HistoryService) *HistoryHandler {
	return &HistoryHandler{historyService: historyService}
}

// TripRecordResponse is the HTTP view of one finished trip.
type TripRecordResponse struct {
	TripID          string               `json:"trip_id"`
	CustomerID      string               `json:"customer_id"`
	OperatorID      string               `json:"operator_id,omitempty"`
	VehicleClass    string               `json:"vehicle_class,omitempty"`
	Status          string               `json:"status"`
	SiteLat         float64              `json:"site_lat"`
	SiteLng         float64              `json:"site_lng"`
	TrackPoints     int                  `json:"track_points"`
	Timestamps      map[string]time.Time `json:"timestamps"`
	DurationSeconds int64                `json:"duration_seconds"`
	Charge          *ChargeResponse      `json:"charge,omitempty"`
	CancelReason    string               `json:"cancel_reason,omitempty"`
}

func toTripRecordResponse(trip *domain.Trip) TripRecordResponse {
	resp := TripRecordResponse{
		TripID:          trip.ID,
		CustomerID:      trip.CustomerID,
		OperatorID:      trip.OperatorID,
		VehicleClass:    string(trip.VehicleClass),
		Status:          string(trip.Status),
		SiteLat:         trip.Site.Lat,
		SiteLng:         trip.Site.Lng,
		TrackPoints:     len(trip.Track),
		DurationSeconds: trip.DurationSeconds,
		CancelReason:    trip.CancelReason,
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

// List handles GET /v1/history
//
// Supported query parameters: status, operator_id, customer_id,
// from (RFC 3339), to (RFC 3339), limit.
func (h *HistoryHandler) List(c *gin.Context) {
	filter := repository.TripFilter{
		Status:     domain.TripStatus(c.Query("status")),
		OperatorID: c.Query("operator_id"),
		CustomerID: c.Query("customer_id"),
	}

	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'from' timestamp"})
			return
		}
		filter.From = from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'to' timestamp"})
			return
		}
		filter.To = to
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'limit'"})
			return
		}
		filter.Limit = limit
	}

	trips, err := h.historyService.List(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	records := make([]TripRecordResponse, 0, len(trips))
	for _, trip := range trips {
		records = append(records, toTripRecordResponse(trip))
	}
	respondJSON(c, http.StatusOK, gin.H{"trips": records, "count": len(records)})
}

// Earnings handles GET /v1/operators/:id/earnings
func (h *HistoryHandler) Earnings(c *gin.Context) {
	var from, to time.Time
	if raw := c.Query("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'from' timestamp"})
			return
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid 'to' timestamp"})
			return
		}
		to = parsed
	}

	earnings, err := h.historyService.Earnings(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, gin.H{
		"operator_id":     earnings.OperatorID,
		"completed_trips": earnings.CompletedTrips,
		"minutes_billed":  earnings.MinutesBilled,
		"base_amount":     earnings.BaseAmount,
		"tax_amount":      earnings.TaxAmount,
		"total_amount":    earnings.TotalAmount,
	})
}
