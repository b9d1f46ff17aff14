package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"drainflow/internal/domain"
	"drainflow/internal/service"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingService *service.BookingService
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingService *service.BookingService) *BookingHandler {
	return &BookingHandler{bookingService: bookingService}
}

// CreateBookingRequest is the HTTP request body for creating a booking.
type CreateBookingRequest struct {
	CustomerID   string  `json:"customer_id"`
	SiteLat      float64 `json:"site_lat"`
	SiteLng      float64 `json:"site_lng"`
	VehicleClass string  `json:"vehicle_class,omitempty"` // JETTER_VAN, SUCTION_TRUCK
}

// CreateBookingResponse is the HTTP response for creating a booking.
type CreateBookingResponse struct {
	TripID           string  `json:"trip_id"`
	CustomerID       string  `json:"customer_id"`
	SiteLat          float64 `json:"site_lat"`
	SiteLng          float64 `json:"site_lng"`
	Status           string  `json:"status"`
	OperatorAssigned bool    `json:"operator_assigned"`
	OperatorID       string  `json:"operator_id,omitempty"`
}

// CreateBooking handles POST /v1/bookings
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.bookingService.CreateBooking(c.Request.Context(), service.CreateBookingRequest{
		CustomerID:   req.CustomerID,
		Site:         domain.Coordinate{Lat: req.SiteLat, Lng: req.SiteLng},
		VehicleClass: domain.VehicleClass(req.VehicleClass),
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateBookingResponse{
		TripID:           result.Trip.TripID,
		CustomerID:       result.Trip.CustomerID,
		SiteLat:          result.Trip.Site.Lat,
		SiteLng:          result.Trip.Site.Lng,
		Status:           string(result.Trip.Status),
		OperatorAssigned: result.OperatorAssigned,
		OperatorID:       result.OperatorID,
	})
}
