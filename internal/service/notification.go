package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/lifecycle"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationOperatorAssigned NotificationType = "OPERATOR_ASSIGNED"
	NotificationOperatorEnRoute  NotificationType = "OPERATOR_EN_ROUTE"
	NotificationOperatorArrived  NotificationType = "OPERATOR_ARRIVED"
	NotificationServiceStarted   NotificationType = "SERVICE_STARTED"
	NotificationTripCompleted    NotificationType = "TRIP_COMPLETED"
	NotificationTripCancelled    NotificationType = "TRIP_CANCELLED"
)

// Notification represents a notification to be sent.
type Notification struct {
	ID          string
	Type        NotificationType
	RecipientID string // Customer or Operator ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyOperatorAssigned notifies the customer that an operator is assigned.
func (s *NotificationService) NotifyOperatorAssigned(ctx context.Context, snap lifecycle.Snapshot, operator *domain.Operator) error {
	notification := Notification{
		Type:        NotificationOperatorAssigned,
		RecipientID: snap.CustomerID,
		Title:       "Operator Assigned",
		Message:     fmt.Sprintf("Operator %s is assigned to your cleaning", operator.Name),
		Data: map[string]interface{}{
			"trip_id":       snap.TripID,
			"operator_id":   operator.ID,
			"operator_name": operator.Name,
			"vehicle_class": operator.VehicleClass,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyOperatorArrived notifies the customer that the operator reached the site.
func (s *NotificationService) NotifyOperatorArrived(ctx context.Context, snap lifecycle.Snapshot) error {
	notification := Notification{
		Type:        NotificationOperatorArrived,
		RecipientID: snap.CustomerID,
		Title:       "Operator Arrived",
		Message:     "Your operator has arrived at the site.",
		Data: map[string]interface{}{
			"trip_id": snap.TripID,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripCompleted notifies the customer that the job is done, with the charge.
func (s *NotificationService) NotifyTripCompleted(ctx context.Context, trip *domain.Trip) error {
	var total float64
	if trip.Charge != nil {
		total = trip.Charge.TotalAmount
	}
	notification := Notification{
		Type:        NotificationTripCompleted,
		RecipientID: trip.CustomerID,
		Title:       "Cleaning Completed",
		Message:     fmt.Sprintf("Your drain cleaning is complete. Total charge: %.2f", total),
		Data: map[string]interface{}{
			"trip_id": trip.ID,
			"total":   total,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripCancelled notifies both parties about a cancellation.
func (s *NotificationService) NotifyTripCancelled(ctx context.Context, tripID, customerID, operatorID, reason string) error {
	recipients := []string{customerID}
	if operatorID != "" {
		recipients = append(recipients, operatorID)
	}
	for _, recipientID := range recipients {
		notification := Notification{
			Type:        NotificationTripCancelled,
			RecipientID: recipientID,
			Title:       "Trip Cancelled",
			Message:     "The trip has been cancelled.",
			Data: map[string]interface{}{
				"trip_id": tripID,
				"reason":  reason,
			},
			CreatedAt: time.Now(),
		}
		if err := s.send(ctx, notification); err != nil {
			return err
		}
	}
	return nil
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)
	return nil
}
