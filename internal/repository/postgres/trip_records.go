package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"drainflow/internal/domain"
	"drainflow/internal/repository"
)

// TripRecordStore is a PostgreSQL implementation of repository.TripRecordStore.
//
// The trip_records table is append-only: the store issues INSERT and
// SELECT statements only, and history is never updated or deleted.
type TripRecordStore struct {
	q Querier
}

// NewTripRecordStore creates a new PostgreSQL trip record store.
func NewTripRecordStore(db *sql.DB) *TripRecordStore {
	return &TripRecordStore{q: db}
}

// NewTripRecordStoreWithTx creates a trip record store using a transaction.
func NewTripRecordStoreWithTx(tx *sql.Tx) *TripRecordStore {
	return &TripRecordStore{q: tx}
}

// trackPoint is the JSONB shape of one position sample.
type trackPoint struct {
	Lat        float64   `json:"lat"`
	Lng        float64   `json:"lng"`
	CapturedAt time.Time `json:"captured_at"`
}

// Append persists a terminal trip record. Trips that are not COMPLETED
// or CANCELLED are rejected with repository.ErrNotTerminal.
func (s *TripRecordStore) Append(ctx context.Context, trip *domain.Trip) error {
	if !trip.Status.IsTerminal() {
		return repository.ErrNotTerminal
	}

	track := make([]trackPoint, 0, len(trip.Track))
	for _, p := range trip.Track {
		track = append(track, trackPoint{
			Lat:        p.Coordinate.Lat,
			Lng:        p.Coordinate.Lng,
			CapturedAt: p.CapturedAt,
		})
	}
	trackJSON, err := json.Marshal(track)
	if err != nil {
		return fmt.Errorf("marshal track: %w", err)
	}

	timestamps := make(map[string]time.Time, len(trip.Timestamps))
	for status, at := range trip.Timestamps {
		timestamps[string(status)] = at
	}
	timestampsJSON, err := json.Marshal(timestamps)
	if err != nil {
		return fmt.Errorf("marshal timestamps: %w", err)
	}

	var rate, taxPct, base, tax, total sql.NullFloat64
	var minutes sql.NullInt64
	if trip.Charge != nil {
		rate = sql.NullFloat64{Float64: trip.Charge.RatePerMinute, Valid: true}
		taxPct = sql.NullFloat64{Float64: trip.Charge.TaxPercent, Valid: true}
		minutes = sql.NullInt64{Int64: trip.Charge.Minutes, Valid: true}
		base = sql.NullFloat64{Float64: trip.Charge.BaseAmount, Valid: true}
		tax = sql.NullFloat64{Float64: trip.Charge.TaxAmount, Valid: true}
		total = sql.NullFloat64{Float64: trip.Charge.TotalAmount, Valid: true}
	}

	query := `
		INSERT INTO trip_records (
			id, customer_id, operator_id, vehicle_class, status,
			site_lat, site_lng, track, timestamps, duration_seconds,
			rate_per_minute, tax_percent, minutes, base_amount, tax_amount, total_amount,
			cancel_reason, created_at, finished_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`

	_, err = s.q.ExecContext(ctx, query,
		trip.ID,
		trip.CustomerID,
		trip.OperatorID,
		trip.VehicleClass,
		trip.Status,
		trip.Site.Lat,
		trip.Site.Lng,
		trackJSON,
		timestampsJSON,
		trip.DurationSeconds,
		rate,
		taxPct,
		minutes,
		base,
		tax,
		total,
		trip.CancelReason,
		trip.CreatedAt,
		trip.EnteredAt(trip.Status),
	)

	return err
}

const defaultListLimit = 100

// List retrieves terminal trip records matching the filter, newest first
// by the instant the trip finished.
func (s *TripRecordStore) List(ctx context.Context, filter repository.TripFilter) ([]*domain.Trip, error) {
	query := `
		SELECT id, customer_id, operator_id, vehicle_class, status,
		       site_lat, site_lng, track, timestamps, duration_seconds,
		       rate_per_minute, tax_percent, minutes, base_amount, tax_amount, total_amount,
		       COALESCE(cancel_reason, ''), created_at
		FROM trip_records
	`

	var conditions []string
	var args []any
	addCondition := func(clause string, arg any) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Status != "" {
		addCondition("status = $%d", filter.Status)
	}
	if filter.OperatorID != "" {
		addCondition("operator_id = $%d", filter.OperatorID)
	}
	if filter.CustomerID != "" {
		addCondition("customer_id = $%d", filter.CustomerID)
	}
	if !filter.From.IsZero() {
		addCondition("finished_at >= $%d", filter.From)
	}
	if !filter.To.IsZero() {
		addCondition("finished_at <= $%d", filter.To)
	}

	for i, condition := range conditions {
		if i == 0 {
			query += " WHERE " + condition
		} else {
			query += " AND " + condition
		}
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY finished_at DESC LIMIT $%d", len(args))

	rows, err := s.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var trips []*domain.Trip
	for rows.Next() {
		trip, err := scanTripRecord(rows)
		if err != nil {
			return nil, err
		}
		trips = append(trips, trip)
	}
	return trips, rows.Err()
}

func scanTripRecord(rows *sql.Rows) (*domain.Trip, error) {
	var trip domain.Trip
	var trackJSON, timestampsJSON []byte
	var rate, taxPct, base, tax, total sql.NullFloat64
	var minutes sql.NullInt64

	if err := rows.Scan(
		&trip.ID,
		&trip.CustomerID,
		&trip.OperatorID,
		&trip.VehicleClass,
		&trip.Status,
		&trip.Site.Lat,
		&trip.Site.Lng,
		&trackJSON,
		&timestampsJSON,
		&trip.DurationSeconds,
		&rate,
		&taxPct,
		&minutes,
		&base,
		&tax,
		&total,
		&trip.CancelReason,
		&trip.CreatedAt,
	); err != nil {
		return nil, err
	}

	var track []trackPoint
	if err := json.Unmarshal(trackJSON, &track); err != nil {
		return nil, fmt.Errorf("unmarshal track: %w", err)
	}
	trip.Track = make([]domain.PositionSample, 0, len(track))
	for _, p := range track {
		trip.Track = append(trip.Track, domain.PositionSample{
			Coordinate: domain.Coordinate{Lat: p.Lat, Lng: p.Lng},
			CapturedAt: p.CapturedAt,
		})
	}

	var timestamps map[string]time.Time
	if err := json.Unmarshal(timestampsJSON, &timestamps); err != nil {
		return nil, fmt.Errorf("unmarshal timestamps: %w", err)
	}
	trip.Timestamps = make(map[domain.TripStatus]time.Time, len(timestamps))
	for status, at := range timestamps {
		trip.Timestamps[domain.TripStatus(status)] = at
	}

	if rate.Valid {
		trip.Charge = &domain.Billing{
			RatePerMinute: rate.Float64,
			TaxPercent:    taxPct.Float64,
			Minutes:       minutes.Int64,
			BaseAmount:    base.Float64,
			TaxAmount:     tax.Float64,
			TotalAmount:   total.Float64,
		}
	}

	return &trip, nil
}

var _ repository.TripRecordStore = (*TripRecordStore)(nil)
