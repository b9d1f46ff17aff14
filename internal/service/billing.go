package service

import (
	"math"
	"time"

	"drainflow/internal/domain"
)

// BillingCalculator turns a service interval into a line-itemized charge.
//
// The rate and tax percent are fixed at construction so every charge a
// calculator produces is priced under the same tariff.
type BillingCalculator struct {
	ratePerMinute float64
	taxPercent    float64
}

// NewBillingCalculator creates a calculator for the given tariff.
func NewBillingCalculator(ratePerMinute, taxPercent float64) (*BillingCalculator, error) {
	if ratePerMinute <= 0 {
		return nil, ErrInvalidBillingRate
	}
	return &BillingCalculator{
		ratePerMinute: ratePerMinute,
		taxPercent:    taxPercent,
	}, nil
}

// ComputeCharge bills the interval [startedAt, finishedAt].
//
// Elapsed time is billed in whole minutes, rounded up, with a one-minute
// floor so that even an instant job is billed. Tax is computed on the
// base amount and rounded to the nearest whole currency unit. A finish
// instant earlier than the start instant returns ErrClockInversion and
// no charge.
func (c *BillingCalculator) ComputeCharge(startedAt, finishedAt time.Time) (*domain.Billing, error) {
	if finishedAt.Before(startedAt) {
		return nil, ErrClockInversion
	}

	seconds := finishedAt.Sub(startedAt).Seconds()
	minutes := int64(math.Ceil(seconds / 60))
	if minutes < 1 {
		minutes = 1
	}

	base := float64(minutes) * c.ratePerMinute
	tax := math.Round(base * c.taxPercent / 100)

	return &domain.Billing{
		RatePerMinute: c.ratePerMinute,
		TaxPercent:    c.taxPercent,
		Minutes:       minutes,
		BaseAmount:    base,
		TaxAmount:     tax,
		TotalAmount:   base + tax,
	}, nil
}
