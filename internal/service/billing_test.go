package service

import (
	"errors"
	"testing"
	"time"
)

func TestComputeCharge(t *testing.T) {
	calc, err := NewBillingCalculator(25, 18)
	if err != nil {
		t.Fatalf("NewBillingCalculator: %v", err)
	}

	start := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		elapsed     time.Duration
		wantMinutes int64
		wantBase    float64
		wantTax     float64
		wantTotal   float64
	}{
		{"partial minute rounds up", 125 * time.Second, 3, 75, 14, 89},
		{"exact minute boundary", 120 * time.Second, 2, 50, 9, 59},
		{"one second past boundary", 121 * time.Second, 3, 75, 14, 89},
		{"zero duration bills one minute", 0, 1, 25, 5, 30},
		{"sub-minute bills one minute", 30 * time.Second, 1, 25, 5, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			charge, err := calc.ComputeCharge(start, start.Add(tt.elapsed))
			if err != nil {
				t.Fatalf("ComputeCharge: %v", err)
			}
			if charge.Minutes != tt.wantMinutes {
				t.Errorf("Minutes = %d, want %d", charge.Minutes, tt.wantMinutes)
			}
			if charge.BaseAmount != tt.wantBase {
				t.Errorf("BaseAmount = %v, want %v", charge.BaseAmount, tt.wantBase)
			}
			if charge.TaxAmount != tt.wantTax {
				t.Errorf("TaxAmount = %v, want %v", charge.TaxAmount, tt.wantTax)
			}
			if charge.TotalAmount != tt.wantTotal {
				t.Errorf("TotalAmount = %v, want %v", charge.TotalAmount, tt.wantTotal)
			}
			if charge.RatePerMinute != 25 || charge.TaxPercent != 18 {
				t.Errorf("tariff not recorded on charge: %+v", charge)
			}
		})
	}
}

func TestComputeChargeClockInversion(t *testing.T) {
	calc, err := NewBillingCalculator(25, 18)
	if err != nil {
		t.Fatalf("NewBillingCalculator: %v", err)
	}

	finish := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	start := finish.Add(time.Second)

	charge, err := calc.ComputeCharge(start, finish)
	if !errors.Is(err, ErrClockInversion) {
		t.Fatalf("err = %v, want ErrClockInversion", err)
	}
	if charge != nil {
		t.Fatalf("charge = %+v, want nil", charge)
	}
}

func TestNewBillingCalculatorRejectsNonPositiveRate(t *testing.T) {
	for _, rate := range []float64{0, -5} {
		if _, err := NewBillingCalculator(rate, 18); !errors.Is(err, ErrInvalidBillingRate) {
			t.Errorf("rate %v: err = %v, want ErrInvalidBillingRate", rate, err)
		}
	}
}
