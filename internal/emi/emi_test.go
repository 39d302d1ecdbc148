package emi

import (
	"errors"
	"math"
	"testing"

	"github.com/credvita/loanassist/internal/models"
)

func TestComputeSchedule_ZeroRate(t *testing.T) {
	res, err := ComputeSchedule(120000, 0, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.MonthlyEMI != 10000 {
		t.Errorf("expected monthly EMI 10000 at zero rate, got %v", res.MonthlyEMI)
	}
	if len(res.Schedule) != 12 {
		t.Errorf("expected 12 rows, got %d", len(res.Schedule))
	}
	if res.TotalInterest != 0 {
		t.Errorf("expected zero total interest, got %v", res.TotalInterest)
	}
}

func TestComputeSchedule_StandardLoan(t *testing.T) {
	res, err := ComputeSchedule(5000000, 8.5, 20)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := len(res.Schedule); got != 240 {
		t.Fatalf("expected 240 schedule rows, got %d", got)
	}

	// Hand-computed annuity: 5000000 * r * (1+r)^240 / ((1+r)^240 - 1), r = 8.5/1200.
	r := 8.5 / 1200
	pow := math.Pow(1+r, 240)
	want := math.Round(5000000*r*pow/(pow-1)*100) / 100
	if res.MonthlyEMI != want {
		t.Errorf("monthly EMI = %v, want %v", res.MonthlyEMI, want)
	}

	// Principal components must sum back to the principal within rounding.
	var sum float64
	for _, row := range res.Schedule {
		sum += row.PrincipalComponent
	}
	if math.Abs(sum-5000000) > 0.01*float64(len(res.Schedule)) {
		t.Errorf("principal components sum to %v, want ~5000000", sum)
	}

	if last := res.Schedule[len(res.Schedule)-1]; last.RemainingPrincipal != 0 {
		t.Errorf("last row remaining = %v, want 0", last.RemainingPrincipal)
	}
}

func TestComputeSchedule_RemainingNeverNegative(t *testing.T) {
	res, err := ComputeSchedule(100000, 12.75, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, row := range res.Schedule {
		if row.RemainingPrincipal < 0 {
			t.Fatalf("month %d remaining principal is negative: %v", row.Month, row.RemainingPrincipal)
		}
		if row.PrincipalComponent < 0 {
			t.Fatalf("month %d principal component is negative: %v", row.Month, row.PrincipalComponent)
		}
	}
}

func TestComputeSchedule_InvalidInputs(t *testing.T) {
	cases := []struct {
		name      string
		principal float64
		rate      float64
		years     int
		want      error
	}{
		{"zero principal", 0, 8.5, 10, models.ErrInvalidPrincipal},
		{"negative principal", -100, 8.5, 10, models.ErrInvalidPrincipal},
		{"NaN principal", math.NaN(), 8.5, 10, models.ErrInvalidPrincipal},
		{"negative rate", 100000, -1, 10, models.ErrInvalidRate},
		{"zero tenure", 100000, 8.5, 0, models.ErrInvalidTenure},
		{"negative tenure", 100000, 8.5, -5, models.ErrInvalidTenure},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ComputeSchedule(tc.principal, tc.rate, tc.years)
			if !errors.Is(err, tc.want) {
				t.Errorf("got error %v, want %v", err, tc.want)
			}
		})
	}
}
