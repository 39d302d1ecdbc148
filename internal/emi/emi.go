// Package emi computes equated-monthly-installment amortization schedules.
//
// The engine is a pure function over (principal, annual rate, tenure) and is
// safe to call concurrently across sessions.
package emi

import (
	"fmt"
	"math"

	"github.com/credvita/loanassist/internal/models"
)

// remainingEpsilon is the balance below which the remaining principal is
// clamped to exactly zero to absorb float drift.
const remainingEpsilon = 1e-8

// round2 rounds to two decimal places, matching per-row presentation rounding.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeSchedule computes the monthly installment and the full payment
// schedule for the given principal, annual rate percent and tenure in years.
// Invalid inputs produce an error result, never a panic.
func ComputeSchedule(principal, annualRatePercent float64, tenureYears int) (*models.EMIResult, error) {
	if math.IsNaN(principal) || math.IsInf(principal, 0) || principal <= 0 {
		return nil, models.ErrInvalidPrincipal
	}
	if math.IsNaN(annualRatePercent) || math.IsInf(annualRatePercent, 0) || annualRatePercent < 0 {
		return nil, models.ErrInvalidRate
	}

	n := tenureYears * 12
	if n <= 0 {
		return nil, fmt.Errorf("%w: got %d years", models.ErrInvalidTenure, tenureYears)
	}

	r := annualRatePercent / 100 / 12

	var monthlyEMI float64
	if r == 0 {
		monthlyEMI = principal / float64(n)
	} else {
		pow := math.Pow(1+r, float64(n))
		monthlyEMI = principal * r * pow / (pow - 1)
	}

	schedule := make([]models.ScheduleRow, 0, n)
	remaining := principal
	var totalInterest, totalPayment float64

	for month := 1; month <= n; month++ {
		interest := remaining * r
		principalComponent := monthlyEMI - interest
		payment := monthlyEMI
		// Final-row cap: never pay down more principal than is outstanding.
		if principalComponent > remaining {
			principalComponent = remaining
			payment = principalComponent + interest
		}

		remaining -= principalComponent
		if remaining < remainingEpsilon {
			remaining = 0
		}

		totalInterest += interest
		totalPayment += payment

		schedule = append(schedule, models.ScheduleRow{
			Month:              month,
			EMI:                round2(payment),
			PrincipalComponent: round2(principalComponent),
			InterestComponent:  round2(interest),
			RemainingPrincipal: round2(remaining),
		})
	}

	// Force the last row to a clean zero regardless of accumulated drift.
	schedule[len(schedule)-1].RemainingPrincipal = 0

	return &models.EMIResult{
		Principal:         round2(principal),
		AnnualRatePercent: annualRatePercent,
		TenureYears:       tenureYears,
		MonthlyEMI:        round2(monthlyEMI),
		TotalInterest:     round2(totalInterest),
		TotalPayment:      round2(totalPayment),
		Schedule:          schedule,
	}, nil
}
