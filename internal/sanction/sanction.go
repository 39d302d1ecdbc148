// Package sanction reverse-solves the maximum loan principal a customer can
// service under a FOIR income-capacity constraint and an age-bounded tenure.
//
// The engine is pure and deterministic; the clock is injected so tests can
// pin the applicant's age.
package sanction

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/credvita/loanassist/internal/models"
)

// Policy constants used by the soft-sanction check.
const (
	// AnnualRatePercent is the fixed reference rate for capacity calculations.
	AnnualRatePercent = 8.5
	// FOIRSalaried is the fixed-obligation-to-income ratio for salaried applicants.
	FOIRSalaried = 0.50
	// FOIROther is the ratio for self-employed and all other applicants.
	FOIROther = 0.40
	// RetirementAge bounds the repayment horizon.
	RetirementAge = 60
	// MaxTenureYears caps the repayment horizon.
	MaxTenureYears = 30
	// MinEligibleAmount is the sanction floor below which the application is
	// reported as ineligible.
	MinEligibleAmount = 500000
)

// Input carries the collected eligibility fields.
type Input struct {
	Income         float64
	Expense        float64
	EmploymentType models.EmploymentType
	DOB            string // YYYY-MM-DD
}

// ComputeSoftSanction returns the maximum principal supportable by the
// applicant's net monthly income. A zero return means no sanction is possible
// (non-positive net income or no remaining tenure before retirement).
func ComputeSoftSanction(in Input, now time.Time) float64 {
	birthYear := parseBirthYear(in.DOB)
	if birthYear == 0 {
		return 0
	}
	age := now.Year() - birthYear

	maxTenure := RetirementAge - age
	if maxTenure > MaxTenureYears {
		maxTenure = MaxTenureYears
	}
	if maxTenure < 1 {
		return 0
	}

	nmi := in.Income - in.Expense
	if nmi <= 0 {
		return 0
	}

	foir := FOIROther
	if in.EmploymentType == models.EmploymentSalaried {
		foir = FOIRSalaried
	}
	capacity := nmi * foir

	r := AnnualRatePercent / 100 / 12
	n := float64(maxTenure * 12)
	pow := math.Pow(1+r, n)

	principal := capacity * (pow - 1) / (r * pow)
	return math.Round(principal*100) / 100
}

// Evaluate runs the soft-sanction check and classifies the result against the
// eligibility floor, producing the user-facing reason string.
func Evaluate(in Input, now time.Time) models.EligibilityResult {
	amount := ComputeSoftSanction(in, now)
	if amount >= MinEligibleAmount {
		return models.EligibilityResult{
			Eligible:       true,
			SanctionAmount: amount,
			Reason:         "Based on FOIR and EMI capacity.",
		}
	}
	return models.EligibilityResult{
		Eligible:       false,
		SanctionAmount: amount,
		Reason:         "Income and FOIR allow only a low sanction amount.",
	}
}

// parseBirthYear extracts the year from a YYYY-MM-DD date of birth.
// Returns 0 when the date is malformed.
func parseBirthYear(dob string) int {
	parts := strings.SplitN(dob, "-", 2)
	if len(parts) == 0 {
		return 0
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year <= 0 {
		return 0
	}
	return year
}
