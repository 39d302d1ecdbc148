package models

// ScheduleRow is one month of an amortization schedule.
type ScheduleRow struct {
	Month              int     `json:"month"`
	EMI                float64 `json:"emi"`
	PrincipalComponent float64 `json:"principal_component"`
	InterestComponent  float64 `json:"interest_component"`
	RemainingPrincipal float64 `json:"remaining_principal"`
}

// EMIResult is the full output of the amortization engine.
type EMIResult struct {
	Principal         float64       `json:"principal"`
	AnnualRatePercent float64       `json:"annual_rate_percent"`
	TenureYears       int           `json:"tenure_years"`
	MonthlyEMI        float64       `json:"monthly_emi"`
	TotalInterest     float64       `json:"total_interest"`
	TotalPayment      float64       `json:"total_payment"`
	Schedule          []ScheduleRow `json:"schedule"`
}

// Clone returns a deep copy of the result.
func (r *EMIResult) Clone() *EMIResult {
	out := *r
	out.Schedule = make([]ScheduleRow, len(r.Schedule))
	copy(out.Schedule, r.Schedule)
	return &out
}
