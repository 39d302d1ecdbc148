// Package models defines session state structures for loan assistant conversations.
package models

import "time"

// Turn is a single message in the conversation transcript.
type Turn struct {
	Role    string    `json:"role"` // "user" or "assistant"
	Content string    `json:"content"`
	Time    time.Time `json:"time"`
}

// CollectedFields holds every datum gathered across the EMI, eligibility and
// contact flows. Zero values mean "not collected yet".
type CollectedFields struct {
	Principal      float64        `json:"principal,omitempty"`
	TenureYears    int            `json:"tenure,omitempty"`
	ROI            float64        `json:"roi,omitempty"`
	Income         float64        `json:"income,omitempty"`
	Expense        float64        `json:"expense,omitempty"`
	ExpenseSet     bool           `json:"expense_set,omitempty"` // zero expense is a legal answer
	EmploymentType EmploymentType `json:"employment_type,omitempty"`
	DOB            string         `json:"dob,omitempty"` // YYYY-MM-DD
	PinCode        string         `json:"pin_code,omitempty"`
	LoanType       LoanType       `json:"loan_type,omitempty"`
	CustomerName   string         `json:"customer_name,omitempty"`
	Phone          string         `json:"phone,omitempty"`
	Email          string         `json:"email,omitempty"`
}

// OTPContext tracks a pending one-time-password verification attempt.
type OTPContext struct {
	Code      string  `json:"code"`
	Mode      OTPMode `json:"mode"`
	IssuedFor string  `json:"issued_for"` // destination email address
}

// EligibilityResult is the outcome of the soft-sanction check.
type EligibilityResult struct {
	Eligible       bool    `json:"eligible"`
	SanctionAmount float64 `json:"sanction_amount"`
	Reason         string  `json:"reason"`
}

// SessionState is the complete per-session conversation state. It is owned by
// exactly one active conversation and mutated once per turn by the flow
// controller, which always returns a fresh copy rather than aliasing its input.
type SessionState struct {
	SessionID       string          `json:"session_id"`
	Flow            Flow            `json:"flow"`
	WaitingFor      Field           `json:"waiting_for,omitempty"`
	LastIntent      Intent          `json:"last_intent,omitempty"`
	Collected       CollectedFields `json:"collected"`
	OTP             *OTPContext     `json:"otp,omitempty"`
	FlowBeforeEmail OTPMode         `json:"flow_before_email,omitempty"` // eligibility|contact, routes post-verification

	EMIResult         *EMIResult         `json:"emi_result,omitempty"`
	EligibilityResult *EligibilityResult `json:"eligibility_result,omitempty"`

	EMIDone              bool `json:"emi_done,omitempty"`
	EligibilityDone      bool `json:"eligibility_done,omitempty"`
	ConversationComplete bool `json:"conversation_complete,omitempty"`
	ShowEMIOnce          bool `json:"show_emi_once,omitempty"`
	ContactDeclinedEMI   bool `json:"contact_declined_emi,omitempty"` // user said no after EMI

	History []Turn `json:"history"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates a fresh session in the initial flow.
func NewSessionState(sessionID string) *SessionState {
	now := time.Now()
	return &SessionState{
		SessionID: sessionID,
		Flow:      FlowInitial,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Clone returns a deep copy of the session state. The flow controller works on
// a clone so the caller's state is never mutated in place.
func (s *SessionState) Clone() *SessionState {
	out := *s
	if s.OTP != nil {
		otp := *s.OTP
		out.OTP = &otp
	}
	if s.EMIResult != nil {
		out.EMIResult = s.EMIResult.Clone()
	}
	if s.EligibilityResult != nil {
		res := *s.EligibilityResult
		out.EligibilityResult = &res
	}
	out.History = make([]Turn, len(s.History))
	copy(out.History, s.History)
	return &out
}

// ClearFinancials removes every collected financial and identity field along
// with results and any pending OTP. Called when an EMI or eligibility flow is
// restarted. Session identity, history and flags for completed conversations
// are preserved.
func (s *SessionState) ClearFinancials() {
	s.Collected = CollectedFields{}
	s.OTP = nil
	s.FlowBeforeEmail = ""
	s.EMIResult = nil
	s.EligibilityResult = nil
	s.EMIDone = false
	s.EligibilityDone = false
	s.ShowEMIOnce = false
	s.ContactDeclinedEMI = false
}

// Reset performs a full state reset: everything is cleared except the session
// id and the turn history, and the session returns to the initial flow.
func (s *SessionState) Reset() {
	id := s.SessionID
	history := s.History
	created := s.CreatedAt
	*s = SessionState{
		SessionID: id,
		Flow:      FlowInitial,
		History:   history,
		CreatedAt: created,
		UpdatedAt: time.Now(),
	}
}

// AppendTurn appends a message to the transcript.
func (s *SessionState) AppendTurn(role, content string) {
	s.History = append(s.History, Turn{Role: role, Content: content, Time: time.Now()})
}
