// Package models defines flow type definitions to avoid circular imports.
package models

// Flow represents a top-level conversation flow the session is currently in.
type Flow string

// Flow constants for the loan assistant conversation.
const (
	FlowInitial               Flow = "initial"
	FlowCollectingEMI         Flow = "collecting_emi"
	FlowPostEMI               Flow = "post_emi"
	FlowCollectingEligibility Flow = "collecting_eligibility"
	FlowCollectingName        Flow = "collecting_name"
	FlowCollectingPhone       Flow = "collecting_phone"
	FlowCollectingEmail       Flow = "collecting_email"
	FlowCollectingOTP         Flow = "collecting_otp"
	FlowPostFlowInfo          Flow = "post_flow_info"
	FlowKnowledge             Flow = "knowledge"
)

// IsValidFlow reports whether f is one of the known conversation flows.
func IsValidFlow(f Flow) bool {
	switch f {
	case FlowInitial, FlowCollectingEMI, FlowPostEMI, FlowCollectingEligibility,
		FlowCollectingName, FlowCollectingPhone, FlowCollectingEmail,
		FlowCollectingOTP, FlowPostFlowInfo, FlowKnowledge:
		return true
	default:
		return false
	}
}

// Field identifies the specific datum being collected within a flow.
type Field string

// Field constants, in collection order per flow.
const (
	FieldNone           Field = ""
	FieldPrincipal      Field = "principal"
	FieldTenure         Field = "tenure"
	FieldROI            Field = "roi"
	FieldIncome         Field = "income"
	FieldExpense        Field = "expense"
	FieldEmploymentType Field = "employment_type"
	FieldDOB            Field = "dob"
	FieldPinCode        Field = "pin_code"
	FieldLoanType       Field = "loan_type"
	FieldName           Field = "name"
	FieldPhone          Field = "phone"
	FieldEmail          Field = "email"
	FieldOTP            Field = "otp"
	FieldInfoDecision   Field = "info_decision"
)

// Intent is the coarse category returned by the external intent classifier.
type Intent string

// Intent constants. IntentAskRAG is the fail-open default.
const (
	IntentStartEMI         Intent = "start_emi"
	IntentStartEligibility Intent = "start_eligibility"
	IntentAskRAG           Intent = "ask_rag"
	IntentGreeting         Intent = "greeting"
	IntentAffirmative      Intent = "affirmative"
	IntentNegative         Intent = "negative"
	IntentUnknown          Intent = "unknown"
)

// Classification is the per-field verdict on a user utterance.
type Classification string

const (
	// ClassificationValue means the utterance is the awaited field value.
	ClassificationValue Classification = "value"
	// ClassificationOther means the utterance is a question or unrelated text.
	ClassificationOther Classification = "other"
)

// OTPMode tags which parent flow requested identity verification.
type OTPMode string

const (
	OTPModeEligibility OTPMode = "eligibility"
	OTPModeContact     OTPMode = "contact"
)

// EmploymentType is the declared employment category of the applicant.
type EmploymentType string

const (
	EmploymentSalaried     EmploymentType = "Salaried"
	EmploymentSelfEmployed EmploymentType = "Self-Employed"
)

// LoanType distinguishes a new loan from a balance transfer.
type LoanType string

const (
	LoanTypeFresh           LoanType = "Fresh"
	LoanTypeBalanceTransfer LoanType = "Balance Transfer"
)
