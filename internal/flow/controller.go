// Package flow implements the conversation flow controller for the loan
// assistant: a state machine over models.Flow that routes each turn to a
// collection step, a computation engine, or the knowledge oracle.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/credvita/loanassist/internal/emi"
	"github.com/credvita/loanassist/internal/models"
	"github.com/credvita/loanassist/internal/numparse"
	"github.com/credvita/loanassist/internal/otp"
	"github.com/credvita/loanassist/internal/sanction"
)

// gratitudePhrases close the conversation when present anywhere in the turn.
var gratitudePhrases = []string{"thank you", "thanks", "ok thank you", "okay thank you", "thankyou", "thx"}

// emiTriggers escape from the knowledge flow straight into EMI collection.
var emiTriggers = []string{"emi", "calculate emi", "check my emi", "emi calculation"}

// Controller is the top-level conversation state machine. It is stateless
// itself; all per-conversation state travels in models.SessionState. Step
// never mutates its input state.
type Controller struct {
	intents    IntentClassifier
	fields     FieldClassifier
	knowledge  KnowledgeOracle
	answers    AnswerGenerator
	otpManager *otp.Manager
	now        func() time.Time
}

// NewController creates a flow controller with its collaborators. Any oracle
// may be nil; the controller then runs entirely on deterministic fallbacks.
func NewController(intents IntentClassifier, fields FieldClassifier, knowledge KnowledgeOracle, answers AnswerGenerator, otpManager *otp.Manager) *Controller {
	slog.Debug("flow.NewController: creating controller",
		"hasIntentClassifier", intents != nil,
		"hasFieldClassifier", fields != nil,
		"hasKnowledgeOracle", knowledge != nil,
		"hasAnswerGenerator", answers != nil,
		"hasOTPManager", otpManager != nil)
	return &Controller{
		intents:    intents,
		fields:     fields,
		knowledge:  knowledge,
		answers:    answers,
		otpManager: otpManager,
		now:        time.Now,
	}
}

// SetClock overrides the controller clock, for tests that pin ages.
func (c *Controller) SetClock(now func() time.Time) {
	c.now = now
}

// Step resolves one conversation turn: it classifies the utterance, routes it
// through the current flow, and returns the reply together with a fresh state.
// The caller's state is never aliased or mutated.
func (c *Controller) Step(ctx context.Context, text string, state *models.SessionState) (string, *models.SessionState) {
	st := state.Clone()
	st.UpdatedAt = c.now()

	q := strings.TrimSpace(text)
	lower := strings.ToLower(q)

	// Gratitude closes the conversation from any flow without altering it.
	for _, phrase := range gratitudePhrases {
		if strings.Contains(lower, phrase) {
			st.ConversationComplete = true
			slog.Info("Controller.Step: conversation marked complete", "sessionID", st.SessionID)
			return replyWelcomeBack, st
		}
	}

	intent := c.detectIntentSafe(ctx, q, st.History)
	st.LastIntent = intent
	slog.Debug("Controller.Step: routing turn", "sessionID", st.SessionID, "flow", st.Flow, "waitingFor", st.WaitingFor, "intent", intent)

	var reply string
	switch st.Flow {
	case models.FlowInitial:
		reply = c.handleInitial(ctx, intent, st)
	case models.FlowCollectingEMI:
		reply = c.handleEMIFlow(ctx, q, st)
	case models.FlowPostEMI:
		reply = c.handlePostEMI(ctx, q, intent, st)
	case models.FlowCollectingEligibility:
		reply = c.handleEligibilityFlow(ctx, q, st)
	case models.FlowCollectingName:
		reply = c.handleCollectName(ctx, q, st)
	case models.FlowCollectingPhone:
		reply = c.handleCollectPhone(q, st)
	case models.FlowCollectingEmail:
		reply = c.handleCollectEmail(ctx, q, st)
	case models.FlowCollectingOTP:
		reply = c.handleCollectOTP(ctx, q, st)
	case models.FlowPostFlowInfo:
		reply = c.handlePostFlowInfo(q, intent, st)
	case models.FlowKnowledge:
		reply = c.handleKnowledge(ctx, q, lower, intent, st)
	default:
		// State corruption: reset everything except identity and history.
		slog.Error("Controller.Step: unrecognized flow, resetting session", "sessionID", st.SessionID, "flow", st.Flow)
		st.Reset()
		reply = replyConfusedReset
	}

	return reply, st
}

// handleInitial routes the very first classified intent of a conversation.
func (c *Controller) handleInitial(ctx context.Context, intent models.Intent, st *models.SessionState) string {
	switch intent {
	case models.IntentStartEMI:
		st.ClearFinancials()
		st.Flow = models.FlowCollectingEMI
		st.WaitingFor = models.FieldPrincipal
		return replyAskPrincipal
	case models.IntentStartEligibility:
		st.ClearFinancials()
		st.Flow = models.FlowCollectingEligibility
		st.WaitingFor = models.FieldIncome
		return replyAskIncome
	case models.IntentAskRAG:
		st.Flow = models.FlowKnowledge
		st.WaitingFor = models.FieldNone
		return c.answerWithOracle(ctx, "") + "\n\n" + replyEMIInvite
	case models.IntentGreeting:
		return replyGreeting
	default:
		return replyNotUnderstood
	}
}

// handleKnowledge answers policy questions, but first re-checks the raw text
// for EMI/eligibility triggers so either flow can be entered from anywhere.
func (c *Controller) handleKnowledge(ctx context.Context, q, lower string, intent models.Intent, st *models.SessionState) string {
	if intent == models.IntentStartEMI || containsAny(lower, emiTriggers) {
		st.ClearFinancials()
		st.Flow = models.FlowCollectingEMI
		st.WaitingFor = models.FieldPrincipal
		return replyAskPrincipalAlt
	}
	if intent == models.IntentStartEligibility || strings.Contains(lower, "eligib") {
		st.ClearFinancials()
		st.Flow = models.FlowCollectingEligibility
		st.WaitingFor = models.FieldIncome
		return replyAskIncomeEscape
	}
	return c.answerWithOracle(ctx, q) + "\n\n" + replyEMIInvite
}

// handleEMIFlow collects principal, tenure and rate in order and runs the
// amortization engine on the final field.
func (c *Controller) handleEMIFlow(ctx context.Context, q string, st *models.SessionState) string {
	switch st.WaitingFor {
	case models.FieldPrincipal:
		if c.classifyFieldSafe(ctx, q, models.FieldPrincipal) == models.ClassificationValue {
			value, ok := numparse.Parse(q)
			if ok && value > 0 {
				st.Collected.Principal = value
				st.WaitingFor = models.FieldTenure
				return replyAskTenure
			}
			return replyInvalidPrincipal
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide the principal amount."

	case models.FieldTenure:
		if c.classifyFieldSafe(ctx, q, models.FieldTenure) == models.ClassificationValue {
			value, ok := numparse.Parse(q)
			if ok && value >= 1 && value <= 30 {
				st.Collected.TenureYears = int(value)
				st.WaitingFor = models.FieldROI
				return replyAskROI
			}
			return replyInvalidTenure
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide the tenure."

	case models.FieldROI:
		if c.classifyFieldSafe(ctx, q, models.FieldROI) == models.ClassificationValue {
			value, ok := numparse.Parse(q)
			if ok && value > 0 {
				st.Collected.ROI = value
				return c.finishEMI(st)
			}
			return replyInvalidROI
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide the ROI."

	default:
		st.WaitingFor = models.FieldPrincipal
		return replyRestartEMI
	}
}

// finishEMI runs the amortization engine and presents the summary. The full
// schedule is attached by the caller only on this turn (show-once flag).
func (c *Controller) finishEMI(st *models.SessionState) string {
	result, err := emi.ComputeSchedule(st.Collected.Principal, st.Collected.ROI, st.Collected.TenureYears)
	if err != nil {
		// Validated inputs should not get here; report and restart rather
		// than crash the conversation.
		slog.Error("Controller.finishEMI: engine rejected inputs", "sessionID", st.SessionID, "error", err)
		st.WaitingFor = models.FieldPrincipal
		return replyEMIFailed
	}

	st.EMIResult = result
	st.EMIDone = true
	st.ShowEMIOnce = true
	st.Flow = models.FlowPostEMI
	st.WaitingFor = models.FieldNone
	slog.Info("Controller.finishEMI: EMI computed", "sessionID", st.SessionID, "monthlyEMI", result.MonthlyEMI, "months", len(result.Schedule))

	return fmt.Sprintf(
		"### ✅ EMI Calculation Complete\n"+
			"**Monthly EMI:** ₹%s\n"+
			"**Total Interest:** ₹%s\n"+
			"**Total Payment:** ₹%s\n\n"+
			"**Would you like to check your eligibility? (Yes/No)**",
		numparse.FormatIndian(result.MonthlyEMI),
		numparse.FormatIndian(result.TotalInterest),
		numparse.FormatIndian(result.TotalPayment))
}

// handlePostEMI gates on a yes/no after the EMI summary. Any other question
// is answered via the oracle while staying in post_emi.
func (c *Controller) handlePostEMI(ctx context.Context, q string, intent models.Intent, st *models.SessionState) string {
	switch intent {
	case models.IntentAffirmative:
		st.Flow = models.FlowCollectingEligibility
		st.WaitingFor = models.FieldIncome
		return replyAskIncomeShort
	case models.IntentNegative:
		st.ContactDeclinedEMI = true
		st.Flow = models.FlowPostFlowInfo
		st.WaitingFor = models.FieldInfoDecision
		return replyAskContact
	default:
		return c.answerWithOracle(ctx, q) + "\n\n" + replyAskYesNo
	}
}

// handleEligibilityFlow walks the ordered eligibility field sequence. Name,
// phone and email continue in the shared identity sub-flow.
func (c *Controller) handleEligibilityFlow(ctx context.Context, q string, st *models.SessionState) string {
	switch st.WaitingFor {
	case models.FieldIncome:
		if c.classifyFieldSafe(ctx, q, models.FieldIncome) == models.ClassificationValue {
			value, ok := numparse.Parse(q)
			if ok && value > 0 {
				st.Collected.Income = value
				st.WaitingFor = models.FieldExpense
				return replyAskExpense
			}
			return replyInvalidIncome
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide your Monthly Income."

	case models.FieldExpense:
		if c.classifyFieldSafe(ctx, q, models.FieldExpense) == models.ClassificationValue {
			value, ok := numparse.Parse(q)
			if !ok && zeroExpensePhrases[strings.ToLower(strings.TrimSpace(q))] {
				value, ok = 0, true
			}
			if ok && value >= 0 {
				st.Collected.Expense = value
				st.Collected.ExpenseSet = true
				st.WaitingFor = models.FieldEmploymentType
				return replyAskEmployment
			}
			return replyInvalidExpense
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide your Monthly Expenses."

	case models.FieldEmploymentType:
		if et, ok := parseEmploymentType(q); ok {
			st.Collected.EmploymentType = et
			st.WaitingFor = models.FieldDOB
			return replyAskDOB
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease specify Salaried or Self-Employed."

	case models.FieldDOB:
		if validDOB(q) {
			st.Collected.DOB = strings.TrimSpace(q)
			st.WaitingFor = models.FieldPinCode
			return replyAskPinCode
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide DOB in YYYY-MM-DD format."

	case models.FieldPinCode:
		if validPinCode(q) {
			st.Collected.PinCode = strings.TrimSpace(q)
			st.WaitingFor = models.FieldLoanType
			return replyAskLoanType
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease provide a 6-digit pincode."

	case models.FieldLoanType:
		if lt, ok := parseLoanType(q); ok {
			st.Collected.LoanType = lt
			st.FlowBeforeEmail = models.OTPModeEligibility
			st.WaitingFor = models.FieldName
			return replyAskName
		}
		return c.answerWithOracle(ctx, q) + "\n\nPlease specify Fresh Loan or Balance Transfer."

	case models.FieldName:
		return c.handleCollectName(ctx, q, st)

	default:
		st.WaitingFor = models.FieldIncome
		return "Sorry, let's restart eligibility. " + replyAskIncomeShort
	}
}

// handleCollectName collects a two-token full name. When name and phone are
// already present the step is idempotent and skips straight to email.
func (c *Controller) handleCollectName(ctx context.Context, q string, st *models.SessionState) string {
	if st.Collected.CustomerName != "" && st.Collected.Phone != "" {
		st.Flow = models.FlowCollectingEmail
		st.WaitingFor = models.FieldEmail
		return replyAskEmail
	}

	if isQuestion(q) {
		return c.answerWithOracle(ctx, q) + "\n\n" + replyInvalidName
	}

	if name, ok := parseFullName(q); ok {
		st.Collected.CustomerName = name
		st.Flow = models.FlowCollectingPhone
		st.WaitingFor = models.FieldPhone
		return replyAskPhone
	}
	return replyInvalidName
}

// handleCollectPhone validates a 10-digit mobile number.
func (c *Controller) handleCollectPhone(q string, st *models.SessionState) string {
	if !validPhone(q) {
		return replyInvalidPhone
	}
	st.Collected.Phone = strings.TrimSpace(q)
	if st.FlowBeforeEmail == "" {
		st.FlowBeforeEmail = models.OTPModeContact
	}
	st.Flow = models.FlowCollectingEmail
	st.WaitingFor = models.FieldEmail
	return replyAskEmail
}

// handleCollectEmail validates the address, issues an OTP tagged with the
// parent flow, and moves to verification. Transport failures never block.
func (c *Controller) handleCollectEmail(ctx context.Context, q string, st *models.SessionState) string {
	email := strings.ToLower(strings.TrimSpace(q))
	if !validEmail(email) {
		return replyInvalidEmail
	}
	st.Collected.Email = email

	mode := models.OTPModeContact
	if st.FlowBeforeEmail == models.OTPModeEligibility {
		mode = models.OTPModeEligibility
	}

	otpCtx, delivered := c.otpManager.Issue(ctx, email, mode)
	if !delivered {
		slog.Warn("Controller.handleCollectEmail: OTP dispatch not confirmed", "sessionID", st.SessionID, "email", email)
	}
	st.OTP = otpCtx
	st.Flow = models.FlowCollectingOTP
	st.WaitingFor = models.FieldOTP
	return fmt.Sprintf("OTP sent to **%s**. Please enter the 6-digit OTP.", email)
}

// handleCollectOTP verifies the submitted code. A missing pending code is a
// corruption guard that restarts email collection.
func (c *Controller) handleCollectOTP(ctx context.Context, q string, st *models.SessionState) string {
	err := c.otpManager.Verify(q, st.OTP)
	switch {
	case err == nil:
		// verified below
	case errors.Is(err, models.ErrOTPMissing):
		st.Flow = models.FlowCollectingEmail
		st.WaitingFor = models.FieldEmail
		return replyOTPMissing
	default:
		return replyOTPIncorrect
	}

	mode := st.OTP.Mode
	st.OTP = nil
	st.FlowBeforeEmail = ""

	if mode == models.OTPModeEligibility {
		result := sanction.Evaluate(sanction.Input{
			Income:         st.Collected.Income,
			Expense:        st.Collected.Expense,
			EmploymentType: st.Collected.EmploymentType,
			DOB:            st.Collected.DOB,
		}, c.now())
		st.EligibilityResult = &result
		st.EligibilityDone = true
		st.Flow = models.FlowPostFlowInfo
		st.WaitingFor = models.FieldInfoDecision
		slog.Info("Controller.handleCollectOTP: eligibility evaluated", "sessionID", st.SessionID, "eligible", result.Eligible, "sanction", result.SanctionAmount)

		if result.Eligible {
			return fmt.Sprintf("🎉 **Eligibility Verified!**\nSoft sanction: **₹%s**.\n\nWould you like our representative to contact you?",
				numparse.FormatIndian(result.SanctionAmount))
		}
		return fmt.Sprintf("Eligibility verified, but the sanction amount is low.\nReason: %s\n\nWould you like a representative to contact you?", result.Reason)
	}

	st.Flow = models.FlowKnowledge
	st.WaitingFor = models.FieldNone
	return replyContactVerified
}

// handlePostFlowInfo resolves the contact-request decision, falling back to
// literal yes/no when the classifier was unsure.
func (c *Controller) handlePostFlowInfo(q string, intent models.Intent, st *models.SessionState) string {
	lower := strings.ToLower(strings.TrimSpace(q))
	switch {
	case intent == models.IntentAffirmative || lower == "yes" || lower == "y" || lower == "sure":
		st.Flow = models.FlowCollectingName
		st.WaitingFor = models.FieldName
		return replyAskNameContact
	case intent == models.IntentNegative || lower == "no" || lower == "n":
		st.Flow = models.FlowKnowledge
		st.WaitingFor = models.FieldNone
		return replyAnythingElse
	default:
		return replyReplyYesNo
	}
}

// answerWithOracle retrieves policy context and generates a grounded answer.
// Oracle trouble degrades to a fixed apology; it never aborts the turn.
func (c *Controller) answerWithOracle(ctx context.Context, query string) string {
	contextText := "No policy context is available right now."
	if c.knowledge != nil {
		contextText = c.knowledge.RetrieveContext(ctx, query)
	}
	if c.answers == nil {
		return replyOracleDown
	}
	answer, err := c.answers.GenerateAnswer(ctx, query, contextText)
	if err != nil || strings.TrimSpace(answer) == "" {
		slog.Warn("Controller.answerWithOracle: answer generation failed", "error", err)
		return replyOracleDown
	}
	return answer
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
