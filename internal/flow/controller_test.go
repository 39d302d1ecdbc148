package flow

import (
	"context"
	"strings"
	"testing"

	"github.com/credvita/loanassist/internal/models"
)

func TestStepGratitudeCompletesWithoutFlowChange(t *testing.T) {
	c, _ := newTestController(nil)
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingEMI
	st.WaitingFor = models.FieldTenure

	reply, next := c.Step(context.Background(), "ok thank you!", st)

	if reply != replyWelcomeBack {
		t.Errorf("expected welcome-back reply, got %q", reply)
	}
	if !next.ConversationComplete {
		t.Error("expected ConversationComplete to be set")
	}
	if next.Flow != models.FlowCollectingEMI || next.WaitingFor != models.FieldTenure {
		t.Errorf("gratitude must not alter the flow, got flow=%s waiting=%s", next.Flow, next.WaitingFor)
	}
}

func TestStepNeverMutatesInputState(t *testing.T) {
	intents := &fakeIntents{byText: map[string]models.Intent{"calculate my emi": models.IntentStartEMI}}
	c, _ := newTestController(intents)
	st := models.NewSessionState("s1")

	_, next := c.Step(context.Background(), "calculate my emi", st)

	if st.Flow != models.FlowInitial || st.WaitingFor != models.FieldNone {
		t.Errorf("input state was mutated: flow=%s waiting=%s", st.Flow, st.WaitingFor)
	}
	if next == st {
		t.Error("Step must return a fresh state, not the input")
	}
}

func TestStepInitialRoutesEMIIntent(t *testing.T) {
	intents := &fakeIntents{byText: map[string]models.Intent{"calculate my emi": models.IntentStartEMI}}
	c, _ := newTestController(intents)

	reply, next := c.Step(context.Background(), "calculate my emi", models.NewSessionState("s1"))

	if next.Flow != models.FlowCollectingEMI || next.WaitingFor != models.FieldPrincipal {
		t.Fatalf("expected collecting_emi/principal, got %s/%s", next.Flow, next.WaitingFor)
	}
	if reply != replyAskPrincipal {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestStepIntentFailureFailsOpenToKnowledge(t *testing.T) {
	intents := &fakeIntents{err: context.DeadlineExceeded, byText: map[string]models.Intent{}}
	c, _ := newTestController(intents)

	reply, next := c.Step(context.Background(), "what are your interest rates?", models.NewSessionState("s1"))

	if next.Flow != models.FlowKnowledge {
		t.Fatalf("expected knowledge flow on classifier failure, got %s", next.Flow)
	}
	if !strings.Contains(reply, "policy answer") {
		t.Errorf("expected oracle answer in reply, got %q", reply)
	}
	if !strings.Contains(reply, replyEMIInvite) {
		t.Errorf("expected EMI invite appended, got %q", reply)
	}
}

func TestStepKnowledgeEscapesToEMIOnKeyword(t *testing.T) {
	c, _ := newTestController(&fakeIntents{deflt: models.IntentAskRAG})
	st := models.NewSessionState("s1")
	st.Flow = models.FlowKnowledge

	_, next := c.Step(context.Background(), "I want to check my emi", st)

	if next.Flow != models.FlowCollectingEMI || next.WaitingFor != models.FieldPrincipal {
		t.Fatalf("expected EMI escape from knowledge flow, got %s/%s", next.Flow, next.WaitingFor)
	}
}

// driveTurns feeds utterances in order and returns the final reply and state.
func driveTurns(t *testing.T, c *Controller, st *models.SessionState, turns ...string) (string, *models.SessionState) {
	t.Helper()
	var reply string
	for _, turn := range turns {
		reply, st = c.Step(context.Background(), turn, st)
	}
	return reply, st
}

func TestStepEMIFlowHappyPath(t *testing.T) {
	intents := &fakeIntents{byText: map[string]models.Intent{"emi please": models.IntentStartEMI}}
	c, _ := newTestController(intents)

	reply, st := driveTurns(t, c, models.NewSessionState("s1"),
		"emi please", "50 lakhs", "20 years", "8.5%")

	if st.Flow != models.FlowPostEMI {
		t.Fatalf("expected post_emi, got %s", st.Flow)
	}
	if !st.EMIDone || !st.ShowEMIOnce {
		t.Error("expected EMIDone and ShowEMIOnce set")
	}
	if st.EMIResult == nil || len(st.EMIResult.Schedule) != 240 {
		t.Fatalf("expected a 240-row schedule, got %+v", st.EMIResult)
	}
	if st.Collected.Principal != 5000000 || st.Collected.TenureYears != 20 || st.Collected.ROI != 8.5 {
		t.Errorf("collected fields wrong: %+v", st.Collected)
	}
	if !strings.Contains(reply, "EMI Calculation Complete") || !strings.Contains(reply, "eligibility") {
		t.Errorf("unexpected summary reply %q", reply)
	}
}

func TestStepEMIFlowRejectsOutOfRangeTenure(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingEMI
	st.WaitingFor = models.FieldTenure

	reply, next := c.Step(context.Background(), "45 years", st)

	if reply != replyInvalidTenure {
		t.Errorf("expected tenure validation reply, got %q", reply)
	}
	if next.WaitingFor != models.FieldTenure {
		t.Errorf("must keep waiting for tenure, got %s", next.WaitingFor)
	}
}

func TestStepEMIFlowAnswersSideQuestion(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	c.fields = &fakeFields{result: models.ClassificationOther}
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingEMI
	st.WaitingFor = models.FieldPrincipal

	reply, next := c.Step(context.Background(), "what is a processing fee?", st)

	if !strings.Contains(reply, "policy answer") || !strings.Contains(reply, "principal") {
		t.Errorf("expected oracle answer plus re-prompt, got %q", reply)
	}
	if next.WaitingFor != models.FieldPrincipal {
		t.Errorf("side question must not advance collection, got %s", next.WaitingFor)
	}
}

func TestStepPostEMIBranches(t *testing.T) {
	t.Run("yes enters eligibility", func(t *testing.T) {
		c, _ := newTestController(&fakeIntents{byText: map[string]models.Intent{"yes": models.IntentAffirmative}})
		st := models.NewSessionState("s1")
		st.Flow = models.FlowPostEMI

		_, next := c.Step(context.Background(), "yes", st)
		if next.Flow != models.FlowCollectingEligibility || next.WaitingFor != models.FieldIncome {
			t.Errorf("expected eligibility/income, got %s/%s", next.Flow, next.WaitingFor)
		}
	})

	t.Run("no offers a callback", func(t *testing.T) {
		c, _ := newTestController(&fakeIntents{byText: map[string]models.Intent{"no": models.IntentNegative}})
		st := models.NewSessionState("s1")
		st.Flow = models.FlowPostEMI

		reply, next := c.Step(context.Background(), "no", st)
		if next.Flow != models.FlowPostFlowInfo || !next.ContactDeclinedEMI {
			t.Errorf("expected post_flow_info with declined flag, got %s declined=%v", next.Flow, next.ContactDeclinedEMI)
		}
		if reply != replyAskContact {
			t.Errorf("unexpected reply %q", reply)
		}
	})

	t.Run("question stays put", func(t *testing.T) {
		c, _ := newTestController(&fakeIntents{deflt: models.IntentAskRAG})
		st := models.NewSessionState("s1")
		st.Flow = models.FlowPostEMI

		reply, next := c.Step(context.Background(), "what does EMI stand for?", st)
		if next.Flow != models.FlowPostEMI {
			t.Errorf("expected to stay in post_emi, got %s", next.Flow)
		}
		if !strings.Contains(reply, replyAskYesNo) {
			t.Errorf("expected yes/no re-prompt, got %q", reply)
		}
	})
}

func TestStepEligibilityEndToEnd(t *testing.T) {
	intents := &fakeIntents{byText: map[string]models.Intent{"check eligibility": models.IntentStartEligibility}}
	c, sender := newTestController(intents)

	reply, st := driveTurns(t, c, models.NewSessionState("s1"),
		"check eligibility",
		"100000",      // income
		"20000",       // expense
		"salaried",    // employment
		"1996-05-10",  // dob
		"400001",      // pincode
		"fresh loan",  // loan type
		"Ravi Kumar",  // name
		"9876543210",  // phone
		"RAVI@Example.com")

	if st.Flow != models.FlowCollectingOTP || st.WaitingFor != models.FieldOTP {
		t.Fatalf("expected collecting_otp, got %s/%s", st.Flow, st.WaitingFor)
	}
	if st.Collected.Email != "ravi@example.com" {
		t.Errorf("email must be stored lowercased, got %q", st.Collected.Email)
	}
	if st.OTP == nil || st.OTP.Mode != models.OTPModeEligibility {
		t.Fatalf("expected an eligibility-mode OTP, got %+v", st.OTP)
	}
	if len(sender.Sent) != 1 || sender.Sent[0].Destination != "ravi@example.com" {
		t.Fatalf("expected one OTP dispatch to the email, got %+v", sender.Sent)
	}
	if !strings.Contains(reply, "ravi@example.com") {
		t.Errorf("reply should echo the destination, got %q", reply)
	}

	// Wrong code stays in place.
	reply, st = c.Step(context.Background(), "000000", st)
	if reply != replyOTPIncorrect || st.Flow != models.FlowCollectingOTP {
		t.Fatalf("wrong OTP must re-prompt in place, got %q flow=%s", reply, st.Flow)
	}

	// Correct code evaluates the soft sanction.
	reply, st = c.Step(context.Background(), testOTPCode, st)
	if st.Flow != models.FlowPostFlowInfo || st.WaitingFor != models.FieldInfoDecision {
		t.Fatalf("expected post_flow_info after verification, got %s/%s", st.Flow, st.WaitingFor)
	}
	if !st.EligibilityDone || st.EligibilityResult == nil {
		t.Fatal("expected eligibility result recorded")
	}
	if !st.EligibilityResult.Eligible {
		t.Errorf("income 100000 / expense 20000 salaried should be eligible, got %+v", st.EligibilityResult)
	}
	if st.OTP != nil || st.FlowBeforeEmail != "" {
		t.Error("OTP context and parent-flow marker must be cleared after verification")
	}
	if !strings.Contains(reply, "₹") {
		t.Errorf("expected sanction amount in reply, got %q", reply)
	}
}

func TestStepZeroExpensePhrase(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	c.fields = &fakeFields{err: context.DeadlineExceeded} // force heuristic path
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingEligibility
	st.WaitingFor = models.FieldExpense
	st.Collected.Income = 80000

	_, next := c.Step(context.Background(), "no expenses", st)

	if !next.Collected.ExpenseSet || next.Collected.Expense != 0 {
		t.Errorf("expected zero expense recorded, got set=%v value=%v", next.Collected.ExpenseSet, next.Collected.Expense)
	}
	if next.WaitingFor != models.FieldEmploymentType {
		t.Errorf("expected to advance to employment type, got %s", next.WaitingFor)
	}
}

func TestStepContactFlowTagsOTPModeContact(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingName

	_, st = driveTurns(t, c, st, "Asha Verma", "9123456780", "asha@example.com")

	if st.OTP == nil || st.OTP.Mode != models.OTPModeContact {
		t.Fatalf("contact path must tag OTP as contact, got %+v", st.OTP)
	}

	reply, st := c.Step(context.Background(), testOTPCode, st)
	if reply != replyContactVerified {
		t.Errorf("unexpected reply %q", reply)
	}
	if st.Flow != models.FlowKnowledge || st.EligibilityDone {
		t.Errorf("contact verification must not run eligibility, got flow=%s done=%v", st.Flow, st.EligibilityDone)
	}
}

func TestStepOTPMissingRestartsEmail(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	st := models.NewSessionState("s1")
	st.Flow = models.FlowCollectingOTP
	st.WaitingFor = models.FieldOTP
	st.OTP = nil

	reply, next := c.Step(context.Background(), "123456", st)

	if next.Flow != models.FlowCollectingEmail || next.WaitingFor != models.FieldEmail {
		t.Errorf("expected email restart, got %s/%s", next.Flow, next.WaitingFor)
	}
	if reply != replyOTPMissing {
		t.Errorf("unexpected reply %q", reply)
	}
}

func TestStepPostFlowInfoLiteralFallbacks(t *testing.T) {
	cases := []struct {
		text     string
		wantFlow models.Flow
		reply    string
	}{
		{"yes", models.FlowCollectingName, replyAskNameContact},
		{"no", models.FlowKnowledge, replyAnythingElse},
		{"maybe later", models.FlowPostFlowInfo, replyReplyYesNo},
	}
	for _, tc := range cases {
		c, _ := newTestController(&fakeIntents{})
		st := models.NewSessionState("s1")
		st.Flow = models.FlowPostFlowInfo
		st.WaitingFor = models.FieldInfoDecision

		reply, next := c.Step(context.Background(), tc.text, st)
		if next.Flow != tc.wantFlow {
			t.Errorf("%q: expected flow %s, got %s", tc.text, tc.wantFlow, next.Flow)
		}
		if reply != tc.reply {
			t.Errorf("%q: expected reply %q, got %q", tc.text, tc.reply, reply)
		}
	}
}

func TestStepUnknownFlowResetsPreservingIdentity(t *testing.T) {
	c, _ := newTestController(&fakeIntents{})
	st := models.NewSessionState("s1")
	st.Flow = models.Flow("corrupted")
	st.AppendTurn("user", "hello")
	st.Collected.Principal = 100

	reply, next := c.Step(context.Background(), "continue", st)

	if reply != replyConfusedReset {
		t.Errorf("unexpected reply %q", reply)
	}
	if next.SessionID != "s1" || len(next.History) != 1 {
		t.Errorf("reset must preserve identity and history, got id=%s history=%d", next.SessionID, len(next.History))
	}
	if next.Flow != models.FlowInitial || next.Collected.Principal != 0 {
		t.Errorf("reset must clear flow and fields, got flow=%s principal=%v", next.Flow, next.Collected.Principal)
	}
}
