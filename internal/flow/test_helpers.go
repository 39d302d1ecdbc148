package flow

import (
	"context"
	"time"

	"github.com/credvita/loanassist/internal/models"
	"github.com/credvita/loanassist/internal/otp"
	"github.com/credvita/loanassist/internal/transport"
)

// fakeIntents returns a scripted intent per keyword, defaulting to unknown.
type fakeIntents struct {
	byText  map[string]models.Intent
	deflt   models.Intent
	err     error
	lastTxt string
}

func (f *fakeIntents) DetectIntent(_ context.Context, text string, _ []models.Turn) (models.Intent, error) {
	f.lastTxt = text
	if f.err != nil {
		return models.IntentUnknown, f.err
	}
	if intent, ok := f.byText[text]; ok {
		return intent, nil
	}
	if f.deflt != "" {
		return f.deflt, nil
	}
	return models.IntentUnknown, nil
}

// fakeFields returns a fixed classification, or an error to force fallback.
type fakeFields struct {
	result models.Classification
	err    error
}

func (f *fakeFields) ClassifyField(_ context.Context, _ string, _ models.Field) (models.Classification, error) {
	if f.err != nil {
		return models.ClassificationOther, f.err
	}
	return f.result, nil
}

// fakeKnowledge returns a fixed context snippet.
type fakeKnowledge struct {
	context string
}

func (f *fakeKnowledge) RetrieveContext(_ context.Context, _ string) string {
	return f.context
}

// fakeAnswers returns a fixed answer or error.
type fakeAnswers struct {
	answer string
	err    error
}

func (f *fakeAnswers) GenerateAnswer(_ context.Context, _ string, _ string) (string, error) {
	return f.answer, f.err
}

// testOTPCode is the code every test-issued OTP carries.
const testOTPCode = "123456"

// newTestController builds a controller with deterministic collaborators: a
// value-happy field classifier, a canned oracle, and OTPs fixed to 123456.
// The clock is pinned so age-dependent eligibility stays stable.
func newTestController(intents *fakeIntents) (*Controller, *transport.MockSender) {
	if intents == nil {
		intents = &fakeIntents{}
	}
	sender := &transport.MockSender{}
	manager := otp.NewManagerWithGenerator(sender, func() string { return testOTPCode })
	c := NewController(
		intents,
		&fakeFields{result: models.ClassificationValue},
		&fakeKnowledge{context: "Policy context."},
		&fakeAnswers{answer: "Here is the policy answer."},
		manager,
	)
	c.SetClock(func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) })
	return c, sender
}
