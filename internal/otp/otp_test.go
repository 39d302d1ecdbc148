package otp

import (
	"context"
	"errors"
	"testing"

	"github.com/credvita/loanassist/internal/models"
	"github.com/credvita/loanassist/internal/transport"
)

func TestIssueAndVerify(t *testing.T) {
	sender := transport.NewMockSender()
	mgr := NewManagerWithGenerator(sender, func() string { return "123456" })

	otpCtx, delivered := mgr.Issue(context.Background(), "user@example.com", models.OTPModeEligibility)
	if !delivered {
		t.Fatal("expected delivered=true with working transport")
	}
	if otpCtx.Code != "123456" || otpCtx.Mode != models.OTPModeEligibility || otpCtx.IssuedFor != "user@example.com" {
		t.Fatalf("unexpected OTP context: %+v", otpCtx)
	}
	if len(sender.Sent) != 1 || sender.Sent[0].Code != "123456" {
		t.Fatalf("expected one dispatched code, got %+v", sender.Sent)
	}

	if err := mgr.Verify("123456", otpCtx); err != nil {
		t.Errorf("correct code should verify, got %v", err)
	}
	if err := mgr.Verify(" 123456 ", otpCtx); err != nil {
		t.Errorf("trimmed code should verify, got %v", err)
	}
	if err := mgr.Verify("654321", otpCtx); !errors.Is(err, models.ErrOTPMismatch) {
		t.Errorf("wrong code: got %v, want ErrOTPMismatch", err)
	}
}

func TestVerifyMissingContext(t *testing.T) {
	mgr := NewManager(transport.NewMockSender())
	if err := mgr.Verify("123456", nil); !errors.Is(err, models.ErrOTPMissing) {
		t.Errorf("nil context: got %v, want ErrOTPMissing", err)
	}
	if err := mgr.Verify("123456", &models.OTPContext{}); !errors.Is(err, models.ErrOTPMissing) {
		t.Errorf("empty code: got %v, want ErrOTPMissing", err)
	}
}

func TestIssueTransportFailureDoesNotBlock(t *testing.T) {
	sender := transport.NewMockSender()
	sender.Err = errors.New("smtp down")
	mgr := NewManagerWithGenerator(sender, func() string { return "999999" })

	otpCtx, delivered := mgr.Issue(context.Background(), "user@example.com", models.OTPModeContact)
	if delivered {
		t.Error("expected delivered=false on transport failure")
	}
	if otpCtx == nil || otpCtx.Code != "999999" {
		t.Fatalf("OTP context must still be issued on transport failure, got %+v", otpCtx)
	}
}
