// Package otp issues and verifies one-time passwords for identity gating.
//
// Codes live inside the session state; no expiry or attempt cap is enforced.
package otp

import (
	"context"
	"log/slog"
	"strings"

	"github.com/credvita/loanassist/internal/models"
	"github.com/credvita/loanassist/internal/transport"
	"github.com/credvita/loanassist/internal/util"
)

// Manager generates verification codes and dispatches them over a transport.
type Manager struct {
	sender   transport.Sender
	generate func() string
}

// NewManager creates an OTP manager using the given transport sender.
func NewManager(sender transport.Sender) *Manager {
	return &Manager{sender: sender, generate: util.GenerateOTPCode}
}

// NewManagerWithGenerator creates a manager with a fixed code generator, for tests.
func NewManagerWithGenerator(sender transport.Sender, generate func() string) *Manager {
	return &Manager{sender: sender, generate: generate}
}

// Issue generates a fresh 6-digit code for the destination email, dispatches
// it, and returns the context to stash in the session. Dispatch failures are
// logged and reported via the boolean but never block the verification flow.
func (m *Manager) Issue(ctx context.Context, destination string, mode models.OTPMode) (*models.OTPContext, bool) {
	code := m.generate()
	otpCtx := &models.OTPContext{
		Code:      code,
		Mode:      mode,
		IssuedFor: destination,
	}

	delivered := true
	if m.sender == nil {
		slog.Warn("OTPManager.Issue: no transport configured, code not dispatched", "destination", destination)
		delivered = false
	} else if err := m.sender.SendOTP(ctx, destination, code); err != nil {
		// Fire and continue: transport trouble is an operational concern,
		// not a conversation error.
		slog.Error("OTPManager.Issue: dispatch failed", "destination", destination, "mode", mode, "error", err)
		delivered = false
	} else {
		slog.Info("OTPManager.Issue: OTP dispatched", "destination", destination, "mode", mode)
	}

	return otpCtx, delivered
}

// Verify compares a submitted code against the pending context using exact
// string equality after trimming.
func (m *Manager) Verify(submitted string, pending *models.OTPContext) error {
	if pending == nil || pending.Code == "" {
		return models.ErrOTPMissing
	}
	if strings.TrimSpace(submitted) != strings.TrimSpace(pending.Code) {
		return models.ErrOTPMismatch
	}
	return nil
}
