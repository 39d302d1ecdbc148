package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net/smtp"
	"os"

	"github.com/credvita/loanassist/internal/util"
)

// SMTPSender delivers OTP codes by email.
type SMTPSender struct {
	host     string
	port     string
	sender   string
	password string
}

// NewSMTPSender builds an SMTP-backed sender from the SMTP_HOST, SMTP_PORT,
// SENDER_EMAIL and SENDER_APP_PASSWORD environment variables. Host defaults
// to Gmail's submission endpoint.
func NewSMTPSender() (*SMTPSender, error) {
	s := &SMTPSender{
		host:     util.GetEnvDefault("SMTP_HOST", "smtp.gmail.com"),
		port:     util.GetEnvDefault("SMTP_PORT", "587"),
		sender:   os.Getenv("SENDER_EMAIL"),
		password: os.Getenv("SENDER_APP_PASSWORD"),
	}
	if s.sender == "" || s.password == "" {
		return nil, fmt.Errorf("SENDER_EMAIL and SENDER_APP_PASSWORD must be set")
	}
	return s, nil
}

// SendOTP emails the verification code to the destination address.
func (s *SMTPSender) SendOTP(ctx context.Context, destination, code string) error {
	body := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: Your OTP Verification Code\r\n\r\nYour OTP is: %s\nDo not share this with anyone.\r\n",
		s.sender, destination, code)

	auth := smtp.PlainAuth("", s.sender, s.password, s.host)
	addr := s.host + ":" + s.port
	if err := smtp.SendMail(addr, auth, s.sender, []string{destination}, []byte(body)); err != nil {
		slog.Error("SMTPSender SendOTP failed", "to", destination, "error", err)
		return fmt.Errorf("failed to send OTP email to %s: %w", destination, err)
	}

	slog.Debug("SMTPSender OTP email sent", "to", destination)
	return nil
}
