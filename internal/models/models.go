// Package models defines the core data structures for the loan assistant.
//
// It includes types for conversation turns, API responses, and the error
// taxonomy shared across modules.
package models

import "errors"

// Error variables for better error handling and testability
var (
	ErrInvalidTenure      = errors.New("tenure must be between 1 and 30 years")
	ErrInvalidPrincipal   = errors.New("principal must be greater than zero")
	ErrInvalidRate        = errors.New("interest rate must be greater than zero")
	ErrNoNumber           = errors.New("no numeric value found in input")
	ErrEmptySessionID     = errors.New("session id cannot be empty")
	ErrEmptyMessage       = errors.New("message cannot be empty")
	ErrSessionNotFound    = errors.New("session not found")
	ErrOTPMissing         = errors.New("no OTP pending for this session")
	ErrOTPMismatch        = errors.New("submitted OTP does not match")
	ErrTransportFailed    = errors.New("OTP transport dispatch failed")
	ErrOracleUnavailable  = errors.New("classifier oracle unavailable")
	ErrUnknownFlow        = errors.New("unrecognized conversation flow")
)

// APIStatus represents the status of an API response.
type APIStatus string

const (
	// APIStatusOK indicates an API request completed successfully.
	APIStatusOK APIStatus = "ok"
	// APIStatusError indicates an API request failed with an error.
	APIStatusError APIStatus = "error"
)

// APIResponse represents a standard API response with a status and optional data.
type APIResponse struct {
	Status  string      `json:"status"`
	Message string      `json:"message,omitempty"` // optional message for error responses or additional info
	Result  interface{} `json:"result,omitempty"`  // optional result data for successful responses
}

// Success creates a successful API response with optional result data.
func Success(result interface{}) APIResponse {
	return APIResponse{Status: string(APIStatusOK), Result: result}
}

// Error creates an error API response with the given message.
func Error(message string) APIResponse {
	return APIResponse{Status: string(APIStatusError), Message: message}
}

// ChatRequest is the inbound payload for a single conversation turn.
type ChatRequest struct {
	SessionID string `json:"session_id,omitempty"` // omitted on the first turn; server assigns one
	Message   string `json:"message"`
}

// Validate checks the chat request for required fields.
func (r *ChatRequest) Validate() error {
	if r.Message == "" {
		return ErrEmptyMessage
	}
	return nil
}

// ChatReply is the outbound payload for a single conversation turn. The EMI
// schedule is attached only on the turn that produced it.
type ChatReply struct {
	SessionID            string     `json:"session_id"`
	Reply                string     `json:"reply"`
	Flow                 Flow       `json:"flow"`
	WaitingFor           Field      `json:"waiting_for,omitempty"`
	EMISchedule          *EMIResult `json:"emi_schedule,omitempty"`
	ConversationComplete bool       `json:"conversation_complete,omitempty"`
}
