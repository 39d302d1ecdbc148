// Package store provides storage backends for loan-assistant sessions.
//
// Two things are persisted per session: the full conversation state (so a
// session survives a process restart) and an analytics transcript row
// holding the raw conversation plus the extracted loan fields.
package store

import (
	"log/slog"
	"sync"
	"time"

	"github.com/credvita/loanassist/internal/models"
)

// Opts holds configuration options for store implementations.
type Opts struct {
	// DSN is the database connection string: a file path for SQLite, a
	// connection URL for Postgres.
	DSN string
}

// Option defines a functional option for store configuration.
type Option func(*Opts)

// WithDSN sets the database connection string.
func WithDSN(dsn string) Option {
	return func(o *Opts) { o.DSN = dsn }
}

// Store persists conversation sessions and their analytics transcripts.
type Store interface {
	// SaveSession upserts the full session state keyed by session ID.
	SaveSession(state *models.SessionState) error
	// GetSession loads a saved session. Returns models.ErrSessionNotFound
	// when the session ID has never been saved.
	GetSession(sessionID string) (*models.SessionState, error)
	// SaveTranscript upserts the analytics row for a session: the raw
	// conversation plus a snapshot of the extracted loan fields.
	SaveTranscript(state *models.SessionState) error
	// DeleteStaleSessions removes sessions last updated before the cutoff
	// and returns how many were removed. Transcript rows are kept; they are
	// the analytics record and outlive the session.
	DeleteStaleSessions(before time.Time) (int64, error)
	// Close releases the underlying resources.
	Close() error
}

// TranscriptRow is the flattened analytics record derived from a session.
type TranscriptRow struct {
	SessionID      string
	Conversation   []models.Turn
	Principal      float64
	TenureYears    int
	ROI            float64
	Income         float64
	Expense        float64
	EmploymentType string
	DOB            string
	PinCode        string
	LoanType       string
	CustomerName   string
	Phone          string
	Email          string
	MonthlyEMI     float64
	SanctionAmount float64
	Eligible       bool
	UpdatedAt      time.Time
}

// transcriptRowFromState flattens a session into its analytics record.
func transcriptRowFromState(state *models.SessionState) TranscriptRow {
	row := TranscriptRow{
		SessionID:      state.SessionID,
		Conversation:   state.History,
		Principal:      state.Collected.Principal,
		TenureYears:    state.Collected.TenureYears,
		ROI:            state.Collected.ROI,
		Income:         state.Collected.Income,
		Expense:        state.Collected.Expense,
		EmploymentType: string(state.Collected.EmploymentType),
		DOB:            state.Collected.DOB,
		PinCode:        state.Collected.PinCode,
		LoanType:       string(state.Collected.LoanType),
		CustomerName:   state.Collected.CustomerName,
		Phone:          state.Collected.Phone,
		Email:          state.Collected.Email,
		UpdatedAt:      state.UpdatedAt,
	}
	if state.EMIResult != nil {
		row.MonthlyEMI = state.EMIResult.MonthlyEMI
	}
	if state.EligibilityResult != nil {
		row.SanctionAmount = state.EligibilityResult.SanctionAmount
		row.Eligible = state.EligibilityResult.Eligible
	}
	return row
}

// InMemoryStore keeps sessions and transcripts in process memory. It backs
// tests and deployments that do not need durability.
type InMemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]*models.SessionState
	transcripts map[string]TranscriptRow
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions:    make(map[string]*models.SessionState),
		transcripts: make(map[string]TranscriptRow),
	}
}

// SaveSession upserts a deep copy of the state.
func (s *InMemoryStore) SaveSession(state *models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[state.SessionID] = state.Clone()
	slog.Debug("InMemoryStore.SaveSession succeeded", "sessionID", state.SessionID)
	return nil
}

// GetSession returns a deep copy of the saved state.
func (s *InMemoryStore) GetSession(sessionID string) (*models.SessionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.sessions[sessionID]
	if !ok {
		return nil, models.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// SaveTranscript upserts the flattened analytics row.
func (s *InMemoryStore) SaveTranscript(state *models.SessionState) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transcripts[state.SessionID] = transcriptRowFromState(state)
	slog.Debug("InMemoryStore.SaveTranscript succeeded", "sessionID", state.SessionID, "turns", len(state.History))
	return nil
}

// GetTranscript returns the saved analytics row, for tests.
func (s *InMemoryStore) GetTranscript(sessionID string) (TranscriptRow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.transcripts[sessionID]
	return row, ok
}

// DeleteStaleSessions removes sessions last updated before the cutoff.
func (s *InMemoryStore) DeleteStaleSessions(before time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var removed int64
	for id, state := range s.sessions {
		if state.UpdatedAt.Before(before) {
			delete(s.sessions, id)
			removed++
		}
	}
	slog.Debug("InMemoryStore.DeleteStaleSessions succeeded", "removed", removed)
	return removed, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
