// This file implements the Postgres-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	_ "github.com/lib/pq"

	"github.com/credvita/loanassist/internal/models"
)

//go:embed migrations_postgres.sql
var postgresMigrations string

// PostgresStore persists sessions and transcripts in Postgres.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store with the given DSN.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewPostgresStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run Postgres migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// SaveSession upserts the JSON-serialized session state.
func (s *PostgresStore) SaveSession(state *models.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		slog.Error("PostgresStore.SaveSession marshal failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to marshal session %s: %w", state.SessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions (session_id, state, updated_at) VALUES ($1, $2, $3)
		ON CONFLICT (session_id) DO UPDATE SET state = EXCLUDED.state, updated_at = EXCLUDED.updated_at`,
		state.SessionID, string(payload), state.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveSession failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to upsert session %s: %w", state.SessionID, err)
	}
	slog.Debug("PostgresStore.SaveSession succeeded", "sessionID", state.SessionID)
	return nil
}

// GetSession loads and deserializes the saved session state.
func (s *PostgresStore) GetSession(sessionID string) (*models.SessionState, error) {
	var payload string
	err := s.db.QueryRow(`SELECT state FROM sessions WHERE session_id = $1`, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("PostgresStore.GetSession query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	var state models.SessionState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		slog.Error("PostgresStore.GetSession unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// SaveTranscript upserts the analytics row derived from the session.
func (s *PostgresStore) SaveTranscript(state *models.SessionState) error {
	row := transcriptRowFromState(state)
	conversation, err := json.Marshal(row.Conversation)
	if err != nil {
		slog.Error("PostgresStore.SaveTranscript marshal failed", "error", err, "sessionID", row.SessionID)
		return fmt.Errorf("failed to marshal conversation for %s: %w", row.SessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO transcripts (
			session_id, conversation, principal, tenure_years, roi, income, expense,
			employment_type, dob, pin_code, loan_type, customer_name, phone, email,
			monthly_emi, sanction_amount, eligible, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (session_id) DO UPDATE SET
			conversation = EXCLUDED.conversation,
			principal = EXCLUDED.principal,
			tenure_years = EXCLUDED.tenure_years,
			roi = EXCLUDED.roi,
			income = EXCLUDED.income,
			expense = EXCLUDED.expense,
			employment_type = EXCLUDED.employment_type,
			dob = EXCLUDED.dob,
			pin_code = EXCLUDED.pin_code,
			loan_type = EXCLUDED.loan_type,
			customer_name = EXCLUDED.customer_name,
			phone = EXCLUDED.phone,
			email = EXCLUDED.email,
			monthly_emi = EXCLUDED.monthly_emi,
			sanction_amount = EXCLUDED.sanction_amount,
			eligible = EXCLUDED.eligible,
			updated_at = EXCLUDED.updated_at`,
		row.SessionID, string(conversation), row.Principal, row.TenureYears, row.ROI,
		row.Income, row.Expense, row.EmploymentType, row.DOB, row.PinCode, row.LoanType,
		row.CustomerName, row.Phone, row.Email, row.MonthlyEMI, row.SanctionAmount,
		row.Eligible, row.UpdatedAt)
	if err != nil {
		slog.Error("PostgresStore.SaveTranscript failed", "error", err, "sessionID", row.SessionID)
		return fmt.Errorf("failed to upsert transcript %s: %w", row.SessionID, err)
	}
	slog.Debug("PostgresStore.SaveTranscript succeeded", "sessionID", row.SessionID, "turns", len(row.Conversation))
	return nil
}

// DeleteStaleSessions removes sessions last updated before the cutoff.
func (s *PostgresStore) DeleteStaleSessions(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < $1`, before)
	if err != nil {
		slog.Error("PostgresStore.DeleteStaleSessions failed", "error", err)
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	slog.Debug("PostgresStore.DeleteStaleSessions succeeded", "removed", removed)
	return removed, nil
}

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
