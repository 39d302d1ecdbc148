// This file implements the SQLite-backed store.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "embed"

	"github.com/credvita/loanassist/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// DefaultDirPermissions defines the default permissions for database directories.
const DefaultDirPermissions = 0755

//go:embed migrations_sqlite.sql
var sqliteMigrations string

// SQLiteStore persists sessions and transcripts in a local SQLite file.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN is a file path to the database file; missing parent directories
// are created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run SQLite migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// SaveSession upserts the JSON-serialized session state.
func (s *SQLiteStore) SaveSession(state *models.SessionState) error {
	payload, err := json.Marshal(state)
	if err != nil {
		slog.Error("SQLiteStore.SaveSession marshal failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to marshal session %s: %w", state.SessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO sessions (session_id, state, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET state = excluded.state, updated_at = excluded.updated_at`,
		state.SessionID, string(payload), state.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore.SaveSession failed", "error", err, "sessionID", state.SessionID)
		return fmt.Errorf("failed to upsert session %s: %w", state.SessionID, err)
	}
	slog.Debug("SQLiteStore.SaveSession succeeded", "sessionID", state.SessionID)
	return nil
}

// GetSession loads and deserializes the saved session state.
func (s *SQLiteStore) GetSession(sessionID string) (*models.SessionState, error) {
	var payload string
	err := s.db.QueryRow(`SELECT state FROM sessions WHERE session_id = ?`, sessionID).Scan(&payload)
	if err == sql.ErrNoRows {
		return nil, models.ErrSessionNotFound
	}
	if err != nil {
		slog.Error("SQLiteStore.GetSession query failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to query session %s: %w", sessionID, err)
	}
	var state models.SessionState
	if err := json.Unmarshal([]byte(payload), &state); err != nil {
		slog.Error("SQLiteStore.GetSession unmarshal failed", "error", err, "sessionID", sessionID)
		return nil, fmt.Errorf("failed to unmarshal session %s: %w", sessionID, err)
	}
	return &state, nil
}

// SaveTranscript upserts the analytics row derived from the session.
func (s *SQLiteStore) SaveTranscript(state *models.SessionState) error {
	row := transcriptRowFromState(state)
	conversation, err := json.Marshal(row.Conversation)
	if err != nil {
		slog.Error("SQLiteStore.SaveTranscript marshal failed", "error", err, "sessionID", row.SessionID)
		return fmt.Errorf("failed to marshal conversation for %s: %w", row.SessionID, err)
	}
	_, err = s.db.Exec(`INSERT INTO transcripts (
			session_id, conversation, principal, tenure_years, roi, income, expense,
			employment_type, dob, pin_code, loan_type, customer_name, phone, email,
			monthly_emi, sanction_amount, eligible, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			conversation = excluded.conversation,
			principal = excluded.principal,
			tenure_years = excluded.tenure_years,
			roi = excluded.roi,
			income = excluded.income,
			expense = excluded.expense,
			employment_type = excluded.employment_type,
			dob = excluded.dob,
			pin_code = excluded.pin_code,
			loan_type = excluded.loan_type,
			customer_name = excluded.customer_name,
			phone = excluded.phone,
			email = excluded.email,
			monthly_emi = excluded.monthly_emi,
			sanction_amount = excluded.sanction_amount,
			eligible = excluded.eligible,
			updated_at = excluded.updated_at`,
		row.SessionID, string(conversation), row.Principal, row.TenureYears, row.ROI,
		row.Income, row.Expense, row.EmploymentType, row.DOB, row.PinCode, row.LoanType,
		row.CustomerName, row.Phone, row.Email, row.MonthlyEMI, row.SanctionAmount,
		row.Eligible, row.UpdatedAt)
	if err != nil {
		slog.Error("SQLiteStore.SaveTranscript failed", "error", err, "sessionID", row.SessionID)
		return fmt.Errorf("failed to upsert transcript %s: %w", row.SessionID, err)
	}
	slog.Debug("SQLiteStore.SaveTranscript succeeded", "sessionID", row.SessionID, "turns", len(row.Conversation))
	return nil
}

// DeleteStaleSessions removes sessions last updated before the cutoff.
func (s *SQLiteStore) DeleteStaleSessions(before time.Time) (int64, error) {
	res, err := s.db.Exec(`DELETE FROM sessions WHERE updated_at < ?`, before)
	if err != nil {
		slog.Error("SQLiteStore.DeleteStaleSessions failed", "error", err)
		return 0, fmt.Errorf("failed to delete stale sessions: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	slog.Debug("SQLiteStore.DeleteStaleSessions succeeded", "removed", removed)
	return removed, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
