package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ziadkadry99/circuitchat/internal/db"
)

// ErrNotFound is returned by GetByID for unknown ids.
var ErrNotFound = errors.New("generation not found")

// Store provides persistence for generation records.
type Store struct {
	db *db.DB
}

// NewStore creates a Store backed by the given database.
func NewStore(database *db.DB) *Store {
	return &Store{db: database}
}

// Log inserts a generation record. If entry.ID is empty a UUID is generated.
// The stored id is returned.
func (s *Store) Log(ctx context.Context, entry Entry) (string, error) {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.Status == "" {
		entry.Status = StatusError
	}

	var circuitJSON, sessionID sql.NullString
	if len(entry.CircuitJSON) > 0 {
		circuitJSON = sql.NullString{String: string(entry.CircuitJSON), Valid: true}
	}
	if entry.SessionID != "" {
		sessionID = sql.NullString{String: entry.SessionID, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			id, prompt, status, circuit_json, explanation, raw_text, error,
			provider, model, input_tokens, output_tokens, cost_usd,
			duration_ms, session_id
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Prompt,
		string(entry.Status),
		circuitJSON,
		entry.Explanation,
		entry.RawText,
		entry.Error,
		entry.Provider,
		entry.Model,
		entry.InputTokens,
		entry.OutputTokens,
		entry.CostUSD,
		entry.Duration.Milliseconds(),
		sessionID,
	)
	if err != nil {
		return "", fmt.Errorf("inserting generation: %w", err)
	}
	return entry.ID, nil
}

const selectColumns = `SELECT id, created_at, prompt, status, circuit_json, explanation,
	raw_text, error, provider, model, input_tokens, output_tokens, cost_usd,
	duration_ms, session_id FROM generations`

// GetByID retrieves a single generation record.
func (s *Store) GetByID(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, selectColumns+" WHERE id = ?", id)
	e, err := scanInto(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return e, err
}

// QueryFilter controls which records Query returns.
type QueryFilter struct {
	Status    Status
	SessionID string
	// Search matches a substring of the prompt.
	Search string
	Since  *time.Time
	Until  *time.Time
	Limit  int
	Offset int
}

func (f QueryFilter) where() (string, []any) {
	var (
		clauses []string
		args    []any
	)
	if f.Status != "" {
		clauses = append(clauses, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if f.Search != "" {
		clauses = append(clauses, "prompt LIKE ?")
		args = append(args, "%"+f.Search+"%")
	}
	if f.Since != nil {
		clauses = append(clauses, "created_at >= ?")
		args = append(args, f.Since.UTC().Format(time.DateTime))
	}
	if f.Until != nil {
		clauses = append(clauses, "created_at <= ?")
		args = append(args, f.Until.UTC().Format(time.DateTime))
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Query returns generation records matching the filter, newest first.
func (s *Store) Query(ctx context.Context, filter QueryFilter) ([]Entry, error) {
	where, args := filter.where()
	query := selectColumns + where + " ORDER BY created_at DESC, rowid DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying generations: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		e, err := scanInto(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	return entries, rows.Err()
}

// Summarize counts records by status and totals their estimated cost.
func (s *Store) Summarize(ctx context.Context, filter QueryFilter) (*Summary, error) {
	where, args := filter.where()
	rows, err := s.db.QueryContext(ctx,
		"SELECT status, COUNT(*), COALESCE(SUM(cost_usd), 0) FROM generations"+where+" GROUP BY status", args...)
	if err != nil {
		return nil, fmt.Errorf("summarizing generations: %w", err)
	}
	defer rows.Close()

	sum := &Summary{ByStatus: map[Status]int{}}
	for rows.Next() {
		var (
			status string
			count  int
			cost   float64
		)
		if err := rows.Scan(&status, &count, &cost); err != nil {
			return nil, fmt.Errorf("scanning summary: %w", err)
		}
		sum.ByStatus[Status(status)] = count
		sum.Total += count
		sum.CostUSD += cost
	}
	return sum, rows.Err()
}

// DeleteBefore removes all records older than the given time.
// Returns the number of deleted rows.
func (s *Store) DeleteBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM generations WHERE created_at < ?",
		before.UTC().Format(time.DateTime),
	)
	if err != nil {
		return 0, fmt.Errorf("deleting old generations: %w", err)
	}
	return res.RowsAffected()
}

// scanner is implemented by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanInto(sc scanner) (*Entry, error) {
	var (
		e                      Entry
		ts, status             string
		circuitJSON, sessionID sql.NullString
		durationMS             int64
	)
	err := sc.Scan(&e.ID, &ts, &e.Prompt, &status, &circuitJSON, &e.Explanation,
		&e.RawText, &e.Error, &e.Provider, &e.Model, &e.InputTokens, &e.OutputTokens,
		&e.CostUSD, &durationMS, &sessionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scanning generation: %w", err)
	}

	e.Status = Status(status)
	e.Duration = time.Duration(durationMS) * time.Millisecond
	if t, parseErr := time.Parse(time.DateTime, ts); parseErr == nil {
		e.CreatedAt = t
	} else if t, parseErr := time.Parse(time.RFC3339, ts); parseErr == nil {
		e.CreatedAt = t
	}
	if circuitJSON.Valid {
		e.CircuitJSON = []byte(circuitJSON.String)
	}
	if sessionID.Valid {
		e.SessionID = sessionID.String
	}
	return &e, nil
}
