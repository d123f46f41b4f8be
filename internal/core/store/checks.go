package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/handlescope/handlescope/internal/core"
)

// RecordCheck appends one check outcome to the history. Checks without a
// durable platform id are skipped; there is no row to attach them to.
func (s *Store) RecordCheck(ctx context.Context, handle string, platformKey string, platformID int64, result *core.PlatformCheckResult) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if result == nil || platformID == 0 {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		profileURL   any
		errorMessage any
		responseMs   any
	)
	if result.ProfileURL != "" {
		profileURL = result.ProfileURL
	}
	if result.ErrorMessage != "" {
		errorMessage = result.ErrorMessage
	}
	if result.ResponseMs > 0 {
		responseMs = result.ResponseMs
	}

	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO handle_checks (platform_id, handle, source, status, profile_url, error_message, response_ms, checked_at)
		VALUES (?, ?, 'manual', ?, ?, ?, ?, ?)
	`, platformID, handle, string(result.Status), profileURL, errorMessage, responseMs, result.CheckedAt.UTC().Unix())
	if err != nil {
		return fmt.Errorf("record check for %s: %w", platformKey, err)
	}

	return nil
}

// CheckRecord is one row of check history, joined with its platform key.
type CheckRecord struct {
	ID           int64     `json:"id"`
	Handle       string    `json:"handle"`
	PlatformKey  string    `json:"platformKey"`
	Status       string    `json:"status"`
	ProfileURL   string    `json:"profileUrl,omitempty"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	ResponseMs   int64     `json:"responseMs,omitempty"`
	Source       string    `json:"source"`
	CheckedAt    time.Time `json:"checkedAt"`
}

// RecentChecks returns the most recent check rows, newest first. An empty
// handle returns history across all handles.
func (s *Store) RecentChecks(ctx context.Context, handle string, limit int) ([]CheckRecord, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if limit <= 0 {
		limit = 20
	}

	if ctx == nil {
		ctx = context.Background()
	}

	query := `
		SELECT hc.id, hc.handle, p.key, hc.status, hc.profile_url, hc.error_message, hc.response_ms, hc.source, hc.checked_at
		FROM handle_checks hc
		JOIN platforms p ON p.id = hc.platform_id
	`
	args := []any{}
	if handle != "" {
		query += ` WHERE hc.handle = ?`
		args = append(args, handle)
	}
	query += ` ORDER BY hc.checked_at DESC, hc.id DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query check history: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []CheckRecord
	for rows.Next() {
		var (
			record       CheckRecord
			profileURL   sql.NullString
			errorMessage sql.NullString
			responseMs   sql.NullInt64
			checkedAt    int64
		)
		if err := rows.Scan(&record.ID, &record.Handle, &record.PlatformKey, &record.Status,
			&profileURL, &errorMessage, &responseMs, &record.Source, &checkedAt); err != nil {
			return nil, fmt.Errorf("scan check history row: %w", err)
		}
		record.ProfileURL = profileURL.String
		record.ErrorMessage = errorMessage.String
		record.ResponseMs = responseMs.Int64
		record.CheckedAt = time.Unix(checkedAt, 0).UTC()
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate check history: %w", err)
	}

	return records, nil
}

// RecordSuggestions stores generated suggestions for a platform, ignoring
// ones already known for that platform.
func (s *Store) RecordSuggestions(ctx context.Context, platformID int64, suggestions []string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if platformID == 0 || len(suggestions) == 0 {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()
	for _, suggestion := range suggestions {
		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO suggested_handles (platform_id, handle, status, source, created_at)
			VALUES (?, ?, 'suggested', 'auto', ?)
			ON CONFLICT(platform_id, handle) DO NOTHING
		`, platformID, suggestion, now)
		if err != nil {
			return fmt.Errorf("record suggestion %q: %w", suggestion, err)
		}
	}

	return nil
}
