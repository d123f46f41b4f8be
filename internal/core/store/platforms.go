package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/handlescope/handlescope/internal/core"
)

// PlatformsByKeys returns the durable platform rows matching keys, keyed by
// platform key.
func (s *Store) PlatformsByKeys(ctx context.Context, keys []string) (map[string]core.ResolvedPlatform, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}
	if len(keys) == 0 {
		return map[string]core.ResolvedPlatform{}, nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(keys)), ",")
	args := make([]any, 0, len(keys))
	for _, key := range keys {
		args = append(args, key)
	}

	// #nosec G201 -- placeholders is derived from len(keys), not user input
	query := fmt.Sprintf(`
		SELECT id, key, name, base_url, profile_url_template, handle_regex, sort_order
		FROM platforms
		WHERE key IN (%s)
	`, placeholders)

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("fetch platforms: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	out := make(map[string]core.ResolvedPlatform, len(keys))
	for rows.Next() {
		var (
			resolved    core.ResolvedPlatform
			handleRegex sql.NullString
		)
		if err := rows.Scan(
			&resolved.PlatformID,
			&resolved.Key,
			&resolved.Name,
			&resolved.BaseURL,
			&resolved.ProfileURLTemplate,
			&handleRegex,
			&resolved.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		resolved.HandleRegex = handleRegex.String
		out[resolved.Key] = resolved
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}

	return out, nil
}

// AllPlatforms returns every durable platform row in sort order.
func (s *Store) AllPlatforms(ctx context.Context) ([]core.ResolvedPlatform, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, key, name, base_url, profile_url_template, handle_regex, sort_order
		FROM platforms
		ORDER BY sort_order, key
	`)
	if err != nil {
		return nil, fmt.Errorf("fetch platforms: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var out []core.ResolvedPlatform
	for rows.Next() {
		var (
			resolved    core.ResolvedPlatform
			handleRegex sql.NullString
		)
		if err := rows.Scan(
			&resolved.PlatformID,
			&resolved.Key,
			&resolved.Name,
			&resolved.BaseURL,
			&resolved.ProfileURLTemplate,
			&handleRegex,
			&resolved.SortOrder,
		); err != nil {
			return nil, fmt.Errorf("scan platform: %w", err)
		}
		resolved.HandleRegex = handleRegex.String
		out = append(out, resolved)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate platforms: %w", err)
	}

	return out, nil
}

// InsertPlatformDefaults inserts built-in definitions that are not yet
// present. Existing rows win; the catalog never overwrites an operator edit.
func (s *Store) InsertPlatformDefaults(ctx context.Context, defs []core.PlatformDefinition) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}
	if len(defs) == 0 {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	now := time.Now().UTC().Unix()
	for _, def := range defs {
		var handleRegex any
		if def.HandleRegex != "" {
			handleRegex = def.HandleRegex
		}

		_, err := s.DB.ExecContext(ctx, `
			INSERT INTO platforms (key, name, base_url, profile_url_template, handle_regex, sort_order, status, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, 'active', ?)
			ON CONFLICT(key) DO NOTHING
		`, def.Key, def.Name, def.BaseURL, def.ProfileURLTemplate, handleRegex, def.SortOrder, now)
		if err != nil {
			return fmt.Errorf("insert platform %s: %w", def.Key, err)
		}
	}

	return nil
}
