package db

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
)

// placeholder renders the n-th (1-based) bind parameter for a SQL dialect.
type placeholder func(n int) string

func questionMark(int) string { return "?" }

func dollar(n int) string { return fmt.Sprintf("$%d", n) }

func getValues(ctx context.Context, db *sql.DB, ph placeholder, keys []string) (map[string]string, error) {
	query := fmt.Sprintf(`SELECT value FROM watermarks WHERE key = %s`, ph(1))

	values := make(map[string]string, len(keys))
	for _, k := range keys {
		var v string
		err := db.QueryRowContext(ctx, query, k).Scan(&v)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", k, err)
		}
		values[k] = v
	}
	return values, nil
}

func setValues(ctx context.Context, db *sql.DB, ph placeholder, values map[string]string) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`INSERT INTO watermarks (key, value, updated_at) VALUES (%s, %s, CURRENT_TIMESTAMP)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`, ph(1), ph(2))

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, query, k, values[k]); err != nil {
			return fmt.Errorf("failed to write %s: %w", k, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit state: %w", err)
	}
	return nil
}
