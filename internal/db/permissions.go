package db

import (
	"database/sql"
	"errors"
	"fmt"
)

// GetPermission returns the stored decision for a capability source.
// decided is false when the user was never asked.
func GetPermission(db *sql.DB, source string) (granted bool, decided bool, err error) {
	var g int64
	err = db.QueryRow("SELECT granted FROM permissions WHERE source = ?", source).Scan(&g)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to get permission: %w", err)
	}
	return g == 1, true, nil
}

// SetPermission stores the user's decision for a capability source.
func SetPermission(db *sql.DB, source string, granted bool) error {
	query := `
		INSERT INTO permissions (source, granted, decided_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ','now'))
		ON CONFLICT(source) DO UPDATE SET
			granted = excluded.granted,
			decided_at = excluded.decided_at
	`
	g := 0
	if granted {
		g = 1
	}
	if _, err := db.Exec(query, source, g); err != nil {
		return fmt.Errorf("failed to set permission: %w", err)
	}
	return nil
}

// ResetPermissions forgets every stored decision.
func ResetPermissions(db *sql.DB) error {
	if _, err := db.Exec("DELETE FROM permissions"); err != nil {
		return fmt.Errorf("failed to reset permissions: %w", err)
	}
	return nil
}
