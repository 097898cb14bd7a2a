package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"fieldreport/internal/model"
)

// ReplaceDeliveries swaps the cached deliveries for a freshly fetched list,
// keeping the backend's order.
func ReplaceDeliveries(db *sql.DB, deliveries []model.Delivery) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin cache update: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("DELETE FROM deliveries"); err != nil {
		return fmt.Errorf("failed to clear delivery cache: %w", err)
	}

	query := `
		INSERT INTO deliveries (delivery_id, purchase_order_id, position, body)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(delivery_id) DO UPDATE SET
			purchase_order_id = excluded.purchase_order_id,
			position = excluded.position,
			body = excluded.body
	`
	for i, d := range deliveries {
		body, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("failed to encode delivery %s: %w", d.DeliveryID, err)
		}
		var po interface{}
		if d.PurchaseOrderID != "" {
			po = d.PurchaseOrderID
		}
		if _, err := tx.Exec(query, string(d.DeliveryID), po, i, string(body)); err != nil {
			return fmt.Errorf("failed to cache delivery %s: %w", d.DeliveryID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cache update: %w", err)
	}
	return nil
}

// ListCachedDeliveries returns cached deliveries joined with their latest
// submission.
func ListCachedDeliveries(db *sql.DB) ([]model.DeliveryRow, error) {
	query := `
		SELECT
			d.body,
			COALESCE(s.status, ''),
			COALESCE(s.submitted_at, '')
		FROM deliveries d
		LEFT JOIN submissions s ON s.id = (
			SELECT id FROM submissions
			WHERE delivery_id = d.delivery_id
			ORDER BY submitted_at DESC, id DESC
			LIMIT 1
		)
		ORDER BY d.position ASC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list deliveries: %w", err)
	}
	defer rows.Close()

	var results []model.DeliveryRow
	for rows.Next() {
		var body, status, at string
		if err := rows.Scan(&body, &status, &at); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}

		var row model.DeliveryRow
		if err := json.Unmarshal([]byte(body), &row.Delivery); err != nil {
			return nil, fmt.Errorf("failed to decode cached delivery: %w", err)
		}
		row.LastStatus = status
		row.LastAt = parseTimestamp(at)
		results = append(results, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery rows: %w", err)
	}

	return results, nil
}

func parseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.000Z"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
