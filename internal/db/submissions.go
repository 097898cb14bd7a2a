package db

import (
	"database/sql"
	"fmt"

	"fieldreport/internal/model"
)

// InsertSubmission records the outcome of a report submission.
func InsertSubmission(db *sql.DB, s model.NewSubmission) (int64, error) {
	query := `
		INSERT INTO submissions (delivery_id, purchase_order_id, status, photo_count, damaged_units, notes, error)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var po, notes, errText interface{}
	if s.PurchaseOrderID != "" {
		po = s.PurchaseOrderID
	}
	if s.Notes != "" {
		notes = s.Notes
	}
	if s.Error != "" {
		errText = s.Error
	}

	result, err := db.Exec(query, string(s.DeliveryID), po, string(s.Status), s.PhotoCount, s.DamagedUnits, notes, errText)
	if err != nil {
		return 0, fmt.Errorf("failed to insert submission: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to get last insert id: %w", err)
	}

	return id, nil
}

// ListSubmissions returns the submission history, newest first.
func ListSubmissions(db *sql.DB) ([]model.Submission, error) {
	query := `
		SELECT id, delivery_id, COALESCE(purchase_order_id, ''), status, photo_count,
			damaged_units, COALESCE(notes, ''), COALESCE(error, ''), submitted_at
		FROM submissions
		ORDER BY submitted_at DESC, id DESC
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}
	defer rows.Close()

	var results []model.Submission
	for rows.Next() {
		var s model.Submission
		var deliveryID, status, submittedAt string
		if err := rows.Scan(&s.ID, &deliveryID, &s.PurchaseOrderID, &status, &s.PhotoCount,
			&s.DamagedUnits, &s.Notes, &s.Error, &submittedAt); err != nil {
			return nil, fmt.Errorf("failed to scan submission row: %w", err)
		}
		s.DeliveryID = model.DeliveryID(deliveryID)
		s.Status = model.SubmissionStatus(status)
		s.SubmittedAt = parseTimestamp(submittedAt)
		results = append(results, s)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating submission rows: %w", err)
	}

	return results, nil
}
