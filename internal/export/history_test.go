package export

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"fieldreport/internal/model"
)

func TestHistory_WritesHeaderAndRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.xlsx")
	at := time.Date(2024, 3, 1, 14, 5, 0, 0, time.UTC)
	subs := []model.Submission{
		{ID: 2, DeliveryID: "42", PurchaseOrderID: "PO-9", Status: model.SubmissionFailed, PhotoCount: 1, DamagedUnits: 3, Notes: "no comment", Error: "API error: status 500", SubmittedAt: at},
		{ID: 1, DeliveryID: "41", Status: model.SubmissionSucceeded, SubmittedAt: at.Add(-time.Hour)},
	}

	if err := History(subs, path); err != nil {
		t.Fatalf("History: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header plus 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Submitted At" || rows[0][7] != "Error" {
		t.Fatalf("unexpected header %v", rows[0])
	}
	first := rows[1]
	if first[1] != "42" || first[2] != "PO-9" || first[3] != "failed" || first[4] != "1" || first[5] != "3" {
		t.Fatalf("unexpected first row %v", first)
	}
	if first[7] != "API error: status 500" {
		t.Fatalf("unexpected error cell %q", first[7])
	}
	if rows[2][1] != "41" || rows[2][3] != "succeeded" {
		t.Fatalf("unexpected second row %v", rows[2])
	}
}

func TestHistory_EmptyStillHasHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.xlsx")
	if err := History(nil, path); err != nil {
		t.Fatalf("History: %v", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("GetRows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected only header, got %d rows", len(rows))
	}
}
