package db

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"fieldreport/internal/model"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	database, err := Open(filepath.Join(t.TempDir(), "fieldreport.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { database.Close() })
	return database
}

func TestOpen_IsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fieldreport.db")
	for i := 0; i < 2; i++ {
		database, err := Open(path)
		if err != nil {
			t.Fatalf("open #%d: %v", i, err)
		}
		database.Close()
	}
}

func TestReplaceDeliveries_KeepsOrderAndJoinsLatestSubmission(t *testing.T) {
	database := openTestDB(t)

	deliveries := []model.Delivery{
		{DeliveryID: "9", PurchaseOrderID: "PO-9", Products: []model.Product{{ID: "1", ProductName: "Chairs", Quantity: 4}}},
		{DeliveryID: "3", Products: []model.Product{}},
	}
	if err := ReplaceDeliveries(database, deliveries); err != nil {
		t.Fatalf("ReplaceDeliveries: %v", err)
	}

	if _, err := InsertSubmission(database, model.NewSubmission{DeliveryID: "9", Status: model.SubmissionFailed, Error: "status 500"}); err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := InsertSubmission(database, model.NewSubmission{DeliveryID: "9", Status: model.SubmissionSucceeded, PhotoCount: 2}); err != nil {
		t.Fatalf("InsertSubmission: %v", err)
	}

	rows, err := ListCachedDeliveries(database)
	if err != nil {
		t.Fatalf("ListCachedDeliveries: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Delivery.DeliveryID != "9" || rows[1].Delivery.DeliveryID != "3" {
		t.Fatalf("order not kept: %s, %s", rows[0].Delivery.DeliveryID, rows[1].Delivery.DeliveryID)
	}
	if rows[0].LastStatus != string(model.SubmissionSucceeded) || rows[0].LastAt.IsZero() {
		t.Fatalf("expected latest succeeded submission, got %q at %v", rows[0].LastStatus, rows[0].LastAt)
	}
	if rows[1].LastStatus != "" {
		t.Fatalf("expected no submission for delivery 3, got %q", rows[1].LastStatus)
	}
	if got := rows[0].Delivery.Products[0].DisplayName(); got != "Chairs" {
		t.Fatalf("cached product name lost: %q", got)
	}

	if err := ReplaceDeliveries(database, deliveries[1:]); err != nil {
		t.Fatalf("ReplaceDeliveries: %v", err)
	}
	rows, err = ListCachedDeliveries(database)
	if err != nil {
		t.Fatalf("ListCachedDeliveries: %v", err)
	}
	if len(rows) != 1 || rows[0].Delivery.DeliveryID != "3" {
		t.Fatalf("stale deliveries kept: %+v", rows)
	}
}

func TestReplaceDeliveries_LeadingZeroIDsSurviveCache(t *testing.T) {
	database := openTestDB(t)

	in := []model.Delivery{{DeliveryID: "007", Products: []model.Product{{ID: "01", Quantity: 2}}}}
	if err := ReplaceDeliveries(database, in); err != nil {
		t.Fatalf("ReplaceDeliveries: %v", err)
	}

	rows, err := ListCachedDeliveries(database)
	if err != nil {
		t.Fatalf("ListCachedDeliveries: %v", err)
	}
	if len(rows) != 1 || rows[0].Delivery.DeliveryID != "007" || rows[0].Delivery.Products[0].ID != "01" {
		t.Fatalf("cached rows = %+v", rows)
	}
}

func TestListSubmissions_NewestFirst(t *testing.T) {
	database := openTestDB(t)

	for i, status := range []model.SubmissionStatus{model.SubmissionFailed, model.SubmissionSucceeded} {
		_, err := InsertSubmission(database, model.NewSubmission{
			DeliveryID:   "42",
			Status:       status,
			DamagedUnits: i + 1,
			Notes:        "no comment",
		})
		if err != nil {
			t.Fatalf("InsertSubmission: %v", err)
		}
	}

	subs, err := ListSubmissions(database)
	if err != nil {
		t.Fatalf("ListSubmissions: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("expected 2 submissions, got %d", len(subs))
	}
	if subs[0].Status != model.SubmissionSucceeded || subs[0].DamagedUnits != 2 {
		t.Fatalf("unexpected newest submission %+v", subs[0])
	}
	if subs[1].Notes != "no comment" || subs[1].PurchaseOrderID != "" {
		t.Fatalf("unexpected older submission %+v", subs[1])
	}
}

func TestInsertSubmission_RejectsUnknownStatus(t *testing.T) {
	database := openTestDB(t)
	if _, err := InsertSubmission(database, model.NewSubmission{DeliveryID: "1", Status: "pending"}); err == nil {
		t.Fatalf("expected check constraint failure")
	}
}

func TestPermissions_DecideAndReset(t *testing.T) {
	database := openTestDB(t)

	if _, decided, err := GetPermission(database, "camera"); err != nil || decided {
		t.Fatalf("expected undecided, got decided=%v err=%v", decided, err)
	}
	if err := SetPermission(database, "camera", false); err != nil {
		t.Fatalf("SetPermission: %v", err)
	}
	if err := SetPermission(database, "camera", true); err != nil {
		t.Fatalf("SetPermission: %v", err)
	}
	granted, decided, err := GetPermission(database, "camera")
	if err != nil || !decided || !granted {
		t.Fatalf("expected granted, got granted=%v decided=%v err=%v", granted, decided, err)
	}
	if err := ResetPermissions(database); err != nil {
		t.Fatalf("ResetPermissions: %v", err)
	}
	if _, decided, _ := GetPermission(database, "camera"); decided {
		t.Fatalf("decision survived reset")
	}
}
