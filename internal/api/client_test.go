package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"fieldreport/internal/model"
	"fieldreport/internal/report"
)

func writePhoto(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatalf("write photo: %v", err)
	}
	return p
}

func examplePayload(t *testing.T, photos ...string) report.Payload {
	t.Helper()
	c := report.NewComposer(model.Delivery{
		DeliveryID: "42",
		Products: []model.Product{
			{ID: "1", Quantity: 5},
			{ID: "2", Quantity: 3},
		},
	})
	if _, err := c.SetDamage("1", "3"); err != nil {
		t.Fatalf("SetDamage: %v", err)
	}
	for _, p := range photos {
		c.AddPhoto(p)
	}
	p, err := c.Payload()
	if err != nil {
		t.Fatalf("Payload: %v", err)
	}
	return p
}

func TestUpdateDelivery_PostsMultipartForm(t *testing.T) {
	dir := t.TempDir()
	first := writePhoto(t, dir, "crate.jpg", "jpeg-bytes-1")
	second := writePhoto(t, dir, "label.jpg", "jpeg-bytes-2")

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/api/update-delivery/42" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected auth header %q", got)
		}
		if !strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
			t.Errorf("unexpected content type %q", r.Header.Get("Content-Type"))
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
			return
		}
		want := map[string]string{
			"notes":                     "no comment",
			"damages[0][product_id]":    "1",
			"damages[0][no_of_damages]": "3",
			"damages[1][product_id]":    "2",
			"damages[1][no_of_damages]": "0",
		}
		for k, v := range want {
			if got := r.FormValue(k); got != v {
				t.Errorf("field %s: expected %q, got %q", k, v, got)
			}
		}
		files := r.MultipartForm.File["images[]"]
		if len(files) != 2 {
			t.Errorf("expected 2 images, got %d", len(files))
			return
		}
		if files[0].Filename != "crate.jpg" || files[1].Filename != "label.jpg" {
			t.Errorf("unexpected file names %q %q", files[0].Filename, files[1].Filename)
		}
		if ct := files[0].Header.Get("Content-Type"); ct != "image/jpeg" {
			t.Errorf("unexpected image content type %q", ct)
		}
		f, _ := files[1].Open()
		data, _ := io.ReadAll(f)
		f.Close()
		if string(data) != "jpeg-bytes-2" {
			t.Errorf("unexpected image body %q", data)
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	client := NewClient(srv.URL+"/", WithToken("secret"))
	if err := client.UpdateDelivery(context.Background(), examplePayload(t, first, "file://"+second)); err != nil {
		t.Fatalf("UpdateDelivery: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Fatalf("expected exactly one request, got %d", calls)
	}
}

func TestUpdateDelivery_NonSuccessReturnsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"message":"invalid damages"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL).UpdateDelivery(context.Background(), examplePayload(t))
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusUnprocessableEntity || !strings.Contains(statusErr.Body, "invalid damages") {
		t.Fatalf("unexpected status error %+v", statusErr)
	}
}

func TestUpdateDelivery_MissingPhotoFailsBeforeRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	missing := filepath.Join(t.TempDir(), "gone.jpg")
	err := NewClient(srv.URL).UpdateDelivery(context.Background(), examplePayload(t, missing))
	if err == nil {
		t.Fatalf("expected error for missing photo")
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("request sent despite missing photo")
	}
}

func TestUpdateDelivery_SubmitTimeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	client := NewClient(srv.URL, WithSubmitTimeout(50*time.Millisecond))
	err := client.UpdateDelivery(context.Background(), examplePayload(t))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestListDeliveries_DecodesFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/deliveries" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"delivery_id": 42, "purchase_order_id": 7, "products": [{"product_id": 1, "product_name": "Chairs", "quantity": 5}]},
			{"delivery_id": "D-2", "products": "broken"}
		]`))
	}))
	defer srv.Close()

	deliveries, err := NewClient(srv.URL).ListDeliveries(context.Background())
	if err != nil {
		t.Fatalf("ListDeliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if deliveries[0].DeliveryID != "42" || deliveries[0].PurchaseOrderID != "7" {
		t.Fatalf("unexpected first delivery %+v", deliveries[0])
	}
	if !deliveries[1].Malformed() {
		t.Fatalf("expected second delivery to be malformed")
	}
}

func TestListDeliveries_BadProductKeepsRestOfFeed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"delivery_id": 1, "products": [{"product_id": 10, "quantity": 3}]},
			{"delivery_id": 2, "products": [{"product_id": 11, "quantity": "4"}]}
		]`))
	}))
	defer srv.Close()

	deliveries, err := NewClient(srv.URL).ListDeliveries(context.Background())
	if err != nil {
		t.Fatalf("ListDeliveries: %v", err)
	}
	if len(deliveries) != 2 {
		t.Fatalf("expected 2 deliveries, got %d", len(deliveries))
	}
	if deliveries[0].Malformed() || len(deliveries[0].Products) != 1 {
		t.Fatalf("expected first delivery intact, got %+v", deliveries[0])
	}
	if !deliveries[1].Malformed() || deliveries[1].DeliveryID != "2" {
		t.Fatalf("expected second delivery shown as malformed, got %+v", deliveries[1])
	}
}

func TestListDeliveries_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).ListDeliveries(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 StatusError, got %v", err)
	}
}
