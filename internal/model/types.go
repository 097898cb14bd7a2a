package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DeliveryID identifies a delivery on the backend. The backend sends it as a
// JSON number or string; it is kept in its decimal/string form.
type DeliveryID string

// ProductID identifies a product within a delivery.
type ProductID string

func (id *DeliveryID) UnmarshalJSON(data []byte) error {
	s, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("invalid delivery_id: %w", err)
	}
	*id = DeliveryID(s)
	return nil
}

func (id *ProductID) UnmarshalJSON(data []byte) error {
	s, err := decodeID(data)
	if err != nil {
		return fmt.Errorf("invalid product_id: %w", err)
	}
	*id = ProductID(s)
	return nil
}

func (id DeliveryID) MarshalJSON() ([]byte, error) { return encodeID(string(id)) }
func (id ProductID) MarshalJSON() ([]byte, error)  { return encodeID(string(id)) }

func decodeID(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return "", nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return "", err
		}
		return strings.TrimSpace(s), nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// encodeID writes numeric ids back as JSON numbers so cached deliveries
// round-trip in the shape the backend sent them. Only canonical integers
// qualify; "007" or "+5" stay strings.
func encodeID(s string) ([]byte, error) {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil && strconv.FormatInt(n, 10) == s {
		return []byte(s), nil
	}
	return json.Marshal(s)
}

// Product is one line of a delivery.
type Product struct {
	ID          ProductID `json:"product_id" validate:"required"`
	ProductName string    `json:"product_name,omitempty"`
	Name        string    `json:"name,omitempty"`
	Quantity    int       `json:"quantity" validate:"min=0"`
}

// DisplayName returns product_name, then name, then a placeholder.
func (p Product) DisplayName() string {
	if n := strings.TrimSpace(p.ProductName); n != "" {
		return n
	}
	if n := strings.TrimSpace(p.Name); n != "" {
		return n
	}
	return "Unnamed Product"
}

// Delivery is a shipment with the products to inspect. It is read-only once
// received.
type Delivery struct {
	DeliveryID      DeliveryID `json:"delivery_id" validate:"required"`
	PurchaseOrderID string     `json:"purchase_order_id"`
	Products        []Product  `json:"products" validate:"required,dive"`

	// malformed is set when "products" was present but not a JSON array of
	// products.
	malformed bool
}

type deliveryJSON struct {
	DeliveryID      DeliveryID      `json:"delivery_id"`
	PurchaseOrderID json.RawMessage `json:"purchase_order_id"`
	Products        json.RawMessage `json:"products"`
}

// UnmarshalJSON accepts deliveries whose products field is missing or not an
// array so they can still be shown; such deliveries fail validation later.
func (d *Delivery) UnmarshalJSON(data []byte) error {
	var raw deliveryJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	out := Delivery{DeliveryID: raw.DeliveryID}
	if len(raw.PurchaseOrderID) > 0 {
		po, err := decodeID(raw.PurchaseOrderID)
		if err != nil {
			return fmt.Errorf("invalid purchase_order_id: %w", err)
		}
		out.PurchaseOrderID = po
	}

	trimmed := bytes.TrimSpace(raw.Products)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		// missing: Products stays nil
	case trimmed[0] == '[':
		products := []Product{}
		if err := json.Unmarshal(trimmed, &products); err != nil {
			// Shown but never submitted, like a non-array product list.
			out.malformed = true
			break
		}
		out.Products = products
	default:
		out.malformed = true
	}

	*d = out
	return nil
}

// Malformed reports whether the products field could not be decoded.
func (d Delivery) Malformed() bool {
	return d.malformed
}

// TotalQuantity sums delivered quantities.
func (d Delivery) TotalQuantity() int {
	total := 0
	for _, p := range d.Products {
		total += p.Quantity
	}
	return total
}

// DeliveryRow is a delivery joined with its latest submission for list display.
type DeliveryRow struct {
	Delivery   Delivery
	LastStatus string
	LastAt     time.Time
}

// SubmissionStatus is the outcome of one report submission.
type SubmissionStatus string

const (
	SubmissionSucceeded SubmissionStatus = "succeeded"
	SubmissionFailed    SubmissionStatus = "failed"
)

// Submission records the outcome of a report submission.
type Submission struct {
	ID              int64
	DeliveryID      DeliveryID
	PurchaseOrderID string
	Status          SubmissionStatus
	PhotoCount      int
	DamagedUnits    int
	Notes           string
	Error           string
	SubmittedAt     time.Time
}

// NewSubmission represents data for recording a submission.
type NewSubmission struct {
	DeliveryID      DeliveryID
	PurchaseOrderID string
	Status          SubmissionStatus
	PhotoCount      int
	DamagedUnits    int
	Notes           string
	Error           string
}
