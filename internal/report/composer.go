package report

import (
	"context"
	"fmt"

	"fieldreport/internal/model"
)

// Submitter sends a built payload to the backend.
type Submitter interface {
	UpdateDelivery(ctx context.Context, p Payload) error
}

// Composer holds the form state of one damage report.
type Composer struct {
	delivery   model.Delivery
	counts     DamageCounts
	comment    string
	photos     Photos
	submitting bool
}

// NewComposer creates an empty report for a delivery.
func NewComposer(d model.Delivery) *Composer {
	return &Composer{delivery: d}
}

func (c *Composer) Delivery() model.Delivery { return c.delivery }
func (c *Composer) Counts() DamageCounts     { return c.counts }
func (c *Composer) Comment() string          { return c.comment }
func (c *Composer) Photos() Photos           { return c.photos }
func (c *Composer) Submitting() bool         { return c.submitting }

// SetDamage applies typed input to one product's count, clamping it to the
// delivered quantity.
func (c *Composer) SetDamage(id model.ProductID, input string) (DamageEdit, error) {
	product, ok := c.product(id)
	if !ok {
		return DamageEdit{}, fmt.Errorf("unknown product %q", id)
	}
	edit := ClampDamage(ParseDamageInput(input), product.Quantity)
	c.counts = c.counts.With(id, edit.Value)
	return edit, nil
}

// DamageDisplay is the value shown in a product's input.
func (c *Composer) DamageDisplay(id model.ProductID) string {
	return c.counts.Encoded(id)
}

func (c *Composer) SetComment(s string) {
	c.comment = s
}

func (c *Composer) AddPhoto(ref string) {
	c.photos = c.photos.Append(ref)
}

func (c *Composer) RemovePhoto(index int) error {
	next, err := c.photos.Remove(index)
	if err != nil {
		return err
	}
	c.photos = next
	return nil
}

// Payload builds the form without changing state.
func (c *Composer) Payload() (Payload, error) {
	return BuildPayload(c.delivery, c.counts, c.comment, c.photos)
}

// BeginSubmit builds the payload and marks the report as in flight. It fails
// without side effects when a submission is already running or the delivery
// is malformed.
func (c *Composer) BeginSubmit() (Payload, error) {
	if c.submitting {
		return Payload{}, ErrSubmitInFlight
	}
	p, err := c.Payload()
	if err != nil {
		return Payload{}, err
	}
	c.submitting = true
	return p, nil
}

// FinishSubmit clears the in-flight flag. Form state is left untouched so a
// failed report can be retried; callers Reset after a success is acknowledged.
func (c *Composer) FinishSubmit() {
	c.submitting = false
}

// Reset clears photos, comment and damage counts.
func (c *Composer) Reset() {
	c.counts = DamageCounts{}
	c.comment = ""
	c.photos = Photos{}
}

// Submit runs a full submission synchronously: on success the form is reset,
// on failure it is kept.
func (c *Composer) Submit(ctx context.Context, s Submitter) error {
	p, err := c.BeginSubmit()
	if err != nil {
		return err
	}
	err = s.UpdateDelivery(ctx, p)
	c.FinishSubmit()
	if err != nil {
		return err
	}
	c.Reset()
	return nil
}

func (c *Composer) product(id model.ProductID) (model.Product, bool) {
	for _, p := range c.delivery.Products {
		if p.ID == id {
			return p, true
		}
	}
	return model.Product{}, false
}
