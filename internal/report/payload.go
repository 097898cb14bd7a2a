package report

import (
	"errors"
	"fmt"
	"strings"

	"fieldreport/internal/model"

	"github.com/go-playground/validator/v10"
)

// NoComment is sent as notes when the comment is blank.
const NoComment = "no comment"

// ImageContentType is the content type every image part is sent with.
const ImageContentType = "image/jpeg"

var (
	ErrMalformedDelivery = errors.New("malformed delivery")
	ErrSubmitInFlight    = errors.New("submission already in progress")
	ErrPhotoIndex        = errors.New("photo index out of range")
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Field is one text part of the multipart form.
type Field struct {
	Name  string
	Value string
}

// DamageEntry is the reported damage for one product.
type DamageEntry struct {
	ProductID   model.ProductID
	NoOfDamages string
}

// ImagePart is one file part of the multipart form.
type ImagePart struct {
	Ref         string
	FileName    string
	ContentType string
}

// Payload is the update-delivery form built at submit time.
type Payload struct {
	DeliveryID model.DeliveryID
	Notes      string
	Damages    []DamageEntry
	Images     []ImagePart
}

// Fields returns the text parts in wire order: notes, then one
// damages[i][product_id] / damages[i][no_of_damages] pair per product.
func (p Payload) Fields() []Field {
	fields := make([]Field, 0, 1+2*len(p.Damages))
	fields = append(fields, Field{Name: "notes", Value: p.Notes})
	for i, d := range p.Damages {
		fields = append(fields,
			Field{Name: fmt.Sprintf("damages[%d][product_id]", i), Value: string(d.ProductID)},
			Field{Name: fmt.Sprintf("damages[%d][no_of_damages]", i), Value: d.NoOfDamages},
		)
	}
	return fields
}

// ImageFieldName is the shared field name of the image parts.
const ImageFieldName = "images[]"

// ValidateDelivery checks that a delivery can be reported on.
func ValidateDelivery(d model.Delivery) error {
	if d.Malformed() {
		return fmt.Errorf("%w: products is not a list", ErrMalformedDelivery)
	}
	if err := validate.Struct(d); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%w: %s failed on %s", ErrMalformedDelivery, verrs[0].Namespace(), verrs[0].Tag())
		}
		return fmt.Errorf("%w: %v", ErrMalformedDelivery, err)
	}
	return nil
}

// BuildPayload assembles the form for a delivery. Every product gets a damage
// entry, undamaged ones with "0".
func BuildPayload(d model.Delivery, counts DamageCounts, comment string, photos Photos) (Payload, error) {
	if err := ValidateDelivery(d); err != nil {
		return Payload{}, err
	}

	notes := strings.TrimSpace(comment)
	if notes == "" {
		notes = NoComment
	}

	p := Payload{
		DeliveryID: d.DeliveryID,
		Notes:      notes,
		Damages:    make([]DamageEntry, 0, len(d.Products)),
		Images:     make([]ImagePart, 0, photos.Len()),
	}
	for _, product := range d.Products {
		p.Damages = append(p.Damages, DamageEntry{
			ProductID:   product.ID,
			NoOfDamages: counts.Encoded(product.ID),
		})
	}
	for i, ref := range photos.Refs() {
		p.Images = append(p.Images, ImagePart{
			Ref:         ref,
			FileName:    PhotoFileName(ref, i),
			ContentType: ImageContentType,
		})
	}
	return p, nil
}
