// Package capture implements the two ways a photo reaches a report: running
// a camera command and picking a file from the gallery directory. Both go
// through a permission decision first.
package capture

import (
	"database/sql"
	"errors"

	"fieldreport/internal/db"
)

// Source is a photo capability.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
)

// Label is the capitalized name used in alerts.
func (s Source) Label() string {
	switch s {
	case SourceCamera:
		return "Camera"
	case SourceGallery:
		return "Gallery"
	default:
		return string(s)
	}
}

// DeniedMessage is shown when the user refused access.
func (s Source) DeniedMessage() string {
	return s.Label() + " access denied"
}

// FailureMessage is shown when the capability itself failed.
func (s Source) FailureMessage() string {
	if s == SourceGallery {
		return "Unable to pick image. Please try again."
	}
	return "Unable to take photo. Please try again."
}

// Decision is a stored permission answer.
type Decision int

const (
	Undecided Decision = iota
	Granted
	Denied
)

// Result is the outcome of one capture or pick. Exactly one reference is
// returned unless the user cancelled.
type Result struct {
	Source    Source
	Cancelled bool
	Ref       string
}

var (
	ErrCameraUnavailable = errors.New("camera command not available")
	ErrGalleryUnreadable = errors.New("gallery directory not readable")
	ErrNotAnImage        = errors.New("not an image file")
)

// Permissions stores permission decisions.
type Permissions interface {
	Decision(source Source) (Decision, error)
	Decide(source Source, granted bool) error
}

type sqlitePermissions struct {
	db *sql.DB
}

// NewPermissions returns a Permissions backed by the local database.
func NewPermissions(database *sql.DB) Permissions {
	return &sqlitePermissions{db: database}
}

func (p *sqlitePermissions) Decision(source Source) (Decision, error) {
	granted, decided, err := db.GetPermission(p.db, string(source))
	if err != nil {
		return Undecided, err
	}
	if !decided {
		return Undecided, nil
	}
	if granted {
		return Granted, nil
	}
	return Denied, nil
}

func (p *sqlitePermissions) Decide(source Source, granted bool) error {
	return db.SetPermission(p.db, string(source), granted)
}

// ImageExtensions lists the file types accepted as photos.
var ImageExtensions = []string{".jpg", ".jpeg", ".png", ".heic", ".webp"}
