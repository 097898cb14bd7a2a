package report

import (
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// Photos is an ordered list of local image references. Positions are the only
// identity a photo has.
type Photos struct {
	refs []string
}

// Append returns a copy with ref added at the end.
func (p Photos) Append(ref string) Photos {
	next := make([]string, 0, len(p.refs)+1)
	next = append(next, p.refs...)
	next = append(next, ref)
	return Photos{refs: next}
}

// Remove returns a copy without the photo at index.
func (p Photos) Remove(index int) (Photos, error) {
	if index < 0 || index >= len(p.refs) {
		return p, fmt.Errorf("%w: %d of %d", ErrPhotoIndex, index, len(p.refs))
	}
	next := make([]string, 0, len(p.refs)-1)
	next = append(next, p.refs[:index]...)
	next = append(next, p.refs[index+1:]...)
	return Photos{refs: next}, nil
}

// At returns the reference at index.
func (p Photos) At(index int) (string, bool) {
	if index < 0 || index >= len(p.refs) {
		return "", false
	}
	return p.refs[index], true
}

func (p Photos) Len() int {
	return len(p.refs)
}

// Refs returns a copy of the references in order.
func (p Photos) Refs() []string {
	return append([]string(nil), p.refs...)
}

// LocalPath turns a photo reference (plain path or file:// URI) into a path
// on disk.
func LocalPath(ref string) string {
	if strings.HasPrefix(ref, "file://") {
		if u, err := url.Parse(ref); err == nil && u.Path != "" {
			return filepath.FromSlash(u.Path)
		}
		return strings.TrimPrefix(ref, "file://")
	}
	return ref
}

// PhotoFileName derives the upload file name from the last segment of the
// reference, falling back to photo_<index>.jpg.
func PhotoFileName(ref string, index int) string {
	clean := strings.TrimRight(filepath.ToSlash(ref), "/")
	if i := strings.IndexAny(clean, "?#"); i >= 0 && strings.Contains(clean, "://") {
		clean = clean[:i]
	}
	name := path.Base(clean)
	if name == "" || name == "." || name == "/" || strings.HasSuffix(name, ":") {
		return fmt.Sprintf("photo_%d.jpg", index)
	}
	return name
}
