package capture

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Gallery is a directory of photos the user can pick from.
type Gallery struct {
	dir string
}

// NewGallery creates a gallery rooted at dir.
func NewGallery(dir string) *Gallery {
	return &Gallery{dir: dir}
}

// Dir returns the gallery root.
func (g *Gallery) Dir() string {
	return g.dir
}

// Available checks that the directory can be listed.
func (g *Gallery) Available() error {
	info, err := os.Stat(g.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGalleryUnreadable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrGalleryUnreadable, g.dir)
	}
	f, err := os.Open(g.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGalleryUnreadable, err)
	}
	defer f.Close()
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %v", ErrGalleryUnreadable, err)
	}
	return nil
}

// Select validates a picked file. An empty path means the picker was closed.
func (g *Gallery) Select(path string) (Result, error) {
	if strings.TrimSpace(path) == "" {
		return Result{Source: SourceGallery, Cancelled: true}, nil
	}
	if !IsImage(path) {
		return Result{Source: SourceGallery}, fmt.Errorf("%w: %s", ErrNotAnImage, filepath.Base(path))
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Result{Source: SourceGallery}, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if !fileHasContent(abs) {
		return Result{Source: SourceGallery}, fmt.Errorf("failed to read %s: empty or missing file", abs)
	}
	return Result{Source: SourceGallery, Ref: abs}, nil
}

// IsImage reports whether path has one of the accepted extensions.
func IsImage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range ImageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
