package ui

import (
	"fmt"
	"image"

	"fieldreport/internal/report"

	"github.com/disintegration/imaging"
	"github.com/qeesung/image2ascii/convert"
)

// renderPhoto decodes the image behind ref and draws it as colored ASCII art
// inside a width x height cell box, keeping its aspect ratio.
func renderPhoto(ref string, width, height int) (string, error) {
	if width < 4 || height < 2 {
		return "", fmt.Errorf("window too small for preview")
	}

	img, err := imaging.Open(report.LocalPath(ref), imaging.AutoOrientation(true))
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}

	cols, rows := fitCells(img.Bounds(), width, height)
	// Downscale camera-sized images before conversion.
	img = imaging.Fit(img, cols*2, rows*4, imaging.Lanczos)

	return convertToASCII(img, cols, rows), nil
}

// fitCells scales bounds into the cell box. Cells are about twice as tall as
// they are wide.
func fitCells(b image.Rectangle, width, height int) (int, int) {
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return width, height
	}
	cols := width
	rows := h * width / w / 2
	if rows > height {
		rows = height
		cols = w * height * 2 / h
	}
	return max(1, cols), max(1, rows)
}

// convertToASCII converts an image to colored ASCII art.
func convertToASCII(img image.Image, targetWidth, targetHeight int) string {
	converter := convert.NewImageConverter()

	opts := convert.DefaultOptions
	opts.FixedWidth = targetWidth
	opts.FixedHeight = targetHeight
	opts.Colored = true

	return converter.Image2ASCIIString(img, &opts)
}
