package ui

import (
	"path/filepath"
	"strings"

	"fieldreport/internal/capture"

	"github.com/charmbracelet/bubbles/filepicker"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// GalleryModel is the image picker of a gallery capture flow.
type GalleryModel struct {
	flowID  int
	gallery *capture.Gallery
	picker  filepicker.Model
	notice  string
}

// NewGalleryModel opens a picker rooted at the gallery directory.
func NewGalleryModel(flowID int, gallery *capture.Gallery, height int) *GalleryModel {
	fp := filepicker.New()
	fp.CurrentDirectory = gallery.Dir()
	fp.AllowedTypes = allowedImageTypes()
	fp.ShowHidden = false
	fp.AutoHeight = false
	fp.Height = max(5, height-4)

	return &GalleryModel{flowID: flowID, gallery: gallery, picker: fp}
}

// allowedImageTypes lists the image extensions in both cases; the picker
// matches suffixes case-sensitively.
func allowedImageTypes() []string {
	types := make([]string, 0, len(capture.ImageExtensions)*2)
	for _, ext := range capture.ImageExtensions {
		types = append(types, ext, strings.ToUpper(ext))
	}
	return types
}

// Init reads the starting directory.
func (m *GalleryModel) Init() tea.Cmd {
	return m.picker.Init()
}

// Update handles all messages.
func (m GalleryModel) Update(msg tea.Msg) (GalleryModel, tea.Cmd) {
	// esc would navigate up in the picker; here it closes it.
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		return m, m.result("")
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		return m, tea.Batch(cmd, m.result(path))
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.notice = filepath.Base(path) + " is not an image"
		return m, cmd
	}
	return m, cmd
}

// result resolves the picked path (empty when closed) into the flow's
// capture result.
func (m *GalleryModel) result(path string) tea.Cmd {
	flowID, gallery := m.flowID, m.gallery
	return func() tea.Msg {
		res, err := gallery.Select(path)
		return captureResultMsg{flowID: flowID, result: res, err: err}
	}
}

// View renders the picker.
func (m *GalleryModel) View(width, height int) string {
	parts := []string{
		LabelStyle.Render("Pick an image"),
		HelpDescStyle.Render(m.picker.CurrentDirectory),
		"",
		m.picker.View(),
	}
	if m.notice != "" {
		parts = append(parts, "", WarningStyle.Render(m.notice))
	}
	return PanelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(lipgloss.JoinVertical(lipgloss.Left, parts...))
}
