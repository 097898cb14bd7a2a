package ui

import (
	"fmt"

	"fieldreport/internal/report"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type photoRenderedMsg struct {
	ref string
	art string
	err error
}

// PhotoViewerModel shows one attached photo full screen. It never changes
// the report.
type PhotoViewerModel struct {
	index   int
	ref     string
	art     string
	err     error
	loading bool
}

// NewPhotoViewerModel creates a viewer for the photo at index.
func NewPhotoViewerModel(index int, ref string) *PhotoViewerModel {
	return &PhotoViewerModel{index: index, ref: ref, loading: true}
}

func renderPhotoCmd(ref string, width, height int) tea.Cmd {
	return func() tea.Msg {
		art, err := renderPhoto(ref, width, height)
		return photoRenderedMsg{ref: ref, art: art, err: err}
	}
}

// Rendered stores the preview for the current photo. Results for another
// photo are ignored.
func (m *PhotoViewerModel) Rendered(msg photoRenderedMsg) {
	if msg.ref != m.ref {
		return
	}
	m.loading = false
	m.art = msg.art
	m.err = msg.err
}

// View renders the viewer.
func (m *PhotoViewerModel) View(width, height int) string {
	title := LabelStyle.Render(fmt.Sprintf("Photo %d", m.index+1)) + "  " +
		HelpDescStyle.Render(report.PhotoFileName(m.ref, m.index))

	var body string
	switch {
	case m.loading:
		body = HelpDescStyle.Render("Loading preview...")
	case m.err != nil:
		body = ErrorStyle.Render("Preview unavailable: " + m.err.Error())
	default:
		body = m.art
	}

	content := lipgloss.JoinVertical(lipgloss.Left, title, "", body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
