package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"fieldreport/internal/capture"
	"fieldreport/internal/model"
	"fieldreport/internal/report"
	"fieldreport/internal/util"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Messages the report form sends to the root model.
type showAlertMsg struct {
	title string
	body  string
}

type captureRequestMsg struct {
	source capture.Source
}

type openPhotoMsg struct {
	index int
	ref   string
}

type submitRejectedMsg struct {
	err error
}

// ReportFormModel is the damage report screen of one delivery.
type ReportFormModel struct {
	backend      Backend
	composer     *report.Composer
	inputs       []textinput.Model
	comment      textarea.Model
	focusedField int
	photoCursor  int
	spinner      spinner.Model
	keys         FormKeyMap

	// pending describes the submission in flight.
	pending model.NewSubmission
}

// NewReportFormModel creates a report form with one damage input per product.
func NewReportFormModel(backend Backend, delivery model.Delivery) *ReportFormModel {
	composer := report.NewComposer(delivery)

	inputs := make([]textinput.Model, len(delivery.Products))
	for i, p := range delivery.Products {
		inputs[i] = textinput.New()
		inputs[i].Prompt = ""
		inputs[i].Placeholder = "Number of damages"
		inputs[i].CharLimit = 9
		inputs[i].Width = 10
		inputs[i].SetValue(composer.DamageDisplay(p.ID))
	}

	comment := textarea.New()
	comment.Placeholder = "Add any comments..."
	comment.CharLimit = 1000
	comment.ShowLineNumbers = false
	comment.SetHeight(4)

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := &ReportFormModel{
		backend:  backend,
		composer: composer,
		inputs:   inputs,
		comment:  comment,
		spinner:  sp,
		keys:     DefaultFormKeyMap(),
	}
	m.focus(0)
	return m
}

// Composer exposes the report state.
func (m *ReportFormModel) Composer() *report.Composer {
	return m.composer
}

func (m *ReportFormModel) commentField() int { return len(m.inputs) }
func (m *ReportFormModel) photosField() int  { return len(m.inputs) + 1 }
func (m *ReportFormModel) fieldCount() int   { return len(m.inputs) + 2 }

// Update handles all messages.
func (m ReportFormModel) Update(msg tea.Msg) (ReportFormModel, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		if !m.composer.Submitting() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.focusedField == m.commentField() {
		var cmd tea.Cmd
		m.comment, cmd = m.comment.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m ReportFormModel) handleKey(msg tea.KeyMsg) (ReportFormModel, tea.Cmd) {
	// The spinner replaces every action while a submission is in flight.
	if m.composer.Submitting() {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Submit):
		cmd := m.submit()
		return m, cmd
	case key.Matches(msg, m.keys.Camera):
		return m, requestCapture(capture.SourceCamera)
	case key.Matches(msg, m.keys.Gallery):
		return m, requestCapture(capture.SourceGallery)
	case key.Matches(msg, m.keys.Cancel):
		return m, func() tea.Msg { return model.ReportClosedMsg{} }
	case key.Matches(msg, m.keys.NextField):
		m.focus((m.focusedField + 1) % m.fieldCount())
		return m, nil
	case key.Matches(msg, m.keys.PrevField):
		m.focus((m.focusedField - 1 + m.fieldCount()) % m.fieldCount())
		return m, nil
	}

	switch {
	case m.focusedField == m.photosField():
		return m.handlePhotoKey(msg)
	case m.focusedField == m.commentField():
		var cmd tea.Cmd
		m.comment, cmd = m.comment.Update(msg)
		m.composer.SetComment(m.comment.Value())
		return m, cmd
	default:
		return m.handleDamageKey(msg)
	}
}

func (m ReportFormModel) handleDamageKey(msg tea.KeyMsg) (ReportFormModel, tea.Cmd) {
	idx := m.focusedField
	var cmd tea.Cmd
	m.inputs[idx], cmd = m.inputs[idx].Update(msg)

	product := m.composer.Delivery().Products[idx]
	edit, err := m.composer.SetDamage(product.ID, m.inputs[idx].Value())
	if err != nil {
		return m, func() tea.Msg { return model.ErrorMsg{Err: err} }
	}

	display := m.composer.DamageDisplay(product.ID)
	if m.inputs[idx].Value() != display {
		m.inputs[idx].SetValue(display)
		m.inputs[idx].CursorEnd()
	}

	if edit.Clamped {
		return m, tea.Batch(cmd, func() tea.Msg {
			return showAlertMsg{title: "Error", body: edit.Message()}
		})
	}
	return m, cmd
}

func (m ReportFormModel) handlePhotoKey(msg tea.KeyMsg) (ReportFormModel, tea.Cmd) {
	photos := m.composer.Photos()
	if photos.Len() == 0 {
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.PhotoLeft):
		if m.photoCursor > 0 {
			m.photoCursor--
		}
	case key.Matches(msg, m.keys.PhotoRight):
		if m.photoCursor < photos.Len()-1 {
			m.photoCursor++
		}
	case key.Matches(msg, m.keys.ViewPhoto):
		index := m.photoCursor
		ref, ok := photos.At(index)
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg { return openPhotoMsg{index: index, ref: ref} }
	case key.Matches(msg, m.keys.RemovePhoto):
		if err := m.composer.RemovePhoto(m.photoCursor); err != nil {
			return m, func() tea.Msg { return model.ErrorMsg{Err: err} }
		}
		m.clampPhotoCursor()
	}
	return m, nil
}

func requestCapture(source capture.Source) tea.Cmd {
	return func() tea.Msg { return captureRequestMsg{source: source} }
}

// AddPhoto appends a captured or picked photo and selects it.
func (m *ReportFormModel) AddPhoto(ref string) {
	m.composer.AddPhoto(ref)
	m.photoCursor = m.composer.Photos().Len() - 1
}

func (m *ReportFormModel) clampPhotoCursor() {
	n := m.composer.Photos().Len()
	if m.photoCursor >= n {
		m.photoCursor = n - 1
	}
	if m.photoCursor < 0 {
		m.photoCursor = 0
	}
}

func (m *ReportFormModel) focus(field int) {
	for i := range m.inputs {
		m.inputs[i].Blur()
	}
	m.comment.Blur()

	m.focusedField = field
	switch {
	case field < len(m.inputs):
		m.inputs[field].Focus()
	case field == m.commentField():
		m.comment.Focus()
	}
}

// submit starts the submission, or reports why it cannot start.
func (m *ReportFormModel) submit() tea.Cmd {
	payload, err := m.composer.BeginSubmit()
	if err != nil {
		if errors.Is(err, report.ErrSubmitInFlight) {
			return nil
		}
		return func() tea.Msg { return submitRejectedMsg{err: err} }
	}

	d := m.composer.Delivery()
	m.pending = model.NewSubmission{
		DeliveryID:      d.DeliveryID,
		PurchaseOrderID: d.PurchaseOrderID,
		PhotoCount:      m.composer.Photos().Len(),
		DamagedUnits:    m.composer.Counts().Total(),
		Notes:           payload.Notes,
	}

	return tea.Batch(m.spinner.Tick, submitReportCmd(m.backend, payload))
}

// FinishSubmit ends the in-flight submission and returns its record.
func (m *ReportFormModel) FinishSubmit(err error) model.NewSubmission {
	m.composer.FinishSubmit()
	rec := m.pending
	rec.Status = model.SubmissionSucceeded
	if err != nil {
		rec.Status = model.SubmissionFailed
		rec.Error = err.Error()
	}
	m.pending = model.NewSubmission{}
	return rec
}

// Reset clears the form after an acknowledged success.
func (m *ReportFormModel) Reset() {
	m.composer.Reset()
	for i, p := range m.composer.Delivery().Products {
		m.inputs[i].SetValue(m.composer.DamageDisplay(p.ID))
	}
	m.comment.Reset()
	m.photoCursor = 0
	m.focus(0)
}

func submitReportCmd(backend Backend, payload report.Payload) tea.Cmd {
	return func() tea.Msg {
		err := backend.UpdateDelivery(context.Background(), payload)
		return model.ReportSubmittedMsg{DeliveryID: payload.DeliveryID, Err: err}
	}
}

// View renders the form.
func (m *ReportFormModel) View(width, height int) string {
	d := m.composer.Delivery()
	inner := max(20, width-10)

	var sections []string
	sections = append(sections, lipgloss.JoinVertical(
		lipgloss.Left,
		LabelStyle.Render("Delivery ID: ")+string(d.DeliveryID),
		LabelStyle.Render("Purchase Order ID: ")+valueOr(d.PurchaseOrderID, "—"),
	))

	sections = append(sections, m.renderProducts(inner, height))

	commentStyle := BorderStyle
	if m.focusedField == m.commentField() {
		commentStyle = ActiveBorderStyle
	}
	m.comment.SetWidth(max(10, inner-4))
	sections = append(sections, commentStyle.Width(inner).Render(lipgloss.JoinVertical(
		lipgloss.Left,
		LabelStyle.Render("Comments (Optional):"),
		m.comment.View(),
	)))

	sections = append(sections, m.renderPhotos(inner))
	sections = append(sections, m.renderActions())

	return PanelStyle.
		Width(width - 4).
		Height(height - 4).
		Render(strings.Join(sections, "\n\n"))
}

func (m *ReportFormModel) renderProducts(width, height int) string {
	d := m.composer.Delivery()
	title := LabelStyle.Render("Damage Report:")
	if d.Malformed() || d.Products == nil {
		return lipgloss.JoinVertical(lipgloss.Left, title,
			ErrorStyle.Render("This delivery has no readable product list."))
	}
	if len(d.Products) == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, HelpDescStyle.Render("No products on this delivery."))
	}

	// Keep the focused product on screen when the list is long.
	visible := max(1, height-24)
	start := 0
	if m.focusedField < len(m.inputs) && m.focusedField >= visible {
		start = m.focusedField - visible + 1
	}
	end := min(len(d.Products), start+visible)

	nameWidth := max(12, width-36)
	lines := []string{title}
	if start > 0 {
		lines = append(lines, HelpDescStyle.Render(fmt.Sprintf("  ↑ %d more", start)))
	}
	for i := start; i < end; i++ {
		p := d.Products[i]
		marker := "  "
		inputStyle := BorderStyle
		if i == m.focusedField {
			marker = HelpKeyStyle.Render("❯ ")
			inputStyle = ActiveBorderStyle
		}
		name := lipgloss.NewStyle().Width(nameWidth).Render(util.TruncateString(p.DisplayName(), nameWidth))
		qty := QuantityStyle.Width(22).Render(fmt.Sprintf("Quantity Brought: %d", p.Quantity))
		input := inputStyle.BorderTop(false).BorderBottom(false).Render(m.inputs[i].View())
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Center, marker, name, qty, input))
	}
	if end < len(d.Products) {
		lines = append(lines, HelpDescStyle.Render(fmt.Sprintf("  ↓ %d more", len(d.Products)-end)))
	}
	return strings.Join(lines, "\n")
}

func (m *ReportFormModel) renderPhotos(width int) string {
	photos := m.composer.Photos()
	focused := m.focusedField == m.photosField()

	title := LabelStyle.Render("Photos (Optional):")
	if focused {
		title += "  " + HelpDescStyle.Render("←/→ select  enter view  x remove")
	}
	if photos.Len() == 0 {
		return lipgloss.JoinVertical(lipgloss.Left, title, HelpDescStyle.Render("No photos taken yet."))
	}

	var thumbs []string
	used := 0
	for i, ref := range photos.Refs() {
		style := ThumbStyle
		if focused && i == m.photoCursor {
			style = ActiveThumbStyle
		}
		thumb := style.Render(fmt.Sprintf("%d  %s", i+1, util.TruncateString(report.PhotoFileName(ref, i), 18)))
		used += lipgloss.Width(thumb)
		if used > width && len(thumbs) > 0 {
			thumbs = append(thumbs, HelpDescStyle.Render(fmt.Sprintf(" +%d", photos.Len()-i)))
			break
		}
		thumbs = append(thumbs, thumb)
	}
	return lipgloss.JoinVertical(lipgloss.Left, title, lipgloss.JoinHorizontal(lipgloss.Top, thumbs...),
		HelpDescStyle.Render(util.Pluralize(photos.Len(), "photo")+" attached"))
}

func (m *ReportFormModel) renderActions() string {
	if m.composer.Submitting() {
		return HelpKeyStyle.Render(m.spinner.View()) + " " + HelpDescStyle.Render("Submitting report...")
	}
	return strings.Join([]string{
		ButtonStyle.Render(helpKey("ctrl+t", "Take Photo")),
		ButtonStyle.Render(helpKey("ctrl+g", "Pick Image from Gallery")),
		ActiveButtonStyle.Render("ctrl+s  Submit Report"),
	}, " ")
}

func valueOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}
