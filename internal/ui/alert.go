package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// alertModel is a blocking message with a single OK button. onOK runs when
// it is dismissed.
type alertModel struct {
	title string
	body  string
	onOK  tea.Cmd
}

func newAlert(title, body string, onOK tea.Cmd) *alertModel {
	return &alertModel{title: title, body: body, onOK: onOK}
}

// Update reports whether the alert was dismissed and the command to run.
func (a *alertModel) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "enter", "esc", " ", "o":
		return true, a.onOK
	}
	return false, nil
}

func (a *alertModel) View(width, height int) string {
	parts := []string{LabelStyle.Render(a.title), ""}
	if a.body != "" {
		parts = append(parts,
			lipgloss.NewStyle().Width(min(56, max(20, width-12))).Align(lipgloss.Center).Render(a.body),
			"",
		)
	}
	parts = append(parts, ActiveButtonStyle.Render("OK"))
	content := lipgloss.JoinVertical(lipgloss.Center, parts...)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, ModalStyle.Render(content))
}

// confirmModel asks a yes/no question. esc dismisses it without an answer.
type confirmModel struct {
	title    string
	body     string
	yesLabel string
	noLabel  string
	focusYes bool

	onYes    tea.Cmd
	onNo     tea.Cmd
	onCancel tea.Cmd
}

// Update reports whether the modal closed and the command to run.
func (c *confirmModel) Update(msg tea.KeyMsg) (bool, tea.Cmd) {
	switch msg.String() {
	case "left", "right", "tab", "shift+tab", "h", "l":
		c.focusYes = !c.focusYes
		return false, nil
	case "y":
		return true, c.onYes
	case "n":
		return true, c.onNo
	case "enter":
		if c.focusYes {
			return true, c.onYes
		}
		return true, c.onNo
	case "esc":
		return true, c.onCancel
	}
	return false, nil
}

func (c *confirmModel) View(width, height int) string {
	yes, no := ButtonStyle, ButtonStyle
	if c.focusYes {
		yes = ActiveButtonStyle
	} else {
		no = ActiveButtonStyle
	}
	buttons := lipgloss.JoinHorizontal(lipgloss.Center, no.Render(c.noLabel), "  ", yes.Render(c.yesLabel))

	content := lipgloss.JoinVertical(
		lipgloss.Center,
		LabelStyle.Render(c.title),
		"",
		lipgloss.NewStyle().Width(min(56, max(20, width-12))).Align(lipgloss.Center).Render(c.body),
		"",
		buttons,
	)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, ModalStyle.Render(content))
}
