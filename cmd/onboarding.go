package cmd

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type OnboardingSettings struct {
	Completed bool   `json:"completed"`
	APIURL    string `json:"api_url"`
}

func onboardingPath(configDir string) string {
	return filepath.Join(configDir, "onboarding.json")
}

func loadOnboardingSettings(configDir string) (OnboardingSettings, error) {
	data, err := os.ReadFile(onboardingPath(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return OnboardingSettings{}, nil
		}
		return OnboardingSettings{}, err
	}

	var settings OnboardingSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return OnboardingSettings{}, err
	}
	return settings, nil
}

func saveOnboardingSettings(configDir string, settings OnboardingSettings) error {
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(onboardingPath(configDir), data, 0644)
}

func tokenPath(configDir string) string {
	return filepath.Join(configDir, "token")
}

func saveToken(configDir, token string) error {
	if strings.TrimSpace(token) == "" {
		return nil
	}
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return err
	}
	// Owner read/write only.
	return os.WriteFile(tokenPath(configDir), []byte(strings.TrimSpace(token)+"\n"), 0600)
}

func loadToken(configDir string) (string, error) {
	data, err := os.ReadFile(tokenPath(configDir))
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

func shouldRunOnboarding(settings OnboardingSettings) bool {
	if settings.Completed && settings.APIURL != "" {
		return false
	}
	fi, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fi.Mode() & os.ModeCharDevice) != 0
}

// validBackendURL accepts absolute http(s) URLs.
func validBackendURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

type onboardingStep int

const (
	stepURL onboardingStep = iota
	stepToken
	stepDone
)

type onboardingModel struct {
	step       onboardingStep
	urlInput   textinput.Model
	tokenInput textinput.Model
	settings   OnboardingSettings
	token      string
	problem    string
	status     string
	width      int
	height     int
}

var (
	obColorMuted  = lipgloss.Color("#7F8C98")
	obColorText   = lipgloss.Color("#DCE3EA")
	obColorAccent = lipgloss.Color("#E0A458")
	obColorDanger = lipgloss.Color("#F07178")

	obTitleStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obHeaderStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabsStyle = lipgloss.NewStyle().
			Padding(0, 2).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(obColorMuted)

	obTabInactive = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 2)

	obTabActive = lipgloss.NewStyle().
			Foreground(obColorText).
			Bold(true).
			Underline(true).
			Padding(0, 2)

	obPanelStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorMuted).
			Padding(1, 2)

	obInputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(obColorAccent).
			Padding(0, 1)

	obLabelStyle = lipgloss.NewStyle().
			Foreground(obColorAccent).
			Bold(true)

	obMutedStyle = lipgloss.NewStyle().
			Foreground(obColorMuted)

	obWarnStyle = lipgloss.NewStyle().
			Foreground(obColorDanger)

	obFooterStyle = lipgloss.NewStyle().
			Foreground(obColorMuted).
			Padding(0, 1).
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(obColorMuted)
)

func newInput(placeholder, prompt string) textinput.Model {
	in := textinput.New()
	in.Placeholder = placeholder
	in.CharLimit = 300
	in.Prompt = prompt
	in.TextStyle = lipgloss.NewStyle().Foreground(obColorText)
	in.PlaceholderStyle = lipgloss.NewStyle().Foreground(obColorMuted)
	in.Cursor.Style = lipgloss.NewStyle().Foreground(obColorText).Background(obColorAccent)
	return in
}

func newOnboardingModel(existing OnboardingSettings) onboardingModel {
	urlInput := newInput("https://deliveries.example.com", "url> ")
	urlInput.SetValue(existing.APIURL)
	urlInput.Focus()

	tokenInput := newInput("optional", "token> ")
	tokenInput.EchoMode = textinput.EchoPassword
	tokenInput.EchoCharacter = '•'

	return onboardingModel{
		step:       stepURL,
		urlInput:   urlInput,
		tokenInput: tokenInput,
		settings:   OnboardingSettings{Completed: true},
	}
}

func (m onboardingModel) Init() tea.Cmd { return textinput.Blink }

func (m onboardingModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.settings.Completed = false
			m.status = "Setup canceled."
			m.step = stepDone
			return m, tea.Quit
		}
		switch m.step {
		case stepURL:
			if msg.String() == "enter" {
				raw := strings.TrimSpace(m.urlInput.Value())
				if !validBackendURL(raw) {
					m.problem = "Enter a full http:// or https:// address."
					return m, nil
				}
				m.problem = ""
				m.settings.APIURL = strings.TrimRight(raw, "/")
				m.step = stepToken
				m.urlInput.Blur()
				return m, m.tokenInput.Focus()
			}
			var cmd tea.Cmd
			m.urlInput, cmd = m.urlInput.Update(msg)
			return m, cmd
		case stepToken:
			switch msg.String() {
			case "enter":
				m.token = strings.TrimSpace(m.tokenInput.Value())
				m.status = "Backend saved."
				m.step = stepDone
				return m, tea.Quit
			case "esc":
				m.status = "Backend saved without a token."
				m.step = stepDone
				return m, tea.Quit
			}
			var cmd tea.Cmd
			m.tokenInput, cmd = m.tokenInput.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

func (m onboardingModel) View() string {
	width := m.width
	height := m.height
	if width <= 0 {
		width = 100
	}
	if height <= 0 {
		height = 28
	}

	header := m.renderHeader(width)
	tabs := m.renderTabs(width)
	footer := m.renderFooter(width)

	contentHeight := height - 6
	if contentHeight < 8 {
		contentHeight = 8
	}
	content := m.renderContent(width, contentHeight)
	ui := lipgloss.JoinVertical(lipgloss.Left, header, tabs, content, footer)

	return lipgloss.NewStyle().
		Foreground(obColorText).
		Width(width).
		Height(height).
		Render(ui)
}

func (m onboardingModel) renderHeader(width int) string {
	left := "  " + obTitleStyle.Render("fieldreport") + " " + obMutedStyle.Render("› Setup")
	right := obMutedStyle.Render(time.Now().Format("Mon 02 Jan")) + "  "
	padding := width - lipgloss.Width(left) - lipgloss.Width(right)
	if padding < 0 {
		padding = 0
	}
	return obHeaderStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func (m onboardingModel) renderTabs(width int) string {
	urlTab := obTabInactive.Render("Backend")
	tokenTab := obTabInactive.Render("Token")
	if m.step == stepURL {
		urlTab = obTabActive.Render("Backend")
	}
	if m.step == stepToken {
		tokenTab = obTabActive.Render("Token")
	}
	return obTabsStyle.Width(width).Render(lipgloss.JoinHorizontal(lipgloss.Left, "  ", urlTab, tokenTab))
}

func (m onboardingModel) renderFooter(width int) string {
	switch m.step {
	case stepURL:
		return obFooterStyle.Width(width).Render("enter continue  ctrl+c cancel")
	case stepToken:
		return obFooterStyle.Width(width).Render("enter save  esc skip  ctrl+c cancel")
	default:
		return obFooterStyle.Width(width).Render("Setup complete")
	}
}

func (m onboardingModel) renderContent(width, height int) string {
	cardWidth := min(92, width-6)
	if cardWidth < 40 {
		cardWidth = width - 2
	}
	inputWidth := max(30, cardWidth-14)

	var body string
	switch m.step {
	case stepURL:
		parts := []string{
			obLabelStyle.Render("Where is your delivery backend?"),
			"",
			obMutedStyle.Render("Reports are sent to {url}/api/update-delivery/{id}."),
			"",
			obInputStyle.Width(inputWidth).Render(m.urlInput.View()),
		}
		if m.problem != "" {
			parts = append(parts, "", obWarnStyle.Render(m.problem))
		}
		parts = append(parts, "", obMutedStyle.Render("You can change this later in ~/.fieldreport/onboarding.json"))
		body = lipgloss.JoinVertical(lipgloss.Left, parts...)
	case stepToken:
		body = lipgloss.JoinVertical(
			lipgloss.Left,
			obLabelStyle.Render("Access token"),
			"",
			obMutedStyle.Render("Sent as a bearer token on every request. Leave empty if"),
			obMutedStyle.Render("your backend does not need one."),
			"",
			obInputStyle.Width(inputWidth).Render(m.tokenInput.View()),
			"",
			obMutedStyle.Render("Press Enter to save, Esc to skip."),
		)
	default:
		msg := obMutedStyle.Render(m.status)
		if !m.settings.Completed {
			msg = obWarnStyle.Render(m.status)
		}
		body = lipgloss.JoinVertical(lipgloss.Left, obLabelStyle.Render("Onboarding Complete"), "", msg)
	}

	card := obPanelStyle.Width(cardWidth).Render(body)
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Top, card)
}

func runOnboarding(configDir string, existing OnboardingSettings) (OnboardingSettings, error) {
	model := newOnboardingModel(existing)
	prog := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := prog.Run()
	if err != nil {
		return OnboardingSettings{}, fmt.Errorf("onboarding tui failed: %w", err)
	}
	m, ok := finalModel.(onboardingModel)
	if !ok {
		return OnboardingSettings{}, fmt.Errorf("unexpected onboarding model type")
	}
	if !m.settings.Completed {
		return existing, nil
	}
	if err := saveToken(configDir, m.token); err != nil {
		return OnboardingSettings{}, err
	}
	if err := saveOnboardingSettings(configDir, m.settings); err != nil {
		return OnboardingSettings{}, err
	}
	return m.settings, nil
}
