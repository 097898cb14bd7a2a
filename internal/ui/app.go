package ui

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"fieldreport/internal/api"
	"fieldreport/internal/capture"
	"fieldreport/internal/db"
	"fieldreport/internal/export"
	"fieldreport/internal/logging"
	"fieldreport/internal/model"
	"fieldreport/internal/report"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"
)

const (
	alertMalformed = "There is a problem with the delivery data structure."
	alertSubmitted = "Delivery report submitted successfully!"
	alertFailed    = "An error occurred while submitting the report."
)

const listTimeout = 15 * time.Second

// Backend is the delivery service the app reads from and reports to.
type Backend interface {
	ListDeliveries(ctx context.Context) ([]model.Delivery, error)
	UpdateDelivery(ctx context.Context, p report.Payload) error
}

// Options wires the root model to its collaborators.
type Options struct {
	DB          *sql.DB
	Backend     Backend
	Logger      *logrus.Logger
	Camera      *capture.Camera
	Gallery     *capture.Gallery
	Permissions capture.Permissions
	// DataDir holds UI preferences and history exports.
	DataDir string
	// Delivery, when set, opens its report directly.
	Delivery *model.Delivery
}

// Model is the root Bubble Tea model.
type Model struct {
	db      *sql.DB
	backend Backend
	logger  *logrus.Logger
	camera  *capture.Camera
	gallery *capture.Gallery
	perms   capture.Permissions
	flows   *capture.Flows
	dataDir string

	screen model.Screen
	gState GState

	width  int
	height int

	error       string
	info        string
	offline     bool
	loading     bool
	showingHelp bool
	spinner     spinner.Model

	// Screen models
	deliveries *DeliveriesModel
	history    *HistoryModel
	report     *ReportFormModel
	picker     *GalleryModel
	viewer     *PhotoViewerModel

	// Modals take every key until dismissed.
	alert   *alertModel
	confirm *confirmModel

	keys  KeyMap
	prefs UIPreferences
}

// New creates a new root model.
func New(opts Options) Model {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		db:      opts.DB,
		backend: opts.Backend,
		logger:  logger,
		camera:  opts.Camera,
		gallery: opts.Gallery,
		perms:   opts.Permissions,
		flows:   &capture.Flows{},
		dataDir: opts.DataDir,
		screen:  model.ScreenDeliveries,
		gState:  GStateIdle,
		loading: true,
		spinner: sp,
		keys:    DefaultKeyMap(),
		prefs:   loadUIPreferences(opts.DataDir),
	}
	if opts.Delivery != nil {
		m.report = NewReportFormModel(opts.Backend, *opts.Delivery)
		m.screen = model.ScreenReport
	}
	return m
}

// Init initializes the model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadDeliveriesCmd(m.backend, m.db), m.spinner.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		if m.alert != nil {
			done, cmd := m.alert.Update(msg)
			if done {
				m.alert = nil
			}
			return m, cmd
		}
		if m.confirm != nil {
			done, cmd := m.confirm.Update(msg)
			if done {
				m.confirm = nil
			}
			return m, cmd
		}

		if m.isListScreen() && key.Matches(msg, m.keys.Help) {
			m.showingHelp = !m.showingHelp
			return m, nil
		}
		if m.showingHelp {
			if msg.String() == "esc" || msg.String() == "?" {
				m.showingHelp = false
			}
			return m, nil
		}
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmds []tea.Cmd
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			cmds = append(cmds, cmd)
		}
		if m.report != nil {
			newForm, cmd := m.report.Update(msg)
			m.report = &newForm
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)

	case model.ErrorMsg:
		m.error = msg.Err.Error()
		return m, nil

	case model.DeliveriesLoadedMsg:
		return m.handleDeliveriesLoaded(msg)

	case model.HistoryLoadedMsg:
		if msg.Err != nil {
			m.error = msg.Err.Error()
			return m, nil
		}
		m.history = NewHistoryModel(msg.Submissions)
		m.history.ApplyPrefs(m.prefs.History)
		return m, nil

	case model.HistoryExportedMsg:
		if msg.Err != nil {
			logging.LogError(m.logger, "ui", "exportHistory", "write xlsx", msg.Path, msg.Err)
			m.error = msg.Err.Error()
			return m, nil
		}
		m.info = "History exported to " + msg.Path
		return m, nil

	case showAlertMsg:
		m.alert = newAlert(msg.title, msg.body, nil)
		return m, nil

	case captureRequestMsg:
		return m.startCapture(msg.source)
	case permissionCheckedMsg:
		return m.handlePermissionChecked(msg)
	case permissionDecidedMsg:
		return m.handlePermissionDecided(msg)
	case galleryReadyMsg:
		return m.handleGalleryReady(msg)
	case captureResultMsg:
		return m.handleCaptureResult(msg)
	case captureCancelledMsg:
		return m.handleCaptureCancelled(msg)

	case openPhotoMsg:
		m.viewer = NewPhotoViewerModel(msg.index, msg.ref)
		m.screen = model.ScreenPhotoViewer
		return m, renderPhotoCmd(msg.ref, m.width-4, m.height-8)

	case photoRenderedMsg:
		if m.viewer != nil {
			m.viewer.Rendered(msg)
		}
		return m, nil

	case submitRejectedMsg:
		logging.LogError(m.logger, "ui", "submit", "validate delivery", m.reportDeliveryID(), msg.err)
		body := msg.err.Error()
		if errors.Is(msg.err, report.ErrMalformedDelivery) {
			body = alertMalformed
		}
		m.alert = newAlert("Error", body, nil)
		return m, nil

	case model.ReportSubmittedMsg:
		return m.handleReportSubmitted(msg)

	case model.ReportAcknowledgedMsg:
		if m.report != nil {
			m.report.Reset()
		}
		m.closeReport()
		m.info = "Report submitted"
		return m, nil

	case model.ReportClosedMsg:
		if m.flows.Active() != nil {
			m.flows.Cancel()
			m.info = "Photo request cancelled"
			return m, nil
		}
		m.closeReport()
		return m, nil

	case model.SubmissionRecordedMsg:
		if msg.Err != nil {
			logging.LogError(m.logger, "ui", "recordSubmission", "insert submission", nil, msg.Err)
			m.error = "Could not save submission history: " + msg.Err.Error()
			return m, nil
		}
		m.history = nil
		return m, cachedDeliveriesCmd(m.db, m.offline)
	}

	return m.updateCurrentScreen(msg)
}

func (m Model) handleDeliveriesLoaded(msg model.DeliveriesLoadedMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.Err != nil && !msg.Offline {
		logging.LogError(m.logger, "ui", "loadDeliveries", "list deliveries", nil, msg.Err)
		m.error = msg.Err.Error()
		return m, nil
	}
	if msg.Offline && msg.Err != nil {
		m.logger.WithError(msg.Err).Warn("deliveries fetch failed, showing cached list")
	}
	m.offline = msg.Offline
	if !msg.Offline {
		m.error = ""
	}
	if msg.CacheErr != nil {
		logging.LogError(m.logger, "ui", "loadDeliveries", "cache deliveries", len(msg.Rows), msg.CacheErr)
		m.error = "Could not cache deliveries: " + msg.CacheErr.Error()
	}

	prev := 0
	if m.deliveries != nil {
		prev = m.deliveries.cursor
	}
	m.deliveries = NewDeliveriesModel(msg.Rows)
	m.deliveries.ApplyPrefs(m.prefs.Deliveries)
	m.deliveries.cursor = prev
	m.deliveries.clamp(m.deliveries.Len())
	return m, nil
}

func (m Model) handleReportSubmitted(msg model.ReportSubmittedMsg) (tea.Model, tea.Cmd) {
	if m.report == nil || m.report.Composer().Delivery().DeliveryID != msg.DeliveryID {
		return m, nil
	}
	rec := m.report.FinishSubmit(msg.Err)
	record := recordSubmissionCmd(m.db, rec)

	if msg.Err != nil {
		data := logrus.Fields{"delivery_id": string(msg.DeliveryID)}
		var statusErr *api.StatusError
		if errors.As(msg.Err, &statusErr) {
			data["status"] = statusErr.Code
			data["body"] = statusErr.Body
		}
		logging.LogError(m.logger, "ui", "handleReportSubmitted", "update delivery", data, msg.Err)
		m.alert = newAlert("Error", alertFailed, nil)
		return m, record
	}

	m.alert = newAlert("Success", alertSubmitted, func() tea.Msg {
		return model.ReportAcknowledgedMsg{}
	})
	return m, record
}

func (m *Model) closeReport() {
	m.flows.Cancel()
	m.report = nil
	m.picker = nil
	m.viewer = nil
	m.screen = model.ScreenDeliveries
}

func (m Model) reportDeliveryID() string {
	if m.report == nil {
		return ""
	}
	return string(m.report.Composer().Delivery().DeliveryID)
}

func (m Model) isListScreen() bool {
	return m.screen == model.ScreenDeliveries || m.screen == model.ScreenHistory
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case model.ScreenDeliveries, model.ScreenHistory:
		return m.handleListKey(msg)
	case model.ScreenPhotoViewer:
		switch msg.String() {
		case "esc", "enter", "q", " ":
			m.viewer = nil
			m.screen = model.ScreenReport
		}
		return m, nil
	case model.ScreenGallery:
		if m.picker != nil {
			newPicker, cmd := m.picker.Update(msg)
			m.picker = &newPicker
			return m, cmd
		}
	case model.ScreenReport:
		if m.report != nil {
			newForm, cmd := m.report.Update(msg)
			m.report = &newForm
			return m, cmd
		}
	}
	return m, nil
}

// updateCurrentScreen forwards non-key messages to the active screen.
func (m Model) updateCurrentScreen(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.screen {
	case model.ScreenGallery:
		if m.picker != nil {
			newPicker, cmd := m.picker.Update(msg)
			m.picker = &newPicker
			return m, cmd
		}
	case model.ScreenReport:
		if m.report != nil {
			newForm, cmd := m.report.Update(msg)
			m.report = &newForm
			return m, cmd
		}
	}
	return m, nil
}

// listNavigator is implemented by the list screens.
type listNavigator interface {
	tableController
	MoveDown()
	MoveUp()
	JumpToTop()
	JumpToBottom()
	HalfPageDown(pageSize int)
	HalfPageUp(pageSize int)
}

func (m *Model) currentList() listNavigator {
	switch m.screen {
	case model.ScreenDeliveries:
		if m.deliveries != nil {
			return m.deliveries
		}
	case model.ScreenHistory:
		if m.history != nil {
			return m.history
		}
	}
	return nil
}

func (m *Model) persistListPrefs() {
	switch m.screen {
	case model.ScreenDeliveries:
		if m.deliveries != nil {
			m.prefs.Deliveries = m.deliveries.Prefs()
		}
	case model.ScreenHistory:
		if m.history != nil {
			m.prefs.History = m.history.Prefs()
		}
	}
	if err := saveUIPreferences(m.dataDir, m.prefs); err != nil {
		m.error = err.Error()
	}
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}

	// Handle "gg" state machine
	if key.Matches(msg, m.keys.Top) {
		if m.gState == GStateIdle {
			m.gState = GStateFirstG
			return m, nil
		}
		m.gState = GStateIdle
		if l := m.currentList(); l != nil {
			l.JumpToTop()
		}
		return m, nil
	}
	m.gState = GStateIdle

	if l := m.currentList(); l != nil {
		switch {
		case key.Matches(msg, m.keys.Down):
			l.MoveDown()
			return m, nil
		case key.Matches(msg, m.keys.Up):
			l.MoveUp()
			return m, nil
		case key.Matches(msg, m.keys.Bottom):
			l.JumpToBottom()
			return m, nil
		case key.Matches(msg, m.keys.HalfPageDown):
			l.HalfPageDown(m.height / 2)
			return m, nil
		case key.Matches(msg, m.keys.HalfPageUp):
			l.HalfPageUp(m.height / 2)
			return m, nil
		case key.Matches(msg, m.keys.NextColumn):
			l.NextColumn()
			m.persistListPrefs()
			return m, nil
		case key.Matches(msg, m.keys.PrevColumn):
			l.PrevColumn()
			m.persistListPrefs()
			return m, nil
		case key.Matches(msg, m.keys.SortAsc):
			l.SortActiveColumn(false)
			m.info = "Sorted ascending"
			m.persistListPrefs()
			return m, nil
		case key.Matches(msg, m.keys.SortDesc):
			l.SortActiveColumn(true)
			m.info = "Sorted descending"
			m.persistListPrefs()
			return m, nil
		case key.Matches(msg, m.keys.HideColumn):
			if l.HideActiveColumn() {
				m.info = "Column hidden"
				m.persistListPrefs()
			} else {
				m.info = "Cannot hide last visible column"
			}
			return m, nil
		case key.Matches(msg, m.keys.ShowColumns):
			l.ShowAllColumns()
			m.info = "All columns shown"
			m.persistListPrefs()
			return m, nil
		case key.Matches(msg, m.keys.FilterValue):
			if l.FilterBySelectedValue() {
				m.info = "Filter applied from selected value"
			} else {
				m.info = "No filterable value in selected cell"
			}
			return m, nil
		case key.Matches(msg, m.keys.ClearFilter):
			if l.ClearFilter() {
				m.info = "Filter cleared"
			}
			return m, nil
		}
	}

	if m.screen == model.ScreenHistory {
		return m.handleHistoryNav(msg)
	}
	return m.handleDeliveriesNav(msg)
}

func (m Model) handleDeliveriesNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Refresh):
		m.loading = true
		m.info = ""
		return m, tea.Batch(loadDeliveriesCmd(m.backend, m.db), m.spinner.Tick)
	case key.Matches(msg, m.keys.History):
		m.screen = model.ScreenHistory
		if m.history == nil {
			return m, loadHistoryCmd(m.db)
		}
		return m, nil
	case key.Matches(msg, m.keys.Select):
		if m.deliveries == nil {
			return m, nil
		}
		d, ok := m.deliveries.Selected()
		if !ok {
			return m, nil
		}
		m.report = NewReportFormModel(m.backend, d)
		m.screen = model.ScreenReport
		m.info = ""
		m.error = ""
		return m, nil
	}
	return m, nil
}

func (m Model) handleHistoryNav(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Deliveries), msg.String() == "esc":
		m.screen = model.ScreenDeliveries
		return m, nil
	case key.Matches(msg, m.keys.Export):
		if m.history == nil {
			return m, nil
		}
		path := filepath.Join(m.dataDir, "history-"+time.Now().Format("20060102-150405")+".xlsx")
		return m, exportHistoryCmd(m.history.Submissions(), path)
	}
	return m, nil
}

// View renders the UI.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	if m.showingHelp {
		return RenderFullHelp(m.width, m.height)
	}

	var content string
	var breadcrumbParts []string

	showTabs := m.isListScreen()
	contentHeight := m.height - 4 // header + footer
	if showTabs {
		contentHeight -= 2
	}

	var banners []string
	if m.error != "" {
		banners = append(banners, ErrorStyle.Width(m.width).Render("Error: "+m.error))
	}
	if m.offline && m.isListScreen() {
		banners = append(banners, WarningStyle.Width(m.width).Render("Offline: showing cached deliveries (r to retry)"))
	}
	if m.info != "" {
		banners = append(banners, SuccessStyle.Width(m.width).Render(m.info))
	}
	contentHeight -= len(banners)

	switch m.screen {
	case model.ScreenDeliveries:
		breadcrumbParts = []string{"Deliveries"}
		switch {
		case m.deliveries != nil:
			content = m.deliveries.View(m.width, contentHeight)
		case m.loading:
			content = EmptyStateStyle.Render(m.spinner.View() + " Loading deliveries...")
		}
	case model.ScreenHistory:
		breadcrumbParts = []string{"History"}
		if m.history != nil {
			content = m.history.View(m.width, contentHeight)
		}
	case model.ScreenReport, model.ScreenGallery, model.ScreenPhotoViewer:
		breadcrumbParts = []string{"Deliveries", "Report"}
		if m.report != nil {
			breadcrumbParts[1] = "Delivery " + string(m.report.Composer().Delivery().DeliveryID)
		}
		switch {
		case m.screen == model.ScreenGallery && m.picker != nil:
			breadcrumbParts = append(breadcrumbParts, "Gallery")
			content = m.picker.View(m.width, contentHeight)
		case m.screen == model.ScreenPhotoViewer && m.viewer != nil:
			breadcrumbParts = append(breadcrumbParts, "Photo")
			content = m.viewer.View(m.width, contentHeight)
		case m.report != nil:
			content = m.report.View(m.width, contentHeight)
		}
	}

	switch {
	case m.alert != nil:
		content = m.alert.View(m.width, contentHeight)
	case m.confirm != nil:
		content = m.confirm.View(m.width, contentHeight)
	}

	header := renderHeader(breadcrumbParts, m.loading, m.width)
	submitting := m.report != nil && m.report.Composer().Submitting()
	footer := RenderHelp(m.screen, submitting, m.width)

	// Ensure content fills the available height to anchor footer at bottom
	content = lipgloss.NewStyle().
		Width(m.width).
		Height(contentHeight).
		Render(content)

	parts := []string{header}
	if showTabs {
		parts = append(parts, renderTabs(m.screen, m.width))
	}
	parts = append(parts, banners...)
	parts = append(parts, content, footer)
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func renderTabs(screen model.Screen, width int) string {
	tabs := []struct {
		name   string
		screen model.Screen
	}{
		{"Deliveries", model.ScreenDeliveries},
		{"History", model.ScreenHistory},
	}

	var tabStrings []string
	for _, tab := range tabs {
		tabStyle := lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(ColorMuted)

		if screen == tab.screen {
			tabStyle = tabStyle.
				Foreground(ColorText).
				Bold(true).
				Underline(true)
		}

		tabStrings = append(tabStrings, tabStyle.Render(tab.name))
	}

	tabBar := lipgloss.JoinHorizontal(lipgloss.Left, tabStrings...)
	return lipgloss.NewStyle().
		Width(width).
		Padding(0, 2).
		BorderBottom(true).
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(ColorMuted).
		Render(tabBar)
}

func renderHeader(breadcrumbParts []string, syncing bool, width int) string {
	title := HeaderStyle.Render("fieldreport")

	var breadcrumb string
	if len(breadcrumbParts) > 0 {
		separator := BreadcrumbStyle.Render(" › ")
		parts := make([]string, len(breadcrumbParts))
		for i, part := range breadcrumbParts {
			if i == len(breadcrumbParts)-1 {
				parts[i] = BreadcrumbActiveStyle.Render(part)
			} else {
				parts[i] = BreadcrumbStyle.Render(part)
			}
		}
		breadcrumb = separator + strings.Join(parts, separator)
	}

	left := "  " + title + breadcrumb

	rightText := time.Now().Format("Mon 02 Jan 15:04")
	if syncing {
		rightText = "syncing…  " + rightText
	}
	right := BreadcrumbStyle.Render(rightText) + "  "

	padding := max(0, width-lipgloss.Width(left)-lipgloss.Width(right))
	return TitleStyle.Width(width).Render(left + strings.Repeat(" ", padding) + right)
}

func loadDeliveriesCmd(backend Backend, database *sql.DB) tea.Cmd {
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
		defer cancel()

		deliveries, err := backend.ListDeliveries(ctx)
		if err != nil {
			rows, cacheErr := db.ListCachedDeliveries(database)
			if cacheErr != nil {
				return model.DeliveriesLoadedMsg{Err: fmt.Errorf("failed to load deliveries: %w (cache: %v)", err, cacheErr)}
			}
			return model.DeliveriesLoadedMsg{Rows: rows, Offline: true, Err: err}
		}

		if err := db.ReplaceDeliveries(database, deliveries); err != nil {
			rows := make([]model.DeliveryRow, len(deliveries))
			for i, d := range deliveries {
				rows[i] = model.DeliveryRow{Delivery: d}
			}
			return model.DeliveriesLoadedMsg{Rows: rows, CacheErr: err}
		}
		rows, err := db.ListCachedDeliveries(database)
		return model.DeliveriesLoadedMsg{Rows: rows, Err: err}
	}
}

// cachedDeliveriesCmd reloads the list from the local cache, keeping the
// current online state.
func cachedDeliveriesCmd(database *sql.DB, offline bool) tea.Cmd {
	return func() tea.Msg {
		rows, err := db.ListCachedDeliveries(database)
		return model.DeliveriesLoadedMsg{Rows: rows, Offline: offline, Err: err}
	}
}

func loadHistoryCmd(database *sql.DB) tea.Cmd {
	return func() tea.Msg {
		subs, err := db.ListSubmissions(database)
		return model.HistoryLoadedMsg{Submissions: subs, Err: err}
	}
}

func recordSubmissionCmd(database *sql.DB, rec model.NewSubmission) tea.Cmd {
	return func() tea.Msg {
		_, err := db.InsertSubmission(database, rec)
		return model.SubmissionRecordedMsg{Err: err}
	}
}

func exportHistoryCmd(subs []model.Submission, path string) tea.Cmd {
	return func() tea.Msg {
		return model.HistoryExportedMsg{Path: path, Err: export.History(subs, path)}
	}
}
