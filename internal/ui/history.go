package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"fieldreport/internal/model"
	"fieldreport/internal/util"

	"github.com/charmbracelet/lipgloss"
)

// HistoryModel lists past report submissions, newest first.
type HistoryModel struct {
	columnSet
	listCursor

	all  []model.Submission
	rows []model.Submission
}

// NewHistoryModel creates a new history model.
func NewHistoryModel(subs []model.Submission) *HistoryModel {
	return &HistoryModel{
		all:  append([]model.Submission(nil), subs...),
		rows: append([]model.Submission(nil), subs...),
		columnSet: columnSet{
			columns: []tableColumn{
				{key: "when", label: "submitted", width: 18},
				{key: "delivery", label: "delivery", width: 12},
				{key: "po", label: "po", width: 14},
				{key: "status", label: "status", width: 12},
				{key: "photos", label: "photos", width: 8},
				{key: "damaged", label: "damaged", width: 9},
				{key: "detail", label: "notes / error", width: 28},
			},
		},
	}
}

func (m *HistoryModel) ApplyPrefs(prefs TablePrefs) {
	m.applyPrefs(prefs)
	m.rebuild()
}

func (m *HistoryModel) Prefs() TablePrefs {
	return m.prefs()
}

// Submissions returns every loaded submission, ignoring filters.
func (m *HistoryModel) Submissions() []model.Submission {
	return m.all
}

func (m *HistoryModel) rebuild() {
	rows := append([]model.Submission(nil), m.all...)
	if m.filterKey != "" && m.filterValue != "" {
		filtered := rows[:0]
		for _, s := range rows {
			if strings.EqualFold(m.getValue(s, m.filterKey), m.filterValue) {
				filtered = append(filtered, s)
			}
		}
		rows = filtered
	}
	if m.sortKey != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left := strings.ToLower(m.getValue(rows[i], m.sortKey))
			right := strings.ToLower(m.getValue(rows[j], m.sortKey))
			if left == right {
				return rows[i].ID > rows[j].ID
			}
			if m.sortDesc {
				return left > right
			}
			return left < right
		})
	}
	m.rows = rows
	m.clamp(len(m.rows))
}

func (m *HistoryModel) getValue(s model.Submission, key string) string {
	switch key {
	case "when":
		return util.FormatTimestamp(s.SubmittedAt)
	case "delivery":
		return string(s.DeliveryID)
	case "po":
		return s.PurchaseOrderID
	case "status":
		return string(s.Status)
	case "photos":
		return fmt.Sprintf("%04d", s.PhotoCount)
	case "damaged":
		return fmt.Sprintf("%09d", s.DamagedUnits)
	case "detail":
		if s.Error != "" {
			return s.Error
		}
		return s.Notes
	default:
		return ""
	}
}

func (m *HistoryModel) SortActiveColumn(desc bool) {
	m.sortKey = m.columns[m.activeColumn].key
	m.sortDesc = desc
	m.rebuild()
}

func (m *HistoryModel) FilterBySelectedValue() bool {
	if len(m.rows) == 0 {
		return false
	}
	key := m.columns[m.activeColumn].key
	value := strings.TrimSpace(m.getValue(m.rows[m.cursor], key))
	if value == "" {
		return false
	}
	m.filterKey = key
	m.filterValue = value
	m.rebuild()
	return true
}

func (m *HistoryModel) ClearFilter() bool {
	if m.filterKey == "" {
		return false
	}
	m.filterKey = ""
	m.filterValue = ""
	m.rebuild()
	return true
}

func (m *HistoryModel) MoveDown()                 { m.moveDown(len(m.rows)) }
func (m *HistoryModel) MoveUp()                   { m.moveUp() }
func (m *HistoryModel) JumpToTop()                { m.jumpToTop() }
func (m *HistoryModel) JumpToBottom()             { m.jumpToBottom(len(m.rows)) }
func (m *HistoryModel) HalfPageDown(pageSize int) { m.halfPageDown(pageSize, len(m.rows)) }
func (m *HistoryModel) HalfPageUp(pageSize int)   { m.halfPageUp(pageSize, len(m.rows)) }

// View renders the history table.
func (m *HistoryModel) View(width, height int) string {
	if len(m.all) == 0 {
		return EmptyStateStyle.Width(width).Height(height).Render("    No reports submitted yet.")
	}

	visible := m.visibleColumnIndexes()
	header, widths := m.header(visible, width)

	m.window = max(1, height-3)
	var rows []string
	for i := m.offset; i < len(m.rows) && i < m.offset+m.window; i++ {
		s := m.rows[i]
		style := NormalRowStyle
		if i%2 == 1 {
			style = style.Background(ColorStripe)
		}
		if i == m.cursor {
			style = SelectedRowStyle
		}

		cells := make([]string, 0, len(visible))
		for _, idx := range visible {
			col := m.columns[idx]
			switch col.key {
			case "when":
				cells = append(cells, util.FormatTimestamp(s.SubmittedAt))
			case "delivery":
				cells = append(cells, util.TruncateString(string(s.DeliveryID), col.width-2))
			case "po":
				cells = append(cells, util.TruncateString(s.PurchaseOrderID, col.width-2))
			case "status":
				st := lipgloss.NewStyle().Foreground(ColorGreen)
				if s.Status == model.SubmissionFailed {
					st = st.Foreground(ColorRed)
				}
				cells = append(cells, st.Render(util.FormatStatusSymbol(string(s.Status))+" "+string(s.Status)))
			case "photos":
				cells = append(cells, strconv.Itoa(s.PhotoCount))
			case "damaged":
				cells = append(cells, strconv.Itoa(s.DamagedUnits))
			case "detail":
				cells = append(cells, util.TruncateString(util.SingleLine(m.getValue(s, "detail")), col.width-2))
			}
		}
		rows = append(rows, renderTableRow(cells, widths, style))
	}

	status := StatusBarStyle.Render(fmt.Sprintf("Submissions: %d  ·  %s", len(m.rows), m.TableMeta()))
	return lipgloss.JoinVertical(lipgloss.Left, header, strings.Join(rows, "\n"), "", status)
}
