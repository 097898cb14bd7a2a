package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"fieldreport/internal/model"
	"fieldreport/internal/util"

	"github.com/charmbracelet/lipgloss"
)

// DeliveriesModel represents the deliveries list screen.
type DeliveriesModel struct {
	columnSet
	listCursor

	allRows []model.DeliveryRow
	rows    []model.DeliveryRow
	now     func() time.Time
}

// NewDeliveriesModel creates a new deliveries model.
func NewDeliveriesModel(rows []model.DeliveryRow) *DeliveriesModel {
	m := &DeliveriesModel{
		allRows: append([]model.DeliveryRow(nil), rows...),
		rows:    append([]model.DeliveryRow(nil), rows...),
		columnSet: columnSet{
			columns: []tableColumn{
				{key: "delivery", label: "delivery", width: 12},
				{key: "po", label: "purchase order", width: 18},
				{key: "products", label: "products", width: 10},
				{key: "units", label: "units", width: 8},
				{key: "status", label: "last report", width: 14},
				{key: "when", label: "reported", width: 12},
			},
		},
		now: time.Now,
	}
	return m
}

// ApplyPrefs restores persisted column state.
func (m *DeliveriesModel) ApplyPrefs(prefs TablePrefs) {
	m.applyPrefs(prefs)
	m.rebuild()
}

// Prefs returns the column state to persist.
func (m *DeliveriesModel) Prefs() TablePrefs {
	return m.prefs()
}

// Selected returns the delivery under the cursor.
func (m *DeliveriesModel) Selected() (model.Delivery, bool) {
	if len(m.rows) == 0 || m.cursor >= len(m.rows) {
		return model.Delivery{}, false
	}
	return m.rows[m.cursor].Delivery, true
}

// Len returns the number of visible rows.
func (m *DeliveriesModel) Len() int {
	return len(m.rows)
}

func (m *DeliveriesModel) rebuild() {
	rows := append([]model.DeliveryRow(nil), m.allRows...)

	if m.filterKey != "" && m.filterValue != "" {
		filtered := make([]model.DeliveryRow, 0, len(rows))
		target := strings.TrimSpace(m.filterValue)
		for _, r := range rows {
			if strings.EqualFold(strings.TrimSpace(m.getValue(r, m.filterKey)), target) {
				filtered = append(filtered, r)
			}
		}
		rows = filtered
	}

	if m.sortKey != "" {
		sort.SliceStable(rows, func(i, j int) bool {
			left := strings.ToLower(m.getValue(rows[i], m.sortKey))
			right := strings.ToLower(m.getValue(rows[j], m.sortKey))
			if m.sortDesc {
				return left > right
			}
			return left < right
		})
	}

	m.rows = rows
	m.clamp(len(m.rows))
}

// getValue returns the sortable text of a cell. Numbers are zero-padded so
// they sort correctly as strings.
func (m *DeliveriesModel) getValue(row model.DeliveryRow, key string) string {
	switch key {
	case "delivery":
		id := string(row.Delivery.DeliveryID)
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return fmt.Sprintf("%020d", n)
		}
		return id
	case "po":
		return row.Delivery.PurchaseOrderID
	case "products":
		return fmt.Sprintf("%06d", len(row.Delivery.Products))
	case "units":
		return fmt.Sprintf("%09d", row.Delivery.TotalQuantity())
	case "status":
		return row.LastStatus
	case "when":
		if row.LastAt.IsZero() {
			return ""
		}
		return row.LastAt.UTC().Format(time.RFC3339)
	default:
		return ""
	}
}

func (m *DeliveriesModel) SortActiveColumn(desc bool) {
	m.sortKey = m.columns[m.activeColumn].key
	m.sortDesc = desc
	m.rebuild()
}

func (m *DeliveriesModel) FilterBySelectedValue() bool {
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

func (m *DeliveriesModel) ClearFilter() bool {
	if m.filterKey == "" {
		return false
	}
	m.filterKey = ""
	m.filterValue = ""
	m.rebuild()
	return true
}

func (m *DeliveriesModel) MoveDown()                 { m.moveDown(len(m.rows)) }
func (m *DeliveriesModel) MoveUp()                   { m.moveUp() }
func (m *DeliveriesModel) JumpToTop()                { m.jumpToTop() }
func (m *DeliveriesModel) JumpToBottom()             { m.jumpToBottom(len(m.rows)) }
func (m *DeliveriesModel) HalfPageDown(pageSize int) { m.halfPageDown(pageSize, len(m.rows)) }
func (m *DeliveriesModel) HalfPageUp(pageSize int)   { m.halfPageUp(pageSize, len(m.rows)) }

// View renders the deliveries list.
func (m *DeliveriesModel) View(width, height int) string {
	if len(m.allRows) == 0 {
		emptyMsg := `    No deliveries assigned.
    Press  r  to check again.`
		return EmptyStateStyle.
			Width(width).
			Height(height).
			Render(emptyMsg)
	}

	visible := m.visibleColumnIndexes()
	header, widths := m.header(visible, width)

	m.window = max(1, height-3)
	var rows []string
	for i := m.offset; i < len(m.rows) && i < m.offset+m.window; i++ {
		row := m.rows[i]
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
			case "delivery":
				cells = append(cells, util.TruncateString(string(row.Delivery.DeliveryID), col.width-2))
			case "po":
				po := row.Delivery.PurchaseOrderID
				if po == "" {
					po = "—"
				}
				cells = append(cells, util.TruncateString(po, col.width-2))
			case "products":
				if row.Delivery.Malformed() || row.Delivery.Products == nil {
					cells = append(cells, lipgloss.NewStyle().Foreground(ColorRed).Render("invalid"))
				} else {
					cells = append(cells, strconv.Itoa(len(row.Delivery.Products)))
				}
			case "units":
				cells = append(cells, strconv.Itoa(row.Delivery.TotalQuantity()))
			case "status":
				statusStyle := lipgloss.NewStyle().Foreground(ColorMuted)
				switch model.SubmissionStatus(row.LastStatus) {
				case model.SubmissionSucceeded:
					statusStyle = statusStyle.Foreground(ColorGreen)
				case model.SubmissionFailed:
					statusStyle = statusStyle.Foreground(ColorRed)
				}
				label := util.FormatStatusSymbol(row.LastStatus)
				if row.LastStatus != "" {
					label += " " + row.LastStatus
				}
				cells = append(cells, statusStyle.Render(label))
			case "when":
				cells = append(cells, util.FormatTimeHuman(row.LastAt, m.now()))
			}
		}

		rows = append(rows, renderTableRow(cells, widths, style))
	}

	filterInfo := ""
	if m.filterKey != "" {
		filterInfo = fmt.Sprintf("  ·  filtered: %d/%d", len(m.rows), len(m.allRows))
	}
	status := StatusBarStyle.Render(fmt.Sprintf("Deliveries: %d%s  ·  %s", len(m.rows), filterInfo, m.TableMeta()))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		strings.Join(rows, "\n"),
		"",
		status,
	)
}
