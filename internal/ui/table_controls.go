package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type tableController interface {
	NextColumn()
	PrevColumn()
	JumpToColumn(number int) bool
	SortActiveColumn(desc bool)
	HideActiveColumn() bool
	ShowAllColumns()
	FilterBySelectedValue() bool
	ClearFilter() bool
	TableMeta() string
}

type tableColumn struct {
	key    string
	label  string
	width  int
	hidden bool
}

// columnSet is the column, sort and filter state shared by the list screens.
type columnSet struct {
	columns      []tableColumn
	activeColumn int
	sortKey      string
	sortDesc     bool
	filterKey    string
	filterValue  string
}

func (c *columnSet) NextColumn() {
	start := c.activeColumn
	for {
		c.activeColumn = (c.activeColumn + 1) % len(c.columns)
		if !c.columns[c.activeColumn].hidden || c.activeColumn == start {
			return
		}
	}
}

func (c *columnSet) PrevColumn() {
	start := c.activeColumn
	for {
		c.activeColumn--
		if c.activeColumn < 0 {
			c.activeColumn = len(c.columns) - 1
		}
		if !c.columns[c.activeColumn].hidden || c.activeColumn == start {
			return
		}
	}
}

func (c *columnSet) JumpToColumn(number int) bool {
	if number < 1 || number > len(c.columns) {
		return false
	}
	idx := number - 1
	if c.columns[idx].hidden {
		return false
	}
	c.activeColumn = idx
	return true
}

func (c *columnSet) HideActiveColumn() bool {
	if len(c.visibleColumnIndexes()) <= 1 {
		return false
	}
	c.columns[c.activeColumn].hidden = true
	c.ensureVisibleActiveColumn()
	return true
}

func (c *columnSet) ShowAllColumns() {
	for i := range c.columns {
		c.columns[i].hidden = false
	}
}

func (c *columnSet) TableMeta() string {
	col := strings.ToUpper(c.columns[c.activeColumn].label)
	parts := []string{fmt.Sprintf("col %s", col)}
	if c.sortKey != "" {
		order := "asc"
		if c.sortDesc {
			order = "desc"
		}
		parts = append(parts, fmt.Sprintf("sort %s %s", strings.ToUpper(c.sortKey), order))
	}
	if c.filterKey != "" {
		parts = append(parts, fmt.Sprintf("filter %s=%q", strings.ToUpper(c.filterKey), c.filterValue))
	}
	return strings.Join(parts, "  ·  ")
}

func (c *columnSet) applyPrefs(prefs TablePrefs) {
	if prefs.SortKey != "" {
		c.sortKey = prefs.SortKey
		c.sortDesc = prefs.SortDesc
	}
	hidden := make(map[string]bool, len(prefs.HiddenColumns))
	for _, k := range prefs.HiddenColumns {
		hidden[k] = true
	}
	for i := range c.columns {
		c.columns[i].hidden = hidden[c.columns[i].key]
	}
	if prefs.ActiveColumn != "" {
		for i, col := range c.columns {
			if col.key == prefs.ActiveColumn {
				c.activeColumn = i
				break
			}
		}
	}
	c.ensureVisibleActiveColumn()
}

func (c *columnSet) prefs() TablePrefs {
	var hidden []string
	for _, col := range c.columns {
		if col.hidden {
			hidden = append(hidden, col.key)
		}
	}
	return TablePrefs{
		SortKey:       c.sortKey,
		SortDesc:      c.sortDesc,
		HiddenColumns: hidden,
		ActiveColumn:  c.columns[c.activeColumn].key,
	}
}

func (c *columnSet) visibleColumnIndexes() []int {
	var idxs []int
	for i, col := range c.columns {
		if !col.hidden {
			idxs = append(idxs, i)
		}
	}
	return idxs
}

func (c *columnSet) ensureVisibleActiveColumn() {
	if !c.columns[c.activeColumn].hidden {
		return
	}
	for i := range c.columns {
		if !c.columns[i].hidden {
			c.activeColumn = i
			return
		}
	}
	c.columns[0].hidden = false
	c.activeColumn = 0
}

// header returns the rendered header row and the cell widths of the visible
// columns. The last column absorbs any spare width.
func (c *columnSet) header(visible []int, width int) (string, []int) {
	widths := make([]int, 0, len(visible))
	labels := make([]string, 0, len(visible))
	totalFixed := 0
	for _, idx := range visible {
		col := c.columns[idx]
		label := strings.ToUpper(col.label)
		if idx == c.activeColumn {
			label = "❋ " + label
		}
		if c.sortKey == col.key {
			if c.sortDesc {
				label += " ↓"
			} else {
				label += " ↑"
			}
		}
		cellWidth := max(col.width, lipgloss.Width(label)+2)
		totalFixed += cellWidth
		widths = append(widths, cellWidth)
		labels = append(labels, label)
	}
	if len(widths) > 0 {
		if extra := width - totalFixed - 4; extra > 0 {
			widths[len(widths)-1] += extra
		}
	}
	return renderTableRow(labels, widths, TableHeaderStyle), widths
}

// listCursor tracks the selected row and the first rendered row.
type listCursor struct {
	cursor int
	offset int
	window int
}

func (l *listCursor) pageRows() int {
	if l.window <= 0 {
		return 10
	}
	return l.window
}

func (l *listCursor) clamp(n int) {
	if n == 0 {
		l.cursor = 0
		l.offset = 0
		return
	}
	if l.cursor >= n {
		l.cursor = n - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.offset > l.cursor {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+l.pageRows() {
		l.offset = l.cursor - l.pageRows() + 1
	}
}

func (l *listCursor) moveDown(n int) {
	if l.cursor < n-1 {
		l.cursor++
		if l.cursor >= l.offset+l.pageRows() {
			l.offset++
		}
	}
}

func (l *listCursor) moveUp() {
	if l.cursor > 0 {
		l.cursor--
		if l.cursor < l.offset {
			l.offset--
		}
	}
}

func (l *listCursor) jumpToTop() {
	l.cursor = 0
	l.offset = 0
}

func (l *listCursor) jumpToBottom(n int) {
	if n > 0 {
		l.cursor = n - 1
		l.clamp(n)
	}
}

func (l *listCursor) halfPageDown(pageSize, n int) {
	l.cursor += pageSize / 2
	l.clamp(n)
}

func (l *listCursor) halfPageUp(pageSize, n int) {
	l.cursor -= pageSize / 2
	l.clamp(n)
}

func renderTableRow(cells []string, widths []int, style lipgloss.Style) string {
	var parts []string
	for i, cell := range cells {
		if i >= len(widths) {
			continue
		}
		parts = append(parts, style.Width(widths[i]).Render(cell))
	}
	return lipgloss.JoinHorizontal(lipgloss.Left, parts...)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
