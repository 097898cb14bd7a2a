package ui

import (
	"strings"

	"fieldreport/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// RenderHelp renders context-sensitive help footer.
func RenderHelp(screen model.Screen, submitting bool, width int) string {
	switch screen {
	case model.ScreenDeliveries:
		return renderDeliveriesHelp(width)
	case model.ScreenHistory:
		return renderHistoryHelp(width)
	case model.ScreenReport:
		if submitting {
			return renderHelpLine([]string{HelpDescStyle.Render("submitting report...")}, width)
		}
		return renderReportHelp(width)
	case model.ScreenGallery:
		return renderGalleryHelp(width)
	case model.ScreenPhotoViewer:
		return renderHelpLine([]string{helpKey("esc/enter", "close")}, width)
	default:
		return renderDefaultHelp(width)
	}
}

func renderDeliveriesHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("enter", "report damage"),
		helpKey("r", "refresh"),
		helpKey("tab", "next col"),
		helpKey("s/S", "sort"),
		helpKey("n/N", "filter"),
		helpKey("H", "history"),
		helpKey("?", "help"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderHistoryHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("x", "export xlsx"),
		helpKey("d", "deliveries"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func renderReportHelp(width int) string {
	keys := []string{
		helpKey("tab", "next field"),
		helpKey("ctrl+t", "take photo"),
		helpKey("ctrl+g", "pick image"),
		helpKey("ctrl+s", "submit"),
		helpKey("esc", "back"),
	}
	return renderHelpLine(keys, width)
}

func renderGalleryHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("l/enter", "open/select"),
		helpKey("h", "parent dir"),
		helpKey("esc", "cancel"),
	}
	return renderHelpLine(keys, width)
}

func renderDefaultHelp(width int) string {
	keys := []string{
		helpKey("j/k", "navigate"),
		helpKey("q", "quit"),
	}
	return renderHelpLine(keys, width)
}

func helpKey(key, desc string) string {
	return HelpKeyStyle.Render(key) + " " + HelpDescStyle.Render(desc)
}

func renderHelpLine(keys []string, width int) string {
	line := strings.Join(keys, "  ")
	return FooterStyle.Width(width).Render(line)
}

// RenderFullHelp renders the full help screen.
func RenderFullHelp(width, height int) string {
	content := lipgloss.NewStyle().
		Width(width-4).
		Height(height-6).
		Padding(1, 2)

	sections := []string{
		titleSection("Lists"),
		helpSection([]helpItem{
			{"j / ↓", "Move down"},
			{"k / ↑", "Move up"},
			{"gg / G", "Jump to top / bottom"},
			{"ctrl+d / ctrl+u", "Half page down / up"},
			{"tab / shift+tab", "Cycle active column"},
			{"s / S", "Sort active column asc/desc"},
			{"c / C", "Hide active column / show all"},
			{"n / N", "Filter by selected value / clear"},
			{"q", "Quit"},
			{"?", "Toggle help"},
		}),
		titleSection("Deliveries"),
		helpSection([]helpItem{
			{"enter / l", "Open damage report"},
			{"r", "Refresh from server"},
			{"H", "Submission history"},
		}),
		titleSection("History"),
		helpSection([]helpItem{
			{"x", "Export history to xlsx"},
			{"d", "Back to deliveries"},
		}),
		titleSection("Damage Report"),
		helpSection([]helpItem{
			{"tab / shift+tab", "Next / previous field"},
			{"0-9", "Damaged units for the focused product"},
			{"ctrl+t", "Take photo with camera"},
			{"ctrl+g", "Pick image from gallery"},
			{"← / →", "Select photo (photo strip)"},
			{"enter", "View selected photo"},
			{"x", "Remove selected photo"},
			{"ctrl+s", "Submit report"},
			{"esc", "Cancel photo request / back"},
		}),
	}

	helpText := content.Render(strings.Join(sections, "\n\n"))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		TitleStyle.Width(width).Render("Help"),
		helpText,
		FooterStyle.Width(width).Render(HelpKeyStyle.Render("esc")+" "+HelpDescStyle.Render("close help")),
	)
}

type helpItem struct {
	key  string
	desc string
}

func titleSection(title string) string {
	return LabelStyle.Render(title)
}

func helpSection(items []helpItem) string {
	var lines []string
	for _, item := range items {
		lines = append(lines, "  "+HelpKeyStyle.Render(item.key)+" - "+HelpDescStyle.Render(item.desc))
	}
	return strings.Join(lines, "\n")
}
