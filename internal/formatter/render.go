package formatter

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/playlog/internal/models"
	"github.com/desertthunder/playlog/internal/shared"
)

const (
	maxBarWidth  = 30
	maxNameWidth = 32
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4")).MarginBottom(1)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#04B575"))
	labelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#626262"))
	valueStyle   = lipgloss.NewStyle().Bold(true)
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#7D56F4"))
	emptyStyle   = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("#626262"))
	sectionStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#626262")).
			Padding(0, 1)
)

// RenderReport renders the result for a terminal: a summary box, a monthly bar chart and the rankings.
func RenderReport(result *models.AggregationResult) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("Playback analysis for %d", result.Year)))
	b.WriteString("\n")
	b.WriteString(sectionStyle.Render(renderSummary(result.Summary)))
	b.WriteString("\n\n")

	b.WriteString(headerStyle.Render("Monthly plays"))
	b.WriteString("\n")
	b.WriteString(renderBars(result.MonthlyCounts))
	b.WriteString("\n")

	rankings := lipgloss.JoinHorizontal(lipgloss.Top,
		sectionStyle.Render(renderRanking(fmt.Sprintf("Top %d artists", result.TopK), result.TopPerformers)),
		" ",
		sectionStyle.Render(renderRanking(fmt.Sprintf("Top %d songs", result.TopK), result.TopTracks)),
	)
	b.WriteString(rankings)
	b.WriteString("\n")

	return b.String()
}

func renderSummary(s models.Summary) string {
	rows := SummaryRows(s)
	width := 0
	for _, row := range rows {
		width = max(width, lipgloss.Width(row[0]))
	}

	lines := make([]string, len(rows))
	for i, row := range rows {
		label := labelStyle.Width(width + 2).Render(row[0] + ":")
		lines[i] = label + valueStyle.Render(row[1])
	}
	return strings.Join(lines, "\n")
}

func renderBars(items []models.ItemCount) string {
	if len(items) == 0 {
		return emptyStyle.Render("  no plays") + "\n"
	}

	peak, nameWidth := 0, 0
	for _, item := range items {
		peak = max(peak, item.Count)
		nameWidth = max(nameWidth, lipgloss.Width(shared.Truncate(item.Name, maxNameWidth)))
	}

	peak = max(peak, 1)

	var b strings.Builder
	for _, item := range items {
		n := max(1, item.Count*maxBarWidth/peak)
		name := labelStyle.Width(nameWidth + 2).Render(shared.Truncate(item.Name, maxNameWidth))
		fmt.Fprintf(&b, "  %s%s %d\n", name, barStyle.Render(strings.Repeat("█", n)), item.Count)
	}
	return b.String()
}

func renderRanking(title string, items []models.ItemCount) string {
	lines := []string{headerStyle.Render(title)}
	if len(items) == 0 {
		lines = append(lines, emptyStyle.Render("none"))
	}
	for i, item := range items {
		name := shared.Truncate(item.Name, maxNameWidth)
		if name == "" {
			name = emptyStyle.Render("(blank)")
		}
		lines = append(lines, fmt.Sprintf("%2d. %s %s", i+1, name, labelStyle.Render(fmt.Sprintf("(%d)", item.Count))))
	}
	return strings.Join(lines, "\n")
}
