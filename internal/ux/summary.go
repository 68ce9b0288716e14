package ux

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("6")).
			Padding(0, 1)
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
)

// PreviewRow is the planned output of one source.
type PreviewRow struct {
	Source  string
	Epics   int
	Stories int
	Tasks   int
}

// SummaryRow is the submitted outcome of one source.
type SummaryRow struct {
	Source  string
	Created int
	Failed  int
}

// RenderPreview draws the per-source item counts in a box.
func RenderPreview(rows []PreviewRow) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Planned work items"))
	total := 0
	for _, r := range rows {
		n := r.Epics + r.Stories + r.Tasks
		total += n
		lines = append(lines, fmt.Sprintf("%-14s %s epics, %s stories, %s tasks",
			r.Source, humanize.Comma(int64(r.Epics)), humanize.Comma(int64(r.Stories)), humanize.Comma(int64(r.Tasks))))
	}
	lines = append(lines, dimStyle.Render(fmt.Sprintf("%s items in total", humanize.Comma(int64(total)))))
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderSummary draws the per-source outcome counts and the project link.
func RenderSummary(rows []SummaryRow, projectURL string) string {
	var lines []string
	lines = append(lines, titleStyle.Render("Run summary"))
	created, failed := 0, 0
	for _, r := range rows {
		created += r.Created
		failed += r.Failed
		lines = append(lines, fmt.Sprintf("%-14s %s created, %s failed",
			r.Source, humanize.Comma(int64(r.Created)), humanize.Comma(int64(r.Failed))))
	}
	lines = append(lines, fmt.Sprintf("%-14s %s created, %s failed", "total",
		humanize.Comma(int64(created)), humanize.Comma(int64(failed))))
	if projectURL != "" {
		lines = append(lines, dimStyle.Render(projectURL))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderFields draws label/value pairs in a box, in order.
func RenderFields(title string, fields [][2]string) string {
	width := 0
	for _, f := range fields {
		if len(f[0]) > width {
			width = len(f[0])
		}
	}
	lines := []string{titleStyle.Render(title)}
	for _, f := range fields {
		lines = append(lines, fmt.Sprintf("%-*s  %s", width, f[0], f[1]))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// Count formats n with thousands separators.
func Count(n int) string {
	return humanize.Comma(int64(n))
}

// Percent formats part/whole as a percentage with one decimal.
func Percent(part, whole int) string {
	if whole == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", float64(part)*100/float64(whole))
}
