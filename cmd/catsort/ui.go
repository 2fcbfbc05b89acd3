package main

import (
	"fmt"
	"strings"
	"time"

	"catsort/pkg/types"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

// Styles for command output
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#7B61FF"))

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#73F59F"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF5F87")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD75F"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	boxStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#7B61FF"))
)

func titleText(s string) string   { return titleStyle.Render(s) }
func successText(s string) string { return successStyle.Render("✓ " + s) }
func errorText(s string) string   { return errorStyle.Render("✗ " + s) }
func warningText(s string) string { return warningStyle.Render("! " + s) }
func mutedText(s string) string   { return mutedStyle.Render(s) }

func activeText(active bool) string {
	if active {
		return successStyle.Render("active")
	}
	return mutedStyle.Render("inactive")
}

// scheduleSummary renders a schedule as a short phrase, for example
// "every 2 WEEK on MONDAY at 09:00".
func scheduleSummary(s types.Schedule) string {
	var b strings.Builder
	fmt.Fprintf(&b, "every %d %s", s.Interval, s.Type)
	switch {
	case s.Weekday != "":
		fmt.Fprintf(&b, " on %s", s.Weekday)
	case s.Month != "" && s.Day != 0:
		fmt.Fprintf(&b, " on %s %d", s.Month, s.Day)
	case s.Day != 0:
		fmt.Fprintf(&b, " on day %d", s.Day)
	}
	if s.Time != "" {
		fmt.Fprintf(&b, " at %s", s.Time)
	}
	if !s.Active {
		b.WriteString(" (off)")
	}
	return b.String()
}

// renderConfig draws one directory config in a box. next is the next
// scheduled run, zero when the schedule is off. pending is the number of
// root entries waiting to be routed, negative when unknown.
func renderConfig(cfg *types.Config, next time.Time, pending int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", titleText(cfg.Directory), activeText(cfg.Active))
	fmt.Fprintf(&b, "schedule: %s\n", scheduleSummary(cfg.Schedule))
	if !next.IsZero() {
		fmt.Fprintf(&b, "next run: %s (%s)\n", next.Format("2006-01-02 15:04"), humanize.Time(next))
	}
	if len(cfg.Ignore) > 0 {
		fmt.Fprintf(&b, "ignore:   %s\n", strings.Join(cfg.Ignore, " "))
	}
	if pending >= 0 {
		fmt.Fprintf(&b, "pending:  %d\n", pending)
	}
	b.WriteString("\n")
	for _, cat := range cfg.Categories {
		name := cat.Name
		if cat.CategorizeByExtension {
			name += mutedText(" (by extension)")
		}
		fmt.Fprintf(&b, "%s\n  %s\n", name, mutedText(strings.Join(cat.Extensions, " ")))
	}
	fmt.Fprintf(&b, "%s\n%s", mutedText(types.UncategorizedName), mutedText(types.HiddenName))
	return boxStyle.Render(b.String())
}

// renderResult summarizes one engine run on a single line.
func renderResult(res types.OrganizeResult) string {
	switch res.Status {
	case types.StatusSkipped:
		return mutedText(fmt.Sprintf("- %s: skipped (inactive)", res.Directory))
	case types.StatusFailure:
		return errorText(fmt.Sprintf("%s: stopped at %s: %v", res.Directory, res.Filter, res.Error))
	}
	return successText(fmt.Sprintf("%s: moved %s (%s) in %s",
		res.Directory,
		plural(res.FilesMoved, "file"),
		humanize.Bytes(uint64(res.BytesMoved)),
		res.Duration.Round(time.Millisecond)))
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	if strings.HasSuffix(noun, "y") {
		noun = strings.TrimSuffix(noun, "y") + "ie"
	}
	return fmt.Sprintf("%s %ss", humanize.Comma(int64(n)), noun)
}
