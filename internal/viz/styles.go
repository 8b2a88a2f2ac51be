package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// styles derives the footer styles from a theme.
type styles struct {
	header    lipgloss.Style
	playing   lipgloss.Style
	paused    lipgloss.Style
	stopped   lipgloss.Style
	recording lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	errText   lipgloss.Style
	graph     lipgloss.Style
	keyHint   lipgloss.Style
	good      lipgloss.Style
	warn      lipgloss.Style
	bad       lipgloss.Style
	subtle    lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		header: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Primary),
		playing: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Success),
		paused: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Warning),
		stopped: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Muted),
		recording: lipgloss.NewStyle().
			Bold(true).
			Foreground(t.Error).
			Blink(true),
		label:   lipgloss.NewStyle().Foreground(t.Muted),
		value:   lipgloss.NewStyle().Foreground(t.Text).Bold(true),
		errText: lipgloss.NewStyle().Foreground(t.Error),
		graph:   lipgloss.NewStyle().Foreground(t.Graph),
		keyHint: lipgloss.NewStyle().
			Foreground(t.Muted).
			Italic(true),
		good:   lipgloss.NewStyle().Foreground(t.Success),
		warn:   lipgloss.NewStyle().Foreground(t.Warning),
		bad:    lipgloss.NewStyle().Foreground(t.Error),
		subtle: lipgloss.NewStyle().Foreground(t.Muted),
	}
}

// progressBar renders a fraction in [0, 1], colored by how full it is.
func (s styles) progressBar(percent float64, width int) string {
	filled := int(percent * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)

	if percent > 0.95 {
		return s.good.Render(bar)
	} else if percent > 0.8 {
		return s.warn.Render(bar)
	}
	return s.bad.Render(bar)
}

// sparkline renders the most recent values that fit in width. It stands in
// for the rate graph when the terminal is too short for asciigraph.
func (s styles) sparkline(values []float64, width int) string {
	if len(values) == 0 || width < 1 {
		return strings.Repeat("─", max(width, 0))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	var b strings.Builder
	for _, v := range values {
		idx := int((v - lo) / rng * float64(len(chars)-1))
		idx = max(0, min(idx, len(chars)-1))
		b.WriteRune(chars[idx])
	}
	return s.graph.Render(b.String())
}

func (s styles) separator(width int) string {
	if width < 8 {
		return s.subtle.Render(strings.Repeat("─", max(width, 0)))
	}
	mid := width / 2
	return s.subtle.Render(strings.Repeat("─", mid-2) + " ◆ " + strings.Repeat("─", width-mid-1))
}
