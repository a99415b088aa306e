package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var sparkChars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

func (t Theme) fg(c lipgloss.Color) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(c)
}

// Sparkline renders the last width values as block characters scaled to
// their own range. The top third uses the warning colour, the bottom third
// the success colour.
func (t Theme) Sparkline(values []float64, width int) string {
	if width <= 0 {
		return ""
	}
	muted := t.fg(t.Muted)
	if len(values) == 0 {
		return muted.Render(strings.Repeat("─", width))
	}
	if len(values) > width {
		values = values[len(values)-width:]
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	span := hi - lo
	if span == 0 {
		span = 1
	}

	high, mid, low := t.fg(t.Warning), t.fg(t.Accent), t.fg(t.Success)
	var sb strings.Builder
	for _, v := range values {
		norm := (v - lo) / span
		idx := max(0, min(int(norm*float64(len(sparkChars)-1)), len(sparkChars)-1))
		c := string(sparkChars[idx])
		switch {
		case norm > 0.7:
			sb.WriteString(high.Render(c))
		case norm > 0.3:
			sb.WriteString(mid.Render(c))
		default:
			sb.WriteString(low.Render(c))
		}
	}
	return sb.String()
}

// Separator is a muted rule with a bond-coloured centre mark.
func (t Theme) Separator(width int) string {
	muted := t.fg(t.Muted)
	if width < 8 {
		return muted.Render(strings.Repeat("─", max(width, 0)))
	}
	half := width / 2
	return muted.Render(strings.Repeat("─", half-3)) +
		t.fg(t.Bond).Render(" ◆ ") +
		muted.Render(strings.Repeat("─", width-half-3))
}
