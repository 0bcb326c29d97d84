package term

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	dim    = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#666666"}
	accent = lipgloss.Color("#78A0FF")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#1A1A1A", Dark: "#FFFFFF"})
	scopeStyle   = lipgloss.NewStyle().Foreground(accent)
	statusStyle  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#555555", Dark: "#AAAAAA"})
	timeStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#D04040"))
	playedStyle  = lipgloss.NewStyle().Foreground(accent)
	pendingStyle = lipgloss.NewStyle().Foreground(dim)
	boxStyle     = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(dim).Padding(0, 1)
)

// Border plus horizontal padding of boxStyle.
const boxChrome = 4

var blocks = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// renderTrackBars draws preview bars (heights 0-100) as one block character
// per column, resampled to width. Columns left of progress use playedStyle.
func renderTrackBars(heights []float64, width int, progress float64) string {
	if len(heights) == 0 || width <= 0 {
		return ""
	}

	cols := min(width, len(heights))
	played := int(progress * float64(cols))

	var playedRunes, pendingRunes strings.Builder
	for c := 0; c < cols; c++ {
		lo := c * len(heights) / cols
		hi := max((c+1)*len(heights)/cols, lo+1)
		peak := 0.0
		for _, h := range heights[lo:hi] {
			peak = max(peak, h)
		}

		idx := int(peak / 100 * float64(len(blocks)-1))
		idx = min(max(idx, 0), len(blocks)-1)
		if c < played {
			playedRunes.WriteRune(blocks[idx])
		} else {
			pendingRunes.WriteRune(blocks[idx])
		}
	}
	return playedStyle.Render(playedRunes.String()) + pendingStyle.Render(pendingRunes.String())
}

// renderSpectrum scales byte magnitudes to block characters, one per column.
func renderSpectrum(bins []byte, width int) string {
	if len(bins) == 0 || width <= 0 {
		return ""
	}

	stride := max(len(bins)/width, 1)
	var sb strings.Builder
	for i, n := 0, 0; i < len(bins) && n < width; i, n = i+stride, n+1 {
		idx := int(bins[i]) * (len(blocks) - 1) / 255
		sb.WriteRune(blocks[idx])
	}
	return scopeStyle.Render(sb.String())
}

func formatSeconds(s float64) string {
	if s < 0 {
		s = 0
	}
	total := int(s)
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

func spaces(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat(" ", n)
}
