package report

import "strings"

// Wrap packs the whitespace-separated words of text greedily into lines
// narrower than maxWidth. A word that alone is too wide gets its own line
// and is never split.
func Wrap(m Measurer, text string, f Font, maxWidth float64) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if m.MeasureWidth(candidate, f) < maxWidth {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}
