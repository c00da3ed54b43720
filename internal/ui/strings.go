package ui

import (
	"fmt"
	"strings"
)

// truncate trims value and cuts it to limit runes, ending in "...".
func truncate(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	switch {
	case limit <= 0 || len(runes) <= limit:
		return value
	case limit <= 3:
		return string(runes[:limit])
	}
	return string(runes[:limit-3]) + "..."
}

// truncateMiddle cuts value to limit runes by replacing its middle with an
// ellipsis. Most of the budget goes to the tail so file names survive.
func truncateMiddle(value string, limit int) string {
	value = strings.TrimSpace(value)
	runes := []rune(value)
	if limit <= 0 || len(runes) <= limit {
		return value
	}
	if limit <= 3 {
		return string(runes[:limit])
	}
	keep := limit - 1
	head := keep / 3
	tail := keep - head
	return string(runes[:head]) + "…" + string(runes[len(runes)-tail:])
}

// titleCase turns "color_temp" into "Color Temp".
func titleCase(value string) string {
	words := strings.Fields(strings.ReplaceAll(value, "_", " "))
	for i, w := range words {
		r := []rune(strings.ToLower(w))
		words[i] = strings.ToUpper(string(r[:1])) + string(r[1:])
	}
	return strings.Join(words, " ")
}

// padRight pads s with spaces to width runes.
func padRight(s string, width int) string {
	return fmt.Sprintf("%-*s", width, s)
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
